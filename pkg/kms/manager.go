package kms

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/qstcs/qkd/pkg/bb84"
	"github.com/qstcs/qkd/pkg/crypto"
)

// Manager is the key management service. It runs quantum key exchanges
// for device pairs, enforces the QBER security threshold, derives session
// keys and tracks link health.
//
// A single mutex guards the session store and the link metrics together,
// so a pair lookup, the channel exchange and the resulting state changes
// form one atomic step. Concurrent create requests for the same pair
// yield one session.
type Manager struct {
	config  ManagerConfig
	store   *Store
	metrics *LinkMetrics
	log     logging.LeveledLogger

	mu sync.Mutex
}

// ManagerConfig configures the key management service.
type ManagerConfig struct {
	// QubitCount is the number of qubits per key exchange.
	// Default: bb84.DefaultQubitCount (512)
	QubitCount int

	// Threshold is the QBER above which exchanges are rejected.
	// Default: bb84.SecurityThreshold (0.11)
	Threshold float64

	// ChannelNoise is the simulated channel noise level in [0, 1].
	// Default: 0
	ChannelNoise float64

	// InterceptRate is the fraction of qubits the eavesdropper intercepts
	// while active. Default: 1.0
	InterceptRate float64

	// HistorySize bounds the retained QBER history.
	// Default: DefaultHistorySize (20)
	HistorySize int

	// LoggerFactory creates the manager's logger. Optional.
	LoggerFactory logging.LoggerFactory
}

// CreateOptions tunes a single session creation.
type CreateOptions struct {
	// QubitCount overrides the configured qubit count when positive.
	QubitCount int

	// Hybrid additionally strengthens the derived key with an ML-KEM-768
	// shared secret.
	Hybrid bool
}

// NewManager creates a key management service.
func NewManager(config ManagerConfig) *Manager {
	if config.QubitCount <= 0 {
		config.QubitCount = bb84.DefaultQubitCount
	}
	if config.Threshold <= 0 {
		config.Threshold = bb84.SecurityThreshold
	}
	if config.InterceptRate <= 0 || config.InterceptRate > 1 {
		config.InterceptRate = 1.0
	}
	if config.ChannelNoise < 0 {
		config.ChannelNoise = 0
	}
	if config.ChannelNoise > 1 {
		config.ChannelNoise = 1
	}
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultHistorySize
	}

	m := &Manager{
		config:  config,
		store:   NewStore(),
		metrics: NewLinkMetrics(config.HistorySize),
	}

	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("kms")
	}

	if m.log != nil {
		m.log.Infof("key management service initialized, QBER threshold %.1f%%",
			config.Threshold*100)
	}

	return m
}

// Threshold returns the configured QBER security threshold.
func (m *Manager) Threshold() float64 {
	return m.config.Threshold
}

// CreateSession establishes a key session between two devices.
//
// A quantum key exchange runs on the simulated channel; if the measured
// QBER stays at or below the threshold, a 32-byte session key is derived
// from the sifted bits with a label binding it to the session and both
// participants, and the session is stored and returned.
//
// If the unordered pair already has a live session, that session is
// returned unchanged: creates are idempotent per pair until the session
// is invalidated or the manager is reset.
//
// Exchanges above the threshold return *CompromisedLinkError (matching
// ErrLinkCompromised), set the link RED, count an attack and store
// nothing.
func (m *Manager) CreateSession(initiator, peer DeviceID, opts CreateOptions) (*SessionView, error) {
	if initiator == "" || peer == "" || initiator == peer {
		return nil, ErrInvalidPairing
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSessionLocked(initiator, peer, opts)
}

// createSessionLocked runs the exchange-derive-store sequence.
// Caller holds m.mu.
func (m *Manager) createSessionLocked(initiator, peer DeviceID, opts CreateOptions) (*SessionView, error) {
	if existing := m.store.FindByPair(initiator, peer); existing != nil {
		if m.log != nil {
			m.log.Debugf("returning existing session %s for %s<->%s",
				existing.ID(), initiator, peer)
		}
		return newSessionView(existing), nil
	}

	qubits := opts.QubitCount
	if qubits <= 0 {
		qubits = m.config.QubitCount
	}
	evePresent := m.metrics.Eavesdropper()

	result, err := bb84.Simulate(bb84.Params{
		QubitCount:    qubits,
		EvePresent:    evePresent,
		InterceptRate: m.config.InterceptRate,
		NoiseLevel:    m.config.ChannelNoise,
	})
	if err != nil {
		return nil, fmt.Errorf("quantum exchange failed: %w", err)
	}
	defer crypto.Zeroize(result.Key)

	status := ClassifyQBER(result.QBER, m.config.Threshold)
	m.metrics.Observe(result.QBER, evePresent, status)

	if result.QBER > m.config.Threshold {
		m.metrics.RecordAttack()
		if m.log != nil {
			m.log.Warnf("attack detected on %s<->%s exchange: QBER %.2f%%, key issuance blocked",
				initiator, peer, result.QBER*100)
		}
		return nil, &CompromisedLinkError{
			QBER:      result.QBER,
			Threshold: m.config.Threshold,
		}
	}

	id := SessionID(uuid.NewString())

	key, err := crypto.DeriveSessionKey(result.Key, sessionKeyLabel(id, initiator, peer))
	if err != nil {
		return nil, fmt.Errorf("session key derivation failed: %w", err)
	}
	if opts.Hybrid {
		hybridKey, err := crypto.HybridizeKey(key)
		crypto.Zeroize(key)
		if err != nil {
			return nil, fmt.Errorf("hybrid strengthening failed: %w", err)
		}
		key = hybridKey
	}
	defer crypto.Zeroize(key)

	sess, err := newSession(sessionConfig{
		ID:        id,
		Initiator: initiator,
		Peer:      peer,
		Key:       key,
		QBER:      result.QBER,
		Hybrid:    opts.Hybrid,
	})
	if err != nil {
		return nil, err
	}
	if err := m.store.Add(sess); err != nil {
		return nil, err
	}

	m.metrics.RecordSessionCreated()
	m.metrics.RecordKeyIssued()
	m.metrics.SetActiveSessions(m.store.ActiveCount())

	if m.log != nil {
		m.log.Infof("session %s established for %s<->%s: QBER %.2f%%, status %s, key %s…",
			id, initiator, peer, result.QBER*100, sess.Status(), keyPreview(sess.key))
	}

	return newSessionView(sess), nil
}

// JoinSession delivers the session key to a participant. The returned
// key is byte-identical to the one the initiator received.
//
// Returns ErrUnknownSession for unknown IDs, ErrNotAParticipant when the
// device is not one of the pair, and ErrSessionCompromised when the
// session has been invalidated.
func (m *Manager) JoinSession(id SessionID, device DeviceID) (*SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.Get(id)
	if sess == nil {
		return nil, ErrUnknownSession
	}
	if !sess.participant(device) {
		return nil, ErrNotAParticipant
	}
	if sess.Status() == StatusCompromised {
		return nil, ErrSessionCompromised
	}

	sess.markJoined()
	m.metrics.RecordKeyIssued()

	if m.log != nil {
		m.log.Infof("device %s joined session %s", device, id)
	}

	return newSessionView(sess), nil
}

// InvalidateSession tombstones a session: its status becomes compromised,
// its key is zeroized and the device pair may establish a fresh session.
// Invalidating an already-compromised session is a no-op.
func (m *Manager) InvalidateSession(id SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.Get(id)
	if sess == nil {
		return ErrUnknownSession
	}
	if sess.Status() == StatusCompromised {
		return nil
	}

	sess.compromise()
	m.store.RemovePair(sess)
	m.metrics.SetActiveSessions(m.store.ActiveCount())

	if m.log != nil {
		m.log.Infof("session %s invalidated for %s<->%s", id, sess.Initiator(), sess.Peer())
	}

	return nil
}

// ActivateEavesdropper attaches the simulated eavesdropper to the link.
// Exchanges started afterwards are intercepted; existing sessions keep
// their keys.
func (m *Manager) ActivateEavesdropper() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.SetEavesdropper(true)
	if m.log != nil {
		m.log.Warnf("eavesdropper activated on quantum link")
	}
}

// DeactivateEavesdropper detaches the simulated eavesdropper.
func (m *Manager) DeactivateEavesdropper() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.SetEavesdropper(false)
	if m.log != nil {
		m.log.Infof("eavesdropper deactivated")
	}
}

// TriggerAttackProbe verifies that interception is detectable: it
// activates the eavesdropper, runs one exchange between throwaway probe
// identities and returns the measured QBER. The eavesdropper stays
// active afterwards. No session is left behind.
func (m *Manager) TriggerAttackProbe() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.SetEavesdropper(true)

	suffix := uuid.NewString()
	probeA := DeviceID("probe-a-" + suffix)
	probeB := DeviceID("probe-b-" + suffix)

	view, err := m.createSessionLocked(probeA, probeB, CreateOptions{})
	if err != nil {
		var compromised *CompromisedLinkError
		if errors.As(err, &compromised) {
			if m.log != nil {
				m.log.Infof("attack probe complete: QBER %.2f%%", compromised.QBER*100)
			}
			return compromised.QBER, nil
		}
		return 0, err
	}

	// A full-interception exchange virtually never stays under the
	// threshold. If one does, discard the probe session.
	m.store.Remove(view.ID)
	m.metrics.SetActiveSessions(m.store.ActiveCount())
	return view.QBER, nil
}

// LinkHealth returns a consistent snapshot of link status, counters and
// QBER history.
func (m *Manager) LinkHealth() HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics.Snapshot()
}

// Sessions lists all session records, tombstones included, ordered by
// creation time. Listings never contain key material.
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := m.store.All()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt().Equal(sessions[j].CreatedAt()) {
			return sessions[i].ID() < sessions[j].ID()
		}
		return sessions[i].CreatedAt().Before(sessions[j].CreatedAt())
	})

	result := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, newSessionInfo(sess))
	}
	return result
}

// Reset zeroizes every session key and returns the manager to its
// initial state: empty store, zeroed metrics, eavesdropper detached.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sess := range m.store.All() {
		crypto.Zeroize(sess.key)
	}
	m.store.Clear()
	m.metrics.Reset()

	if m.log != nil {
		m.log.Infof("key management service reset")
	}
}

// sessionKeyLabel builds the HKDF domain-separation label binding a
// derived key to its session and both participants.
func sessionKeyLabel(id SessionID, initiator, peer DeviceID) string {
	return fmt.Sprintf("QSTCS-SessionKey-%s:%s:%s", id, initiator, peer)
}

// keyPreview renders the first four key bytes for log lines. Full key
// material is never logged.
func keyPreview(key []byte) string {
	if len(key) > 4 {
		key = key[:4]
	}
	return hex.EncodeToString(key)
}
