package kms

import "time"

// Link health constants.
const (
	// ElevatedQBER is the boundary between a green and a yellow link.
	// Error rates at or above it suggest noise or partial interception
	// worth watching, while still permitting key issuance.
	ElevatedQBER = 0.05

	// DefaultHistorySize is the default number of retained QBER samples.
	DefaultHistorySize = 20
)

// ClassifyQBER maps a measured error rate to a link health color given
// the rejection threshold. Rates strictly above the threshold are RED;
// exchanges that measure them are rejected.
func ClassifyQBER(qber, threshold float64) LinkStatus {
	switch {
	case qber > threshold:
		return LinkRed
	case qber >= ElevatedQBER:
		return LinkYellow
	default:
		return LinkGreen
	}
}

// Sample is one QBER measurement in the link history.
type Sample struct {
	// Time is when the exchange completed.
	Time time.Time

	// QBER is the measured error rate.
	QBER float64

	// EvePresent records whether the simulated eavesdropper was active
	// during the exchange.
	EvePresent bool
}

// HealthSnapshot is a point-in-time view of link health and counters,
// taken atomically with respect to session operations.
type HealthSnapshot struct {
	// Status is the current link health color.
	Status LinkStatus

	// LastQBER is the error rate of the most recent exchange.
	LastQBER float64

	// SessionsCreated counts successfully established sessions.
	SessionsCreated int

	// KeysIssued counts key deliveries: one per create and one per join.
	KeysIssued int

	// AttacksDetected counts exchanges rejected over the threshold.
	AttacksDetected int

	// ActiveSessions is the number of non-compromised sessions.
	ActiveSessions int

	// EavesdropperActive reports whether the simulated eavesdropper is
	// currently attached to the link.
	EavesdropperActive bool

	// History holds the most recent QBER samples, oldest first.
	History []Sample
}

// LinkMetrics tracks quantum link state: the current health color, a
// bounded history of QBER samples, issuance counters and the simulated
// eavesdropper flag.
//
// LinkMetrics is not safe for concurrent use on its own; the Manager
// serializes all access under its lock.
type LinkMetrics struct {
	status          LinkStatus
	lastQBER        float64
	sessionsCreated int
	keysIssued      int
	attacksDetected int
	activeSessions  int
	eavesdropper    bool
	history         []Sample
	historySize     int
}

// NewLinkMetrics creates link metrics retaining historySize samples
// (0 uses DefaultHistorySize).
func NewLinkMetrics(historySize int) *LinkMetrics {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &LinkMetrics{
		historySize: historySize,
	}
}

// Observe records the outcome of one key exchange: the health color, the
// last QBER and a history sample. Old samples fall off the front once the
// history is full.
func (m *LinkMetrics) Observe(qber float64, evePresent bool, status LinkStatus) {
	m.lastQBER = qber
	m.status = status

	m.history = append(m.history, Sample{
		Time:       time.Now(),
		QBER:       qber,
		EvePresent: evePresent,
	})
	if len(m.history) > m.historySize {
		m.history = m.history[len(m.history)-m.historySize:]
	}
}

// RecordSessionCreated counts one established session.
func (m *LinkMetrics) RecordSessionCreated() {
	m.sessionsCreated++
}

// RecordKeyIssued counts one key delivery.
func (m *LinkMetrics) RecordKeyIssued() {
	m.keysIssued++
}

// RecordAttack counts one rejected exchange.
func (m *LinkMetrics) RecordAttack() {
	m.attacksDetected++
}

// SetActiveSessions updates the live session count.
func (m *LinkMetrics) SetActiveSessions(n int) {
	m.activeSessions = n
}

// SetEavesdropper toggles the simulated eavesdropper on the link.
func (m *LinkMetrics) SetEavesdropper(active bool) {
	m.eavesdropper = active
}

// Eavesdropper reports whether the simulated eavesdropper is active.
func (m *LinkMetrics) Eavesdropper() bool {
	return m.eavesdropper
}

// Snapshot returns a copy of the current metrics. The history slice is
// copied so the snapshot stays stable after the lock is released.
func (m *LinkMetrics) Snapshot() HealthSnapshot {
	history := make([]Sample, len(m.history))
	copy(history, m.history)

	return HealthSnapshot{
		Status:             m.status,
		LastQBER:           m.lastQBER,
		SessionsCreated:    m.sessionsCreated,
		KeysIssued:         m.keysIssued,
		AttacksDetected:    m.attacksDetected,
		ActiveSessions:     m.activeSessions,
		EavesdropperActive: m.eavesdropper,
		History:            history,
	}
}

// Reset returns the metrics to their initial state: GREEN link, zeroed
// counters, empty history, eavesdropper detached.
func (m *LinkMetrics) Reset() {
	size := m.historySize
	*m = LinkMetrics{historySize: size}
}
