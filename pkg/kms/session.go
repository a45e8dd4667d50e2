package kms

import (
	"time"

	"github.com/qstcs/qkd/pkg/crypto"
)

// DeviceID identifies a field device. IDs are opaque, non-empty strings
// assigned by the deployment (for example "Soldier_Alpha").
type DeviceID string

// SessionID identifies a key session. IDs are opaque strings generated
// by the Manager.
type SessionID string

// pairKey identifies an unordered device pair: {A, B} and {B, A} map to
// the same key.
type pairKey struct {
	lo, hi DeviceID
}

func newPairKey(a, b DeviceID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Session is one established key session between a device pair.
//
// A Session has no internal lock: all access is serialized by the Manager
// so that session state, the pair index and the link metrics always
// mutate together under one critical section.
type Session struct {
	id        SessionID
	initiator DeviceID
	peer      DeviceID
	key       []byte
	qber      float64
	status    SessionStatus
	hybrid    bool
	joined    bool
	createdAt time.Time
}

// sessionConfig carries the inputs for a new session record.
type sessionConfig struct {
	ID        SessionID
	Initiator DeviceID
	Peer      DeviceID
	Key       []byte
	QBER      float64
	Hybrid    bool
}

// newSession creates a session record after a successful key exchange.
// The key is copied; the caller's slice is not retained.
func newSession(config sessionConfig) (*Session, error) {
	if config.ID == "" {
		return nil, ErrInvalidSessionID
	}
	if config.Initiator == "" || config.Peer == "" || config.Initiator == config.Peer {
		return nil, ErrInvalidPairing
	}
	if len(config.Key) != crypto.SessionKeyLength {
		return nil, ErrInvalidKeyLength
	}

	status := StatusSecure
	if config.QBER >= ElevatedQBER {
		status = StatusElevated
	}

	s := &Session{
		id:        config.ID,
		initiator: config.Initiator,
		peer:      config.Peer,
		key:       make([]byte, crypto.SessionKeyLength),
		qber:      config.QBER,
		status:    status,
		hybrid:    config.Hybrid,
		createdAt: time.Now(),
	}
	copy(s.key, config.Key)

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() SessionID {
	return s.id
}

// Initiator returns the device that requested the session.
func (s *Session) Initiator() DeviceID {
	return s.initiator
}

// Peer returns the second participant.
func (s *Session) Peer() DeviceID {
	return s.peer
}

// Key returns a copy of the session key. After invalidation the key has
// been zeroized and this returns all zeros.
func (s *Session) Key() []byte {
	key := make([]byte, len(s.key))
	copy(key, s.key)
	return key
}

// QBER returns the error rate measured when the session was established.
func (s *Session) QBER() float64 {
	return s.qber
}

// Status returns the session lifecycle status.
func (s *Session) Status() SessionStatus {
	return s.status
}

// Hybrid returns true if the key was strengthened with a post-quantum
// KEM secret.
func (s *Session) Hybrid() bool {
	return s.hybrid
}

// Joined returns true once a participant has collected the key via join.
func (s *Session) Joined() bool {
	return s.joined
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// participant reports whether device is one of the two session parties.
func (s *Session) participant(device DeviceID) bool {
	return device == s.initiator || device == s.peer
}

// markJoined records that a participant collected the key.
func (s *Session) markJoined() {
	s.joined = true
}

// compromise tombstones the session and zeroizes its key.
func (s *Session) compromise() {
	s.status = StatusCompromised
	crypto.Zeroize(s.key)
}
