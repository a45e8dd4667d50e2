package kms

import "time"

// SessionView is returned to a session participant from create and join.
// It is the only surface that carries key material out of the Manager.
type SessionView struct {
	ID        SessionID
	Initiator DeviceID
	Peer      DeviceID

	// Key is the participant's copy of the 32-byte session key.
	Key []byte

	QBER      float64
	Status    SessionStatus
	Hybrid    bool
	Joined    bool
	CreatedAt time.Time
}

// SessionInfo describes a session for listings and monitoring. It never
// contains key material.
type SessionInfo struct {
	ID        SessionID
	Initiator DeviceID
	Peer      DeviceID
	QBER      float64
	Status    SessionStatus
	Hybrid    bool
	Joined    bool
	CreatedAt time.Time
}

func newSessionView(s *Session) *SessionView {
	return &SessionView{
		ID:        s.ID(),
		Initiator: s.Initiator(),
		Peer:      s.Peer(),
		Key:       s.Key(),
		QBER:      s.QBER(),
		Status:    s.Status(),
		Hybrid:    s.Hybrid(),
		Joined:    s.Joined(),
		CreatedAt: s.CreatedAt(),
	}
}

func newSessionInfo(s *Session) SessionInfo {
	return SessionInfo{
		ID:        s.ID(),
		Initiator: s.Initiator(),
		Peer:      s.Peer(),
		QBER:      s.QBER(),
		Status:    s.Status(),
		Hybrid:    s.Hybrid(),
		Joined:    s.Joined(),
		CreatedAt: s.CreatedAt(),
	}
}
