package api

import (
	"time"

	"github.com/qstcs/qkd/pkg/kms"
)

// CreateSessionRequest asks for a new key session between two devices.
type CreateSessionRequest struct {
	Initiator string `json:"initiator"`
	Peer      string `json:"peer"`

	// QubitCount overrides the service's configured exchange size when
	// positive.
	QubitCount int `json:"qubit_count,omitempty"`

	// Hybrid requests ML-KEM-768 strengthening of the derived key.
	Hybrid bool `json:"hybrid,omitempty"`
}

// SessionKeyResponse carries an issued session key to a participant. It
// is returned only from create and join, never from listings.
type SessionKeyResponse struct {
	SessionID string  `json:"session_id"`
	Initiator string  `json:"initiator"`
	Peer      string  `json:"peer"`
	KeyHex    string  `json:"key_hex"`
	QBER      float64 `json:"qber"`
	Status    string  `json:"status"`
	Hybrid    bool    `json:"hybrid"`
	Joined    bool    `json:"joined"`
}

// JoinSessionRequest identifies the device joining a session.
type JoinSessionRequest struct {
	DeviceID string `json:"device_id"`
}

// SessionSummary describes a session without its key.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Initiator string    `json:"initiator"`
	Peer      string    `json:"peer"`
	QBER      float64   `json:"qber"`
	Status    string    `json:"status"`
	Hybrid    bool      `json:"hybrid"`
	Joined    bool      `json:"joined"`
	CreatedAt time.Time `json:"created_at"`
}

// ListSessionsResponse lists all sessions, including compromised ones.
type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Count    int              `json:"count"`
}

// QBERSample is one link history entry.
type QBERSample struct {
	Time       time.Time `json:"time"`
	QBER       float64   `json:"qber"`
	EvePresent bool      `json:"eve_present"`
}

// LinkStatusResponse reports quantum link health. It is polled by
// monitoring dashboards and by gatekeepers deciding whether to pass
// traffic.
type LinkStatusResponse struct {
	Status             string       `json:"status"`
	QBER               float64      `json:"qber"`
	SessionsCreated    int          `json:"sessions_created"`
	TotalKeysIssued    int          `json:"total_keys_issued"`
	AttacksDetected    int          `json:"attacks_detected"`
	ActiveSessions     int          `json:"active_sessions"`
	EavesdropperActive bool         `json:"eavesdropper_active"`
	History            []QBERSample `json:"history"`
}

// EavesdropperResponse reports the eavesdropper toggle state.
type EavesdropperResponse struct {
	EavesdropperActive bool `json:"eavesdropper_active"`
}

// AttackProbeResponse reports the outcome of a forced interception probe.
type AttackProbeResponse struct {
	Status  string  `json:"status"`
	QBER    float64 `json:"qber"`
	Message string  `json:"message"`
}

// ResetResponse confirms a full service reset.
type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response. QBER and Status
// are filled when a key request was blocked by a compromised link.
type ErrorResponse struct {
	Error  string  `json:"error"`
	QBER   float64 `json:"qber,omitempty"`
	Status string  `json:"status,omitempty"`
}

func sessionSummary(info kms.SessionInfo) SessionSummary {
	return SessionSummary{
		SessionID: string(info.ID),
		Initiator: string(info.Initiator),
		Peer:      string(info.Peer),
		QBER:      info.QBER,
		Status:    info.Status.String(),
		Hybrid:    info.Hybrid,
		Joined:    info.Joined,
		CreatedAt: info.CreatedAt,
	}
}

func linkStatusResponse(health kms.HealthSnapshot) LinkStatusResponse {
	history := make([]QBERSample, len(health.History))
	for i, s := range health.History {
		history[i] = QBERSample{Time: s.Time, QBER: s.QBER, EvePresent: s.EvePresent}
	}
	return LinkStatusResponse{
		Status:             health.Status.String(),
		QBER:               health.LastQBER,
		SessionsCreated:    health.SessionsCreated,
		TotalKeysIssued:    health.KeysIssued,
		AttacksDetected:    health.AttacksDetected,
		ActiveSessions:     health.ActiveSessions,
		EavesdropperActive: health.EavesdropperActive,
		History:            history,
	}
}
