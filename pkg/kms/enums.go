// Package kms implements the key management service for the quantum key
// distribution subsystem.
//
// The KMS bridges the quantum layer (the BB84 channel simulation in
// pkg/bb84) and the classical encryption layer: it runs key exchanges on
// behalf of device pairs, enforces the QBER security threshold before any
// key is issued, derives per-session AES-256 keys via HKDF-SHA256, and
// tracks link health for operators.
//
// The package manages three kinds of state:
//   - Session records: per-pair derived keys and their lifecycle
//   - The pair index: at most one live session per unordered device pair
//   - Link metrics: QBER history, health color and issuance counters
//
// All key material lives in volatile memory only. Invalidating a session
// or resetting the manager zeroizes the affected keys.
package kms

// SessionStatus describes the lifecycle state of a session record.
type SessionStatus int

const (
	// StatusUnknown indicates an uninitialized or invalid status.
	StatusUnknown SessionStatus = iota

	// StatusSecure indicates a session established over a link with QBER
	// below the elevated boundary.
	StatusSecure

	// StatusElevated indicates a session established while the link QBER
	// was elevated but still under the security threshold.
	StatusElevated

	// StatusCompromised indicates an invalidated session. Its key has been
	// zeroized and the session can no longer be joined.
	StatusCompromised
)

// String returns a human-readable name for the session status.
func (s SessionStatus) String() string {
	switch s {
	case StatusSecure:
		return "Secure"
	case StatusElevated:
		return "Elevated"
	case StatusCompromised:
		return "Compromised"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the session status is a defined value.
func (s SessionStatus) IsValid() bool {
	return s == StatusSecure || s == StatusElevated || s == StatusCompromised
}

// LinkStatus is the aggregate health color of the quantum link,
// recomputed on every key exchange.
type LinkStatus int

const (
	// LinkGreen means the link is secure and keys are issued freely.
	LinkGreen LinkStatus = iota

	// LinkYellow means the QBER is elevated but below the security
	// threshold; keys are still issued.
	LinkYellow

	// LinkRed means the last exchange exceeded the security threshold;
	// the offending key was never issued.
	LinkRed
)

// String returns the link status as reported to operators.
func (l LinkStatus) String() string {
	switch l {
	case LinkYellow:
		return "YELLOW"
	case LinkRed:
		return "RED"
	default:
		return "GREEN"
	}
}

// IsValid returns true if the link status is a defined value.
func (l LinkStatus) IsValid() bool {
	return l == LinkGreen || l == LinkYellow || l == LinkRed
}
