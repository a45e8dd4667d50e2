package kms

import (
	"errors"
	"fmt"
)

// KMS package errors.
var (
	// ErrInvalidPairing is returned when a session is requested for an
	// empty device identity or for a device paired with itself.
	ErrInvalidPairing = errors.New("kms: invalid device pairing")

	// ErrUnknownSession is returned when a session lookup fails.
	ErrUnknownSession = errors.New("kms: unknown session")

	// ErrNotAParticipant is returned when a device requests key material
	// for a session it does not belong to.
	ErrNotAParticipant = errors.New("kms: device is not a session participant")

	// ErrSessionCompromised is returned when joining a session that has
	// been invalidated. Its key no longer exists.
	ErrSessionCompromised = errors.New("kms: session compromised")

	// ErrLinkCompromised matches any CompromisedLinkError via errors.Is.
	ErrLinkCompromised = errors.New("kms: quantum link compromised")

	// ErrInvalidSessionID is returned when a session record carries an
	// empty identifier.
	ErrInvalidSessionID = errors.New("kms: invalid session ID")

	// ErrInvalidKeyLength is returned when a session key is not exactly
	// 32 bytes.
	ErrInvalidKeyLength = errors.New("kms: invalid session key length")

	// ErrDuplicateSession is returned when adding a session whose ID or
	// device pair is already indexed.
	ErrDuplicateSession = errors.New("kms: duplicate session")
)

// CompromisedLinkError reports a key exchange rejected because the
// measured QBER exceeded the security threshold. No key material is
// issued or stored when this error is returned.
type CompromisedLinkError struct {
	// QBER is the error rate measured during the rejected exchange.
	QBER float64

	// Threshold is the configured security threshold that was exceeded.
	Threshold float64
}

// Error implements the error interface.
func (e *CompromisedLinkError) Error() string {
	return fmt.Sprintf("kms: quantum link compromised: QBER %.1f%% exceeds %.0f%% threshold",
		e.QBER*100, e.Threshold*100)
}

// Is lets errors.Is match a CompromisedLinkError against ErrLinkCompromised.
func (e *CompromisedLinkError) Is(target error) bool {
	return target == ErrLinkCompromised
}
