package discovery

import "errors"

// Package-level sentinel errors for discovery operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed component.
	ErrClosed = errors.New("discovery: closed")

	// ErrAlreadyStarted is returned when starting an already-started advertisement.
	ErrAlreadyStarted = errors.New("discovery: already started")

	// ErrNotStarted is returned when stopping an advertisement that was not started.
	ErrNotStarted = errors.New("discovery: not started")

	// ErrServiceNotFound is returned when no KMS instance was discovered.
	ErrServiceNotFound = errors.New("discovery: service not found")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("discovery: operation timed out")

	// ErrInvalidServiceName is returned when the advertised name exceeds
	// the maximum length.
	ErrInvalidServiceName = errors.New("discovery: invalid service name (max 63 characters)")

	// ErrInvalidProtocolVersion is returned for a negative protocol version.
	ErrInvalidProtocolVersion = errors.New("discovery: invalid protocol version")
)
