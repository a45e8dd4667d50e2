package gateway

import "errors"

// Gateway errors.
var (
	// ErrInvalidEnvelope is returned when an envelope is missing its
	// sender or recipient.
	ErrInvalidEnvelope = errors.New("gateway: envelope missing sender or recipient")

	// ErrNotRegistered is returned when an operation names a device the
	// gateway has never seen.
	ErrNotRegistered = errors.New("gateway: device not registered")
)
