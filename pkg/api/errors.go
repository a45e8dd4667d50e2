package api

import "errors"

// Server errors.
var (
	// ErrNoManager is returned when a server is configured without a
	// session manager.
	ErrNoManager = errors.New("api: no session manager configured")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("api: server already started")

	// ErrClosed is returned when an operation is attempted on a stopped
	// server.
	ErrClosed = errors.New("api: server closed")
)
