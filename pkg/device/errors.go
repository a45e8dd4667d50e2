package device

import "errors"

// Device errors.
var (
	// ErrNoDeviceID is returned when a device is created without an identity.
	ErrNoDeviceID = errors.New("device: no device ID configured")

	// ErrNoKMS is returned when a device is created without a key service.
	ErrNoKMS = errors.New("device: no key management service configured")

	// ErrNoKey is returned when encryption or decryption is attempted
	// before a session key is established.
	ErrNoKey = errors.New("device: no session key established")
)
