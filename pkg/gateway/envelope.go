package gateway

import (
	"time"

	"github.com/qstcs/qkd/pkg/kms"
)

// Envelope is an encrypted message in transit between two devices.
//
// The gateway reads only Sender and Recipient for routing. Nonce and
// Ciphertext are opaque: the gateway holds no keys and cannot open them.
type Envelope struct {
	// MessageID is assigned by the gateway when the envelope is routed.
	MessageID uint64

	Sender    kms.DeviceID
	Recipient kms.DeviceID

	// Nonce is the AES-GCM nonce the recipient needs for decryption.
	Nonce []byte

	// Ciphertext is the sealed payload, indistinguishable from random
	// bytes without the session key.
	Ciphertext []byte

	// SentAt is stamped by the gateway when the envelope is routed.
	SentAt time.Time
}

// RoutingRecord is an audit trail entry for one routed envelope. Records
// carry metadata only, never payload.
type RoutingRecord struct {
	MessageID uint64
	Sender    kms.DeviceID
	Recipient kms.DeviceID
	SentAt    time.Time
	Size      int
	Status    RouteStatus
}

// Registration tracks a device connected to the gateway.
type Registration struct {
	DeviceID     kms.DeviceID
	RegisteredAt time.Time
	LastSeen     time.Time
	Delivered    uint64
}

// GatewayStatus is a point-in-time snapshot for monitoring.
type GatewayStatus struct {
	GatewayID        string
	ConnectedDevices int
	MessagesRouted   uint64
	QueuedEnvelopes  int
	Devices          []kms.DeviceID
}
