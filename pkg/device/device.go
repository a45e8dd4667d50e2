// Package device implements a field endpoint that obtains quantum-derived
// session keys from the key management service and exchanges authenticated
// ciphertext through the gateway.
//
// A device never transmits key material. It establishes or accepts a
// session with the KMS, seals outgoing messages with AES-256-GCM under the
// session key, and opens incoming envelopes with the same key. The sender
// and recipient identities are bound into the additional authenticated
// data, so rerouted or relabeled envelopes fail authentication.
package device

import (
	"fmt"

	"github.com/pion/logging"

	"github.com/qstcs/qkd/pkg/crypto"
	"github.com/qstcs/qkd/pkg/gateway"
	"github.com/qstcs/qkd/pkg/kms"
)

// Device is a single communication endpoint.
//
// A Device is not safe for concurrent use. Each goroutine should own its
// device or serialize access externally.
type Device struct {
	id  kms.DeviceID
	kms *kms.Manager
	log logging.LeveledLogger

	key       []byte
	sessionID kms.SessionID
	peer      kms.DeviceID

	sent     uint64
	received uint64
}

// Config configures a device.
type Config struct {
	// ID is the device identity used in sessions and envelopes. Required.
	ID kms.DeviceID

	// KMS is the key management service the device obtains keys from.
	// Required.
	KMS *kms.Manager

	// LoggerFactory is used to create the device logger. Optional.
	LoggerFactory logging.LoggerFactory
}

// Stats summarizes a device's activity.
type Stats struct {
	DeviceID         kms.DeviceID
	HasKey           bool
	SessionID        kms.SessionID
	Peer             kms.DeviceID
	MessagesSent     uint64
	MessagesReceived uint64
}

// New creates a device bound to a key management service.
func New(config Config) (*Device, error) {
	if config.ID == "" {
		return nil, ErrNoDeviceID
	}
	if config.KMS == nil {
		return nil, ErrNoKMS
	}

	d := &Device{
		id:  config.ID,
		kms: config.KMS,
	}

	if config.LoggerFactory != nil {
		d.log = config.LoggerFactory.NewLogger("device")
	}

	return d, nil
}

// ID returns the device identity.
func (d *Device) ID() kms.DeviceID {
	return d.id
}

// SessionID returns the active session, or "" when no key is held.
func (d *Device) SessionID() kms.SessionID {
	return d.sessionID
}

// Peer returns the device on the other end of the active session.
func (d *Device) Peer() kms.DeviceID {
	return d.peer
}

// HasKey reports whether the device holds an active session key.
func (d *Device) HasKey() bool {
	return d.key != nil
}

// EstablishKey creates a session with peer and installs the derived key.
// Any previously held key is zeroized first.
func (d *Device) EstablishKey(peer kms.DeviceID, opts kms.CreateOptions) error {
	d.ClearKey()

	view, err := d.kms.CreateSession(d.id, peer, opts)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("%s: key request failed: %v", d.id, err)
		}
		return fmt.Errorf("establishing key with %s: %w", peer, err)
	}

	d.installKey(view)
	return nil
}

// AcceptKey joins an existing session and installs its key. The device
// must be one of the session's participants.
func (d *Device) AcceptKey(id kms.SessionID) error {
	d.ClearKey()

	view, err := d.kms.JoinSession(id, d.id)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("%s: join failed: %v", d.id, err)
		}
		return fmt.Errorf("accepting key for session %s: %w", id, err)
	}

	d.installKey(view)
	return nil
}

func (d *Device) installKey(view *kms.SessionView) {
	d.key = view.Key
	d.sessionID = view.ID
	if view.Initiator == d.id {
		d.peer = view.Peer
	} else {
		d.peer = view.Initiator
	}

	if d.log != nil {
		d.log.Infof("%s: key established for session %s with %s", d.id, view.ID, d.peer)
	}
}

// Encrypt seals plaintext for recipient and returns the envelope to hand
// to the gateway. The envelope binds sender and recipient through the
// authenticated data, so altering either in transit breaks verification.
func (d *Device) Encrypt(recipient kms.DeviceID, plaintext []byte) (gateway.Envelope, error) {
	if !d.HasKey() {
		return gateway.Envelope{}, ErrNoKey
	}

	nonce, ciphertext, err := crypto.AESGCMEncrypt(d.key, plaintext, envelopeAAD(d.id, recipient))
	if err != nil {
		return gateway.Envelope{}, fmt.Errorf("sealing message for %s: %w", recipient, err)
	}
	d.sent++

	if d.log != nil {
		d.log.Debugf("%s: sealed %d bytes for %s", d.id, len(plaintext), recipient)
	}

	return gateway.Envelope{
		Sender:     d.id,
		Recipient:  recipient,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// Decrypt opens an incoming envelope and verifies its authenticity.
// Tampered ciphertext, a foreign key, or mismatched routing metadata all
// fail with crypto.ErrAESGCMAuthFailed.
func (d *Device) Decrypt(env gateway.Envelope) ([]byte, error) {
	if !d.HasKey() {
		return nil, ErrNoKey
	}

	plaintext, err := crypto.AESGCMDecrypt(d.key, env.Nonce, env.Ciphertext, envelopeAAD(env.Sender, env.Recipient))
	if err != nil {
		if d.log != nil {
			d.log.Warnf("%s: rejected envelope from %s: %v", d.id, env.Sender, err)
		}
		return nil, fmt.Errorf("opening envelope from %s: %w", env.Sender, err)
	}
	d.received++

	return plaintext, nil
}

// ClearKey zeroizes and discards the session key. Safe to call when no
// key is held.
func (d *Device) ClearKey() {
	if d.key == nil {
		return
	}
	crypto.Zeroize(d.key)
	d.key = nil
	d.sessionID = ""
	d.peer = ""

	if d.log != nil {
		d.log.Debugf("%s: session key cleared", d.id)
	}
}

// Stats returns the device's activity counters.
func (d *Device) Stats() Stats {
	return Stats{
		DeviceID:         d.id,
		HasKey:           d.HasKey(),
		SessionID:        d.sessionID,
		Peer:             d.peer,
		MessagesSent:     d.sent,
		MessagesReceived: d.received,
	}
}

// envelopeAAD binds routing identities into the AEAD so envelopes cannot
// be silently re-addressed.
func envelopeAAD(sender, recipient kms.DeviceID) []byte {
	return []byte(string(sender) + "->" + string(recipient))
}
