// Package gateway routes encrypted envelopes between devices.
//
// The gateway is deliberately zero-knowledge: it sees sender, recipient
// and timing metadata, never key material or plaintext. A compromised
// gateway yields ciphertext and a traffic log, nothing more. Message
// confidentiality rests entirely on the quantum-derived session keys
// held by the endpoints.
package gateway

import (
	"sort"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/qstcs/qkd/pkg/kms"
)

// maxRoutingLog bounds the audit trail; older records are discarded.
const maxRoutingLog = 1024

// DefaultGatewayID identifies a gateway that was not given a name.
const DefaultGatewayID = "qkd-gateway-01"

// DeliveryHandler receives envelopes for a registered device as soon as
// they are routed. Handlers run outside the gateway lock and must not
// block for long.
type DeliveryHandler func(Envelope)

// Manager routes envelopes between registered devices.
//
// Devices register to receive traffic, either with a DeliveryHandler for
// push delivery or with nil to poll via PendingEnvelopes. Envelopes for
// offline recipients are queued until the recipient registers and drains
// its queue.
type Manager struct {
	gatewayID string
	log       logging.LeveledLogger

	mu       sync.RWMutex
	devices  map[kms.DeviceID]*Registration
	handlers map[kms.DeviceID]DeliveryHandler
	queues   map[kms.DeviceID][]Envelope
	records  []RoutingRecord
	counter  uint64
}

// ManagerConfig configures a gateway manager.
type ManagerConfig struct {
	// GatewayID names this gateway instance (default: DefaultGatewayID).
	GatewayID string

	// LoggerFactory is used to create the gateway logger. Optional.
	LoggerFactory logging.LoggerFactory
}

// NewManager creates a gateway manager.
func NewManager(config ManagerConfig) *Manager {
	if config.GatewayID == "" {
		config.GatewayID = DefaultGatewayID
	}

	m := &Manager{
		gatewayID: config.GatewayID,
		devices:   make(map[kms.DeviceID]*Registration),
		handlers:  make(map[kms.DeviceID]DeliveryHandler),
		queues:    make(map[kms.DeviceID][]Envelope),
	}

	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("gateway")
	}

	if m.log != nil {
		m.log.Infof("gateway %s initialized", config.GatewayID)
	}

	return m
}

// GatewayID returns the gateway's identifier.
func (m *Manager) GatewayID() string {
	return m.gatewayID
}

// Register connects a device to the gateway. A nil handler leaves the
// device in polling mode. Returns true when the device is new, false on
// reconnect; reconnecting replaces the handler and keeps the queue.
func (m *Manager) Register(id kms.DeviceID, handler DeliveryHandler) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if reg, ok := m.devices[id]; ok {
		reg.LastSeen = now
		m.handlers[id] = handler
		if m.log != nil {
			m.log.Debugf("device %s reconnected", id)
		}
		return false
	}

	m.devices[id] = &Registration{
		DeviceID:     id,
		RegisteredAt: now,
		LastSeen:     now,
	}
	m.handlers[id] = handler

	if m.log != nil {
		m.log.Infof("device %s registered", id)
	}
	return true
}

// Unregister disconnects a device. Its queue is kept so envelopes routed
// while it is offline survive a reconnect. Returns false if the device
// was not registered.
func (m *Manager) Unregister(id kms.DeviceID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[id]; !ok {
		return false
	}
	delete(m.devices, id)
	delete(m.handlers, id)

	if m.log != nil {
		m.log.Infof("device %s unregistered", id)
	}
	return true
}

// Route delivers an envelope to its recipient.
//
// Online recipients with a handler get the envelope pushed; online
// recipients without one get it staged for PendingEnvelopes. Offline
// recipients get it queued and the route is reported as queued. Either
// way the envelope is stamped with a message ID and a timestamp and the
// route is recorded in the audit trail.
func (m *Manager) Route(env Envelope) (RouteStatus, error) {
	if env.Sender == "" || env.Recipient == "" {
		return RouteStatusUnknown, ErrInvalidEnvelope
	}

	var handler DeliveryHandler

	m.mu.Lock()
	m.counter++
	env.MessageID = m.counter
	env.SentAt = time.Now()

	status := RouteStatusQueued
	if reg, online := m.devices[env.Recipient]; online {
		status = RouteStatusDelivered
		reg.Delivered++
		handler = m.handlers[env.Recipient]
	}

	if handler == nil {
		m.queues[env.Recipient] = append(m.queues[env.Recipient], env)
	}

	m.records = append(m.records, RoutingRecord{
		MessageID: env.MessageID,
		Sender:    env.Sender,
		Recipient: env.Recipient,
		SentAt:    env.SentAt,
		Size:      len(env.Ciphertext),
		Status:    status,
	})
	if len(m.records) > maxRoutingLog {
		m.records = m.records[len(m.records)-maxRoutingLog:]
	}

	if m.log != nil {
		m.log.Infof("routed message #%d: %s -> %s (%d bytes, %s)",
			env.MessageID, env.Sender, env.Recipient, len(env.Ciphertext), status)
	}
	m.mu.Unlock()

	// Push delivery happens outside the lock so a handler may call back
	// into the gateway.
	if handler != nil {
		handler(env)
	}

	return status, nil
}

// PendingEnvelopes drains and returns the envelopes queued for a device,
// oldest first. Devices in polling mode call this to receive traffic.
func (m *Manager) PendingEnvelopes(id kms.DeviceID) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := m.queues[id]
	if len(pending) == 0 {
		return nil
	}
	delete(m.queues, id)

	if reg, ok := m.devices[id]; ok {
		reg.LastSeen = time.Now()
	}
	if m.log != nil {
		m.log.Debugf("%d envelope(s) drained by %s", len(pending), id)
	}
	return pending
}

// RoutingLog returns the most recent routing records, newest last. A
// non-positive limit returns the full retained trail.
func (m *Manager) RoutingLog(limit int) []RoutingRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if limit > 0 && len(m.records) > limit {
		start = len(m.records) - limit
	}

	out := make([]RoutingRecord, len(m.records)-start)
	copy(out, m.records[start:])
	return out
}

// Registration returns the registration record for a connected device.
// Returns ErrNotRegistered when the device is offline or unknown.
func (m *Manager) Registration(id kms.DeviceID) (Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.devices[id]
	if !ok {
		return Registration{}, ErrNotRegistered
	}
	return *reg, nil
}

// Registrations returns the current device registrations, sorted by ID.
func (m *Manager) Registrations() []Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Registration, 0, len(m.devices))
	for _, reg := range m.devices {
		out = append(out, *reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// Status returns a snapshot of the gateway for monitoring.
func (m *Manager) Status() GatewayStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queued := 0
	for _, q := range m.queues {
		queued += len(q)
	}

	devices := make([]kms.DeviceID, 0, len(m.devices))
	for id := range m.devices {
		devices = append(devices, id)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i] < devices[j] })

	return GatewayStatus{
		GatewayID:        m.gatewayID,
		ConnectedDevices: len(m.devices),
		MessagesRouted:   m.counter,
		QueuedEnvelopes:  queued,
		Devices:          devices,
	}
}
