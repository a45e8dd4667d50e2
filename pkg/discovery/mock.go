package discovery

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
)

// MockMDNSResolver provides a mock mDNS resolver for testing without real network I/O.
// It allows registering services and simulating discovery responses.
type MockMDNSResolver struct {
	mu       sync.RWMutex
	services map[string][]*zeroconf.ServiceEntry
}

// NewMockMDNSResolver creates a new mock resolver.
func NewMockMDNSResolver() *MockMDNSResolver {
	return &MockMDNSResolver{
		services: make(map[string][]*zeroconf.ServiceEntry),
	}
}

// RegisterService registers a service that will be returned by Browse/Lookup.
func (m *MockMDNSResolver) RegisterService(service string, entry *zeroconf.ServiceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[service] = append(m.services[service], entry)
}

// ClearServices removes all registered services.
func (m *MockMDNSResolver) ClearServices() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = make(map[string][]*zeroconf.ServiceEntry)
}

// Browse implements MDNSResolver.
func (m *MockMDNSResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	m.mu.RLock()
	svcEntries := make([]*zeroconf.ServiceEntry, len(m.services[service]))
	copy(svcEntries, m.services[service])
	m.mu.RUnlock()

	// Send entries synchronously to avoid races with channel closing.
	// This is test code so blocking behavior is acceptable.
	for _, entry := range svcEntries {
		select {
		case entries <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Lookup implements MDNSResolver.
func (m *MockMDNSResolver) Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	m.mu.RLock()
	svcEntries := make([]*zeroconf.ServiceEntry, len(m.services[service]))
	copy(svcEntries, m.services[service])
	m.mu.RUnlock()

	// Send entries synchronously to avoid races with channel closing.
	for _, entry := range svcEntries {
		if entry.Instance == instance {
			select {
			case entries <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
	}

	return nil
}

// MockServer records the lifecycle of a single advertised service.
type MockServer struct {
	mu       sync.Mutex
	shutdown bool
}

// Shutdown implements MDNSServer.
func (s *MockServer) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
}

// IsShutdown reports whether Shutdown has been called.
func (s *MockServer) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// MockServerFactory creates MockServers and records every registration,
// letting tests assert on the advertised instance, service, port and TXT
// records without touching the network.
type MockServerFactory struct {
	mu      sync.Mutex
	servers []*MockServer

	// Captured arguments of the most recent Register call.
	Instance string
	Service  string
	Domain   string
	Port     int
	Text     []string

	// RegisterErr, when set, is returned by Register.
	RegisterErr error
}

// NewMockServerFactory creates a new mock server factory.
func NewMockServerFactory() *MockServerFactory {
	return &MockServerFactory{}
}

// Register implements MDNSServerFactory.
func (f *MockServerFactory) Register(instance, service, domain string, port int, text []string, ifaces []net.Interface) (MDNSServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.RegisterErr != nil {
		return nil, f.RegisterErr
	}

	f.Instance = instance
	f.Service = service
	f.Domain = domain
	f.Port = port
	f.Text = append([]string(nil), text...)

	server := &MockServer{}
	f.servers = append(f.servers, server)
	return server, nil
}

// Servers returns all servers created by the factory, in creation order.
func (f *MockServerFactory) Servers() []*MockServer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*MockServer, len(f.servers))
	copy(out, f.servers)
	return out
}

// MockKMSService creates a mock KMS service entry for testing.
func MockKMSService(instanceName string, port int, ip net.IP, name string) *zeroconf.ServiceEntry {
	txt := []string{txtKeyVersion + "=" + strconv.Itoa(ProtocolVersion)}
	if name != "" {
		txt = append(txt, txtKeyName+"="+name)
	}
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instanceName,
			Service:  ServiceKMS,
			Domain:   DefaultDomain,
		},
		HostName: instanceName + ".local.",
		Port:     port,
		AddrIPv4: []net.IP{ip},
		Text:     txt,
	}
}
