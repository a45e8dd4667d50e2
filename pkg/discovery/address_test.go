package discovery

import (
	"net"
	"testing"
)

func TestSortIPsByPreference(t *testing.T) {
	loopback := net.IPv4(127, 0, 0, 1)
	privateV4 := net.IPv4(192, 168, 1, 10)
	publicV4 := net.IPv4(203, 0, 113, 9)
	globalV6 := net.ParseIP("2001:db8::1")
	ulaV6 := net.ParseIP("fd12:3456:789a::1")
	linkLocalV6 := net.ParseIP("fe80::1")

	ips := []net.IP{loopback, linkLocalV6, globalV6, publicV4, ulaV6, privateV4}
	sorted := SortIPsByPreference(ips)

	want := []net.IP{privateV4, publicV4, globalV6, ulaV6, linkLocalV6, loopback}
	if len(sorted) != len(want) {
		t.Fatalf("SortIPsByPreference() returned %d IPs, want %d", len(sorted), len(want))
	}
	for i := range want {
		if !sorted[i].Equal(want[i]) {
			t.Errorf("sorted[%d] = %v, want %v", i, sorted[i], want[i])
		}
	}

	// Original slice is untouched.
	if !ips[0].Equal(loopback) {
		t.Error("SortIPsByPreference() modified the input slice")
	}
}

func TestSortIPsByPreference_Stable(t *testing.T) {
	a := net.IPv4(10, 0, 0, 1)
	b := net.IPv4(172, 16, 0, 1)
	c := net.IPv4(192, 168, 0, 1)

	sorted := SortIPsByPreference([]net.IP{a, b, c})

	// All three are private IPv4, so relative order is preserved.
	for i, want := range []net.IP{a, b, c} {
		if !sorted[i].Equal(want) {
			t.Errorf("sorted[%d] = %v, want %v", i, sorted[i], want)
		}
	}
}

func TestIsPrivateIPv4(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.15.0.1", false},
		{"172.32.0.1", false},
		{"192.168.0.1", true},
		{"192.169.0.1", false},
		{"8.8.8.8", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip).To4()
			if got := isPrivateIPv4(ip); got != tt.want {
				t.Errorf("isPrivateIPv4(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestIsUniqueLocal(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"fc00::1", true},
		{"fd12:3456:789a::1", true},
		{"fe80::1", false},
		{"2001:db8::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := isUniqueLocal(net.ParseIP(tt.ip)); got != tt.want {
				t.Errorf("isUniqueLocal(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestFilterIPv4(t *testing.T) {
	ips := []net.IP{
		net.IPv4(192, 168, 1, 10),
		net.ParseIP("2001:db8::1"),
		net.IPv4(10, 0, 0, 1),
	}

	v4 := FilterIPv4(ips)
	if len(v4) != 2 {
		t.Fatalf("FilterIPv4() returned %d IPs, want 2", len(v4))
	}
	for _, ip := range v4 {
		if ip.To4() == nil {
			t.Errorf("FilterIPv4() returned non-IPv4 address %v", ip)
		}
	}

	v6 := FilterIPv6(ips)
	if len(v6) != 1 {
		t.Fatalf("FilterIPv6() returned %d IPs, want 1", len(v6))
	}
	if v6[0].To4() != nil {
		t.Errorf("FilterIPv6() returned IPv4 address %v", v6[0])
	}
}

func TestLANAddress(t *testing.T) {
	ip := LANAddress()
	if ip == nil {
		t.Fatal("LANAddress() = nil")
	}
	// Whatever the host looks like, the fallback guarantees an address.
	if ip.IsMulticast() {
		t.Errorf("LANAddress() = %v, want unicast", ip)
	}
}
