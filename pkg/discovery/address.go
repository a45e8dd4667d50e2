package discovery

import (
	"net"
	"sort"
)

// SortIPsByPreference sorts IP addresses by dialing preference for a LAN
// deployment. Priority order (highest to lowest):
//  1. Private IPv4 (RFC 1918) - the typical tactical LAN address
//  2. Other IPv4
//  3. IPv6 global unicast
//  4. IPv6 unique local (fc00::/7)
//  5. IPv6 link-local
//  6. Loopback and multicast last
func SortIPsByPreference(ips []net.IP) []net.IP {
	if len(ips) <= 1 {
		return ips
	}

	// Make a copy to avoid modifying the original slice
	sorted := make([]net.IP, len(ips))
	copy(sorted, ips)

	sort.SliceStable(sorted, func(i, j int) bool {
		return ipPriority(sorted[i]) < ipPriority(sorted[j])
	})

	return sorted
}

// ipPriority returns the priority of an IP address (lower is better).
func ipPriority(ip net.IP) int {
	norm := ip.To16()
	if norm == nil {
		return 99 // Invalid
	}

	if ip4 := norm.To4(); ip4 != nil {
		if ip4.IsLoopback() {
			return 80
		}
		if isPrivateIPv4(ip4) {
			return 0 // The LAN address devices actually dial
		}
		return 1
	}

	switch {
	case norm.IsLoopback():
		return 80
	case norm.IsMulticast():
		return 90
	case isUniqueLocal(norm):
		return 3
	case norm.IsLinkLocalUnicast():
		return 4
	case norm.IsGlobalUnicast():
		return 2
	}
	return 10
}

// isPrivateIPv4 returns true for RFC 1918 addresses.
func isPrivateIPv4(ip4 net.IP) bool {
	switch {
	case ip4[0] == 10:
		return true
	case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
		return true
	case ip4[0] == 192 && ip4[1] == 168:
		return true
	}
	return false
}

// isUniqueLocal returns true if the IP is an IPv6 Unique Local Address.
// ULA range: fc00::/7 (fc00:: to fdff::)
func isUniqueLocal(ip net.IP) bool {
	ip = ip.To16()
	if ip == nil {
		return false
	}
	return ip[0] == 0xfc || ip[0] == 0xfd
}

// FilterIPv4 returns only IPv4 addresses from the slice.
func FilterIPv4(ips []net.IP) []net.IP {
	var result []net.IP
	for _, ip := range ips {
		if ip.To4() != nil {
			result = append(result, ip)
		}
	}
	return result
}

// FilterIPv6 returns only IPv6 addresses from the slice.
func FilterIPv6(ips []net.IP) []net.IP {
	var result []net.IP
	for _, ip := range ips {
		if ip.To4() == nil && ip.To16() != nil {
			result = append(result, ip)
		}
	}
	return result
}

// GetLocalAddresses returns all non-loopback IP addresses on the host.
func GetLocalAddresses() ([]net.IP, error) {
	var addresses []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		// Skip down or loopback interfaces
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			if ip != nil && !ip.IsLoopback() {
				addresses = append(addresses, ip)
			}
		}
	}

	return addresses, nil
}

// LANAddress returns the host address a LAN peer would dial, preferring
// private IPv4. Falls back to the IPv4 loopback when the host has no
// usable interface address.
func LANAddress() net.IP {
	addresses, err := GetLocalAddresses()
	if err != nil || len(addresses) == 0 {
		return net.IPv4(127, 0, 0, 1)
	}
	return SortIPsByPreference(addresses)[0]
}
