package discovery

import (
	"net"
	"sort"
)

// SortIPsByPreference orders addresses for reaching a border agent.
// Priority order (highest to lowest):
//  1. Global unicast IPv6
//  2. Unique local IPv6 (fc00::/7), which includes mesh-local prefixes
//  3. Link-local IPv6 (fe80::/10)
//  4. IPv4
func SortIPsByPreference(ips []net.IP) []net.IP {
	if len(ips) <= 1 {
		return ips
	}

	sorted := make([]net.IP, len(ips))
	copy(sorted, ips)

	sort.SliceStable(sorted, func(i, j int) bool {
		return ipPriority(sorted[i]) < ipPriority(sorted[j])
	})
	return sorted
}

// ipPriority returns the priority of an IP address (lower is better).
func ipPriority(ip net.IP) int {
	ip = ip.To16()
	if ip == nil {
		return 99
	}
	if ip.To4() != nil {
		return 50
	}

	switch {
	case isUniqueLocal(ip):
		return 1
	case ip.IsGlobalUnicast():
		return 0
	case ip.IsLinkLocalUnicast():
		return 2
	case ip.IsLoopback():
		return 80
	case ip.IsMulticast():
		return 90
	}
	return 10
}

// isUniqueLocal returns true for fc00::/7.
func isUniqueLocal(ip net.IP) bool {
	ip = ip.To16()
	if ip == nil || ip.To4() != nil {
		return false
	}
	return ip[0]&0xfe == 0xfc
}
