package resolver

import "strings"

// NormalizeHost prepares a raw Host header for lookup: strips the port
// (IPv6-safe), trims whitespace and a trailing dot, and lowercases.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)

	if idx := strings.LastIndex(host, ":"); idx != -1 {
		// Keep IPv6 literals like "[::1]" intact.
		if !strings.Contains(host[idx:], "]") {
			host = host[:idx]
		}
	}

	return strings.ToLower(strings.TrimSuffix(host, "."))
}
