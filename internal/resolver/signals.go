package resolver

import (
	"net"
	"strings"
)

// NormalizeHost lower-cases h and drops the port and a leading "www.".
func NormalizeHost(h string) string {
	return strings.TrimPrefix(StripPort(strings.ToLower(strings.TrimSpace(h))), "www.")
}

// StripPort removes :port from a Host header value.  IPv6 literals lose
// their brackets: "[::1]:8080" and "[::1]" both yield "::1".
func StripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		return h[1 : len(h)-1]
	}
	return h
}
