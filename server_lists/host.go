package server_lists

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// HostError is returned when a host string, whether from the directory
// source or from a referral line, is not a valid `host[:port]`.
type HostError struct {
	Input string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("invalid host string: %q", e.Input)
}

// Host is the address of a WHOIS server: a domain name or an IP address,
// with an optional port.
type Host struct {
	Domain  string     // set when the host is a domain name
	IP      netip.Addr // set when the host is an IP address
	Port    uint16
	HasPort bool
}

// IsIP reports whether the host is an IP address rather than a domain name.
func (h Host) IsIP() bool {
	return h.IP.IsValid()
}

// String returns the host without any port.
func (h Host) String() string {
	if h.IsIP() {
		return h.IP.String()
	}
	return h.Domain
}

// Address returns the `host:port` connection string, falling back to
// defaultPort when the host carries no port. IPv6 addresses are bracketed.
func (h Host) Address(defaultPort uint16) string {
	port := defaultPort
	if h.HasPort {
		port = h.Port
	}
	return net.JoinHostPort(h.String(), strconv.Itoa(int(port)))
}

// ParseHost parses a bare `host[:port]` string. The host may be a domain
// name, an IPv4 address, or an IPv6 address (bracketed when a port is
// attached).
func ParseHost(s string) (Host, error) {
	input := s
	if s == "" {
		return Host{}, &HostError{Input: input}
	}

	var port uint16
	hasPort := false

	switch {
	case strings.HasPrefix(s, "["):
		// Bracketed IPv6, with or without a port.
		if h, p, err := net.SplitHostPort(s); err == nil {
			n, err := parsePort(p)
			if err != nil {
				return Host{}, &HostError{Input: input}
			}
			port, hasPort = n, true
			s = h
		} else {
			s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		}
		ip, err := netip.ParseAddr(s)
		if err != nil || !ip.Is6() {
			return Host{}, &HostError{Input: input}
		}
		return Host{IP: ip, Port: port, HasPort: hasPort}, nil

	case strings.Count(s, ":") >= 2:
		// Bare IPv6, no port possible without brackets.
		ip, err := netip.ParseAddr(s)
		if err != nil {
			return Host{}, &HostError{Input: input}
		}
		return Host{IP: ip}, nil

	case strings.Count(s, ":") == 1:
		i := strings.IndexByte(s, ':')
		n, err := parsePort(s[i+1:])
		if err != nil {
			return Host{}, &HostError{Input: input}
		}
		port, hasPort = n, true
		s = s[:i]
	}

	if ip, err := netip.ParseAddr(s); err == nil {
		return Host{IP: ip, Port: port, HasPort: hasPort}, nil
	}

	domain := strings.ToLower(strings.TrimSuffix(s, "."))
	if !validDomain(domain) {
		return Host{}, &HostError{Input: input}
	}
	return Host{Domain: domain, Port: port, HasPort: hasPort}, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	return uint16(n), err
}

// validDomain checks RFC 1035 label syntax: dot-separated labels of
// letters, digits and inner hyphens, 63 octets per label, 253 total.
func validDomain(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c >= 'A' && c <= 'Z' {
				continue
			}
			return false
		}
	}
	return true
}
