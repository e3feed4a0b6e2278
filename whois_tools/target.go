package whois_tools

import (
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"
)

// domainProfile maps and validates domain targets. VerifyDNSLength rejects
// empty labels and over-long names, which the package-level Lookup profile
// lets through.
var domainProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(true),
	idna.VerifyDNSLength(true),
)

// Target is a validated lookup subject: either a domain name (ASCII,
// punycode-normalized, no port or scheme) or an IP address. The zero Target
// is invalid.
type Target struct {
	domain string
	ip     netip.Addr
}

// ParseTarget validates and normalizes a raw string into a Target. IP
// address literals are accepted as-is; anything else must be a well-formed
// domain name, which is lowercased and punycode-encoded.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("empty target")
	}

	if ip, err := netip.ParseAddr(s); err == nil {
		return Target{ip: ip}, nil
	}

	if strings.ContainsAny(s, ":/ ") {
		return Target{}, fmt.Errorf("invalid target %q: a domain must not carry a scheme or port", s)
	}

	ascii, err := domainProfile.ToASCII(strings.ToLower(strings.TrimSuffix(s, ".")))
	if err != nil {
		return Target{}, fmt.Errorf("invalid target %q: %w", s, err)
	}
	return Target{domain: ascii}, nil
}

// IsIP reports whether the target is an IP address.
func (t Target) IsIP() bool {
	return t.ip.IsValid()
}

// Domain returns the normalized domain name, or "" for an IP target.
func (t Target) Domain() string {
	return t.domain
}

// QueryText returns the text sent to the WHOIS server: the canonical address
// form for IPs (unbracketed, since brackets are a URI convention rather than
// query payload), or the normalized domain.
func (t Target) QueryText() string {
	if t.IsIP() {
		return t.ip.String()
	}
	return t.domain
}

func (t Target) String() string {
	return t.QueryText()
}
