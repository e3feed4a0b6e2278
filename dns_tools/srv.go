// Package dns_tools discovers WHOIS servers for suffixes that are absent
// from the static directory, using DNS SRV records as described in RFC 3912.
package dns_tools

import (
	"context"
	"log"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/KincaidYang/whois-engine/server_lists"
	"github.com/KincaidYang/whois-engine/utils"
)

// srvPrefix is the WHOIS service label: a registry may publish its server
// as an SRV record at _nicname._tcp.<suffix>.
const srvPrefix = "_nicname._tcp."

var srvDiscoveries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "whois_srv_discoveries_total",
	Help: "WHOIS servers discovered through DNS SRV records.",
})

// Resolver performs SRV-based WHOIS server discovery against a configured
// DNS server. Discovered hosts are shared through the cache so other
// instances reuse them without their own SRV round trip; failed discoveries
// are not cached and will re-query DNS.
type Resolver struct {
	server   string
	client   *dns.Client
	cache    utils.Cache // optional
	cacheTTL time.Duration
}

// NewResolver returns a Resolver querying the given DNS server (port 53 is
// assumed when none is given). cache may be nil.
func NewResolver(server string, cache utils.Cache, cacheTTL time.Duration) *Resolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &Resolver{
		server:   server,
		client:   new(dns.Client),
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Augment walks the suffix chain of domain, from longest to the empty
// suffix, querying an SRV record for each. The first discovered server is
// inserted into dir under the suffix that produced it. It reports whether
// the directory was extended; on failure the directory is left unchanged.
func (r *Resolver) Augment(ctx context.Context, dir *server_lists.Directory, domain string) bool {
	suffix := strings.ToLower(domain)
	for {
		if host, ok := r.discover(ctx, suffix); ok {
			sv, err := server_lists.ServerValueFromString(host)
			if err == nil {
				dir.Insert(suffix, sv)
				srvDiscoveries.Inc()
				log.Printf("Discovered WHOIS server %s for suffix %q via SRV\n", host, suffix)
				return true
			}
			log.Printf("Ignoring SRV target %q for suffix %q: %v\n", host, suffix, err)
		}
		if suffix == "" {
			return false
		}
		if i := strings.IndexByte(suffix, '.'); i >= 0 {
			suffix = suffix[i+1:]
		} else {
			suffix = ""
		}
	}
}

// discover resolves the SRV record for a single suffix, consulting the
// shared cache first. It returns the bare host of the first answer.
func (r *Resolver) discover(ctx context.Context, suffix string) (string, bool) {
	key := "srv:" + suffix
	if r.cache != nil {
		if res, err := r.cache.Get(ctx, key); err == nil && res.Found {
			return res.Data, true
		}
	}

	name := srvPrefix
	if suffix != "" {
		name += suffix + "."
	}

	m := new(dns.Msg)
	m.SetQuestion(name, dns.TypeSRV)
	reply, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil || reply.Rcode != dns.RcodeSuccess {
		return "", false
	}

	for _, rr := range reply.Answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}
		host := strings.TrimSuffix(srv.Target, ".")
		if host == "" {
			continue
		}
		if r.cache != nil {
			if err := r.cache.Set(ctx, key, host, r.cacheTTL); err != nil {
				log.Printf("Failed to cache discovered server for suffix %q: %v\n", suffix, err)
			}
		}
		return host, true
	}
	return "", false
}
