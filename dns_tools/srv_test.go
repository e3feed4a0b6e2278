package dns_tools

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/KincaidYang/whois-engine/server_lists"
	"github.com/KincaidYang/whois-engine/utils"
)

// startMockDNS serves SRV answers from the records map, keyed by fully
// qualified query name; everything else gets NXDOMAIN.
func startMockDNS(t *testing.T, records map[string]string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start mock DNS server: %v", err)
	}

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)

		q := req.Question[0]
		if target, ok := records[q.Name]; ok && q.Qtype == dns.TypeSRV {
			m.Answer = append(m.Answer, &dns.SRV{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeSRV,
					Class:  dns.ClassINET,
					Ttl:    300,
				},
				Port:   43,
				Target: target,
			})
		} else {
			m.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		Handler:           handler,
		NotifyStartedFunc: func() { close(started) },
	}
	go server.ActivateAndServe()
	t.Cleanup(func() { server.Shutdown() })
	<-started

	return pc.LocalAddr().String()
}

func testDirectory(t *testing.T) *server_lists.Directory {
	t.Helper()
	dir, err := server_lists.FromBytes([]byte(`{"_": {"ip": "whois.arin.net"}}`))
	if err != nil {
		t.Fatalf("failed to build directory: %v", err)
	}
	return dir
}

func TestNewResolverServerAddress(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"1.1.1.1", "1.1.1.1:53"},
		{"1.1.1.1:5353", "1.1.1.1:5353"},
		{"dns.example.net", "dns.example.net:53"},
		{"2001:db8::1", "[2001:db8::1]:53"},
		{"[2001:db8::1]:5353", "[2001:db8::1]:5353"},
	}

	for _, test := range tests {
		r := NewResolver(test.server, nil, time.Minute)
		if r.server != test.want {
			t.Errorf("NewResolver(%q) server = %q; want %q", test.server, r.server, test.want)
		}
	}
}

func TestAugmentWalksSuffixChain(t *testing.T) {
	addr := startMockDNS(t, map[string]string{
		"_nicname._tcp.example.": "whois.nic.example.",
	})

	dir := testDirectory(t)
	resolver := NewResolver(addr, nil, time.Minute)

	// foo.example has no SRV record; the walk must find the one at example.
	if !resolver.Augment(context.Background(), dir, "foo.example") {
		t.Fatal("Augment reported failure")
	}

	sv, ok := dir.ForSuffix("bar.example")
	if !ok {
		t.Fatal("directory was not extended")
	}
	if got := sv.Host.String(); got != "whois.nic.example" {
		t.Errorf("inserted host = %q; want whois.nic.example", got)
	}
	if sv.Query != "" || !sv.Punycode {
		t.Errorf("inserted descriptor should take defaults, got %+v", sv)
	}
}

func TestAugmentFailureLeavesDirectoryUnchanged(t *testing.T) {
	addr := startMockDNS(t, nil)

	dir := testDirectory(t)
	resolver := NewResolver(addr, nil, time.Minute)

	if resolver.Augment(context.Background(), dir, "foo.nomatch") {
		t.Fatal("Augment reported success with no SRV records anywhere")
	}
	if got := dir.Suffixes(); len(got) != 0 {
		t.Errorf("directory gained entries on failure: %v", got)
	}
}

func TestAugmentSharesDiscoveriesThroughCache(t *testing.T) {
	addr := startMockDNS(t, map[string]string{
		"_nicname._tcp.example.": "whois.nic.example.",
	})

	cache := utils.NewMemoryCache(100, 0)
	resolver := NewResolver(addr, cache, time.Minute)

	if !resolver.Augment(context.Background(), testDirectory(t), "foo.example") {
		t.Fatal("Augment reported failure")
	}

	result, err := cache.Get(context.Background(), "srv:example")
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	if !result.Found || result.Data != "whois.nic.example" {
		t.Errorf("discovery was not cached, got %+v", result)
	}

	// A second resolver with the same cache must answer without DNS: point
	// it at an address nobody listens on.
	cached := NewResolver("127.0.0.1:1", cache, time.Minute)
	dir := testDirectory(t)
	if !cached.Augment(context.Background(), dir, "quux.example") {
		t.Fatal("Augment ignored the shared cache")
	}
	if _, ok := dir.ForSuffix("web.example"); !ok {
		t.Error("directory was not extended from the cached discovery")
	}
}
