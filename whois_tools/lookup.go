// Package whois_tools implements the WHOIS resolution engine: server
// selection against the directory, timeout-bounded query execution, and
// referral chasing with a hop budget.
package whois_tools

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/KincaidYang/whois-engine/server_lists"
)

const (
	// DefaultFollow is the number of referrals a lookup follows.
	DefaultFollow = 2
	// DefaultTimeout bounds connect, write and read individually at each hop.
	DefaultTimeout = 60 * time.Second
)

// reReferral matches a referral line anywhere in a response. Group 3
// captures the remainder of the line as the candidate next host. Compiled
// once, shared read-only.
var reReferral = regexp.MustCompile(`(ReferralServer|Registrar Whois|Whois Server|WHOIS Server|Registrar WHOIS Server):[^\S\n]*(r?whois://)?(.*)`)

// LookupOptions configures a single resolution. Passed by value; immutable
// during the call.
type LookupOptions struct {
	// Target is the domain or IP to resolve.
	Target Target
	// Server, when non-nil, bypasses directory selection.
	Server *server_lists.ServerValue
	// Follow is the referral hop budget.
	Follow uint16
	// Timeout bounds connect, write and read individually at every hop.
	// Zero disables deadlines entirely.
	Timeout time.Duration
}

// NewLookupOptions returns options for target with the default hop budget
// and timeout.
func NewLookupOptions(target Target) LookupOptions {
	return LookupOptions{
		Target:  target,
		Follow:  DefaultFollow,
		Timeout: DefaultTimeout,
	}
}

// Client resolves lookups against a server directory.
type Client struct {
	directory *server_lists.Directory
}

// NewClient returns a Client backed by dir.
func NewClient(dir *server_lists.Directory) *Client {
	return &Client{directory: dir}
}

// Lookup resolves opts, blocking the calling goroutine for the duration of
// every hop. It is safe for concurrent use.
func (c *Client) Lookup(opts LookupOptions) (string, error) {
	return c.LookupContext(context.Background(), opts)
}

// LookupContext resolves opts under ctx. Cancelling ctx closes the in-flight
// socket. The returned string is the raw response text of the final server,
// after following at most opts.Follow referrals.
func (c *Client) LookupContext(ctx context.Context, opts LookupOptions) (string, error) {
	var server server_lists.ServerValue
	switch {
	case opts.Server != nil:
		server = *opts.Server
	case opts.Target.IsIP():
		server = c.directory.ForIP()
	default:
		sv, ok := c.directory.ForSuffix(opts.Target.Domain())
		if !ok {
			lookupsTotal.WithLabelValues("no_server").Inc()
			return "", ErrNoServerKnown
		}
		server = sv
	}

	text := opts.Target.QueryText()

	response, addr, err := queryServer(ctx, server, text, opts.Timeout)
	if err != nil {
		lookupsTotal.WithLabelValues("io_error").Inc()
		return "", err
	}

	// Bounded referral chase: the budget strictly decreases, so a lookup
	// performs at most opts.Follow+1 round trips no matter what the servers
	// answer.
	for follow := opts.Follow; follow > 0; follow-- {
		host, ok := referralHost(response, addr)
		if !ok {
			break
		}
		next, err := server_lists.ServerValueFromString(host)
		if err != nil {
			// Malformed referral: the current response is the best answer.
			break
		}
		referralsFollowed.Inc()
		response, addr, err = queryServer(ctx, next, text, opts.Timeout)
		if err != nil {
			lookupsTotal.WithLabelValues("io_error").Inc()
			return "", err
		}
	}

	lookupsTotal.WithLabelValues("ok").Inc()
	return response, nil
}

// referralHost extracts the referral target from a response. A referral
// pointing back at addr, the address the response came from, is ignored to
// avoid looping against the same server.
func referralHost(response, addr string) (string, bool) {
	m := reReferral.FindStringSubmatch(response)
	if m == nil {
		return "", false
	}
	host := strings.TrimSpace(m[3])
	if host == "" || host == addr {
		return "", false
	}
	return host, true
}
