package whois_tools

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/KincaidYang/whois-engine/server_lists"
)

// defaultPort is the WHOIS port from RFC 3912.
const defaultPort = 43

// queryServer performs one WHOIS round trip: connect to the server, write
// the formatted query, read until the peer closes the connection. It returns
// the response text together with the literal `host:port` string used to
// connect, which the referral loop needs for its self-referral guard.
//
// A non-zero timeout bounds connect, write and read individually, not the
// round trip as a whole. Cancelling ctx closes the socket.
func queryServer(ctx context.Context, server server_lists.ServerValue, text string, timeout time.Duration) (string, string, error) {
	addr := server.Host.Address(defaultPort)

	start := time.Now()
	conn, err := dialServer(ctx, addr, timeout)
	if err != nil {
		return "", addr, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if server.Punycode {
		if ascii, err := idna.ToASCII(text); err == nil {
			text = ascii
		}
	}
	template := server.Query
	if template == "" {
		template = server_lists.DefaultQuery
	}
	query := strings.ReplaceAll(template, "$addr", text)

	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return "", addr, err
		}
	}
	if _, err := conn.Write([]byte(query)); err != nil {
		return "", addr, err
	}

	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return "", addr, err
		}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		return "", addr, err
	}

	queryDuration.Observe(time.Since(start).Seconds())
	return buf.String(), addr, nil
}

// dialServer opens the TCP connection. With a timeout it resolves the host
// first and tries every candidate address, each under its own timeout,
// returning the last error if all fail; without one it performs a single
// blocking connect and leaves resolution implicit.
func dialServer(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	var dialer net.Dialer

	if timeout <= 0 {
		return dialer.DialContext(ctx, "tcp", addr)
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ips, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}

	dialer.Timeout = timeout

	var lastErr error
	for _, ip := range ips {
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip, port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
