package handle_resources

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KincaidYang/whois-engine/server_lists"
	"github.com/KincaidYang/whois-engine/whois_tools"
)

// startMockWhoisServer answers every connection with response after reading
// the query line.
func startMockWhoisServer(t *testing.T, response string) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				bufio.NewReader(c).ReadString('\n')
				c.Write([]byte(response))
			}(conn)
		}
	}()
	t.Cleanup(func() { listener.Close() })
	return listener.Addr().String()
}

func testHandler(t *testing.T, source string) *LookupHandler {
	t.Helper()
	dir, err := server_lists.FromBytes([]byte(source))
	if err != nil {
		t.Fatalf("failed to build directory: %v", err)
	}
	return &LookupHandler{
		Client:    whois_tools.NewClient(dir),
		Directory: dir,
	}
}

func TestLookupHandler(t *testing.T) {
	addr := startMockWhoisServer(t, "Domain Name: EXAMPLE.ORG\r\n")
	handler := testHandler(t, fmt.Sprintf(`{"org": %q, "_": {"ip": %q}}`, addr, addr))

	req := httptest.NewRequest(http.MethodGet, "/example.org", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q; want text/plain", ct)
	}
	if got := rec.Body.String(); got != "Domain Name: EXAMPLE.ORG\r\n" {
		t.Errorf("body = %q", got)
	}
}

func TestLookupHandlerReducesToRegistrableDomain(t *testing.T) {
	addr := startMockWhoisServer(t, "ok")
	handler := testHandler(t, fmt.Sprintf(`{"org": %q, "_": {"ip": %q}}`, addr, addr))

	req := httptest.NewRequest(http.MethodGet, "/www.example.org", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestLookupHandlerIP(t *testing.T) {
	addr := startMockWhoisServer(t, "NetRange: 8.0.0.0 - 8.127.255.255\r\n")
	handler := testHandler(t, fmt.Sprintf(`{"_": {"ip": %q}}`, addr))

	req := httptest.NewRequest(http.MethodGet, "/8.8.8.8", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestLookupHandlerErrors(t *testing.T) {
	handler := testHandler(t, `{"_": {"ip": "whois.arin.net"}}`)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/", http.StatusBadRequest},
		{"/not%20a%20domain", http.StatusBadRequest},
		{"/example.org?follow=notanumber", http.StatusBadRequest},
		{"/example.org?server=bad%20host", http.StatusBadRequest},
		{"/example.org", http.StatusNotFound}, // no entry, no catch-all
	}

	for _, test := range tests {
		req := httptest.NewRequest(http.MethodGet, test.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != test.wantStatus {
			t.Errorf("GET %s: status = %d; want %d", test.path, rec.Code, test.wantStatus)
		}
	}
}
