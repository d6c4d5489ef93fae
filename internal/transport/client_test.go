package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewClient tests the Client constructor.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("no proxy creates direct client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.ProxyAddress() != "" {
			t.Errorf("expected no proxy, got %q", client.ProxyAddress())
		}
		if client.Timeout() != DefaultTimeout {
			t.Errorf("expected default timeout, got %v", client.Timeout())
		}
	})

	t.Run("valid proxy address creates client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(Options{Timeout: 5 * time.Second, ProxyAddress: "127.0.0.1:1080"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.ProxyAddress() != "127.0.0.1:1080" {
			t.Errorf("ProxyAddress() = %q", client.ProxyAddress())
		}
		if client.Timeout() != 5*time.Second {
			t.Errorf("Timeout() = %v", client.Timeout())
		}
	})
}

// TestIsValidProxyAddress tests the proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid IPv4 with port", "127.0.0.1:1080", true},
		{"valid hostname with port", "proxy.example.com:1080", true},
		{"valid IPv6 with port", "[::1]:1080", true},
		{"no port", "127.0.0.1", false},
		{"empty host", ":1080", false},
		{"empty port", "127.0.0.1:", false},
		{"port zero", "127.0.0.1:0", false},
		{"port too large", "127.0.0.1:70000", false},
		{"non-numeric port", "127.0.0.1:socks", false},
		{"multiple colons", "127.0.0.1:1080:extra", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tc.address); got != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}

	t.Run("constructor rejects invalid address", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient(Options{ProxyAddress: "nope"})
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// TestHTTPClient tests HTTP client configuration.
func TestHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("direct client fetches pages", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		client, err := NewClient(Options{Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		httpClient := client.HTTPClient()
		if httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v", httpClient.Timeout)
		}
		if httpClient.Jar == nil {
			t.Error("expected cookie jar")
		}
		if httpClient.CheckRedirect == nil {
			t.Error("expected redirect policy")
		}

		resp, err := httpClient.Get(server.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // test
		if string(body) != "ok" {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("proxy client dials through proxy", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(Options{ProxyAddress: "127.0.0.1:1080"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		transport, ok := client.HTTPClient().Transport.(*http.Transport)
		if !ok {
			t.Fatal("expected *http.Transport")
		}
		if transport.DialContext == nil {
			t.Error("expected SOCKS5 dial function")
		}
		if transport.Proxy != nil {
			t.Error("environment proxy must be disabled when SOCKS5 is set")
		}
	})

	t.Run("redirect limit returns last response", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		via := make([]*http.Request, maxRedirects)
		if err := client.HTTPClient().CheckRedirect(nil, via); !errors.Is(err, http.ErrUseLastResponse) {
			t.Errorf("expected ErrUseLastResponse, got %v", err)
		}
	})
}

// fakeProxy accepts one connection on a local port and passes it to handle.
func fakeProxy(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()
	return ln.Addr().String()
}

// TestCheckProxy tests the SOCKS5 handshake check.
func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("no proxy is OK", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status := client.CheckProxy(context.Background()); status != ProxyStatusOK {
			t.Errorf("expected OK, got %s", status)
		}
	})

	t.Run("SOCKS5 proxy is OK", func(t *testing.T) {
		t.Parallel()

		addr := fakeProxy(t, func(conn net.Conn) {
			greeting := make([]byte, 3)
			if _, err := io.ReadFull(conn, greeting); err != nil {
				return
			}
			_, _ = conn.Write([]byte{socks5Version, socks5AuthNone})

			header := make([]byte, 5)
			if _, err := io.ReadFull(conn, header); err != nil {
				return
			}
			rest := make([]byte, int(header[4])+2)
			if _, err := io.ReadFull(conn, rest); err != nil {
				return
			}
			// Host unreachable still proves a working proxy.
			_, _ = conn.Write([]byte{socks5Version, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		})

		client, err := NewClient(Options{ProxyAddress: addr})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status := client.CheckProxy(context.Background()); status != ProxyStatusOK {
			t.Errorf("expected OK, got %s", status)
		}
	})

	t.Run("HTTP server is wrong type", func(t *testing.T) {
		t.Parallel()

		addr := fakeProxy(t, func(conn net.Conn) {
			greeting := make([]byte, 3)
			if _, err := io.ReadFull(conn, greeting); err != nil {
				return
			}
			_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
		})

		client, err := NewClient(Options{ProxyAddress: addr})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status := client.CheckProxy(context.Background()); status != ProxyStatusWrongType {
			t.Errorf("expected wrong type, got %s", status)
		}
	})

	t.Run("closed port cannot connect", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()

		client, err := NewClient(Options{ProxyAddress: addr})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		status := client.CheckProxy(context.Background())
		if status != ProxyStatusCannotConnect {
			t.Errorf("expected cannot connect, got %s", status)
		}
		if !errors.Is(status.Error(), ErrProxyCannotConnect) {
			t.Errorf("unexpected error %v", status.Error())
		}
	})
}

// TestProxyStatus tests ProxyStatus String and Error methods.
func TestProxyStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status      ProxyStatus
		name        string
		expectedErr error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusWrongType, "wrong type (not SOCKS5)", ErrProxyNotSOCKS5},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
	}

	for _, tc := range testCases {
		if tc.status.String() != tc.name {
			t.Errorf("ProxyStatus(%d).String() = %q, expected %q", tc.status, tc.status.String(), tc.name)
		}
		if err := tc.status.Error(); !errors.Is(err, tc.expectedErr) {
			t.Errorf("ProxyStatus(%d).Error() = %v, expected %v", tc.status, err, tc.expectedErr)
		}
	}

	if ProxyStatus(99).String() != "unknown" || ProxyStatus(99).Error() == nil {
		t.Error("unknown status must report unknown and an error")
	}
}
