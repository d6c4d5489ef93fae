package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("returns prepared body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("  <html>\r\n<body>ok</body>\r\n</html>\n"))
		}))
		defer server.Close()

		got, err := NewHTTPFetcher(server.Client()).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "<html><body>ok</body></html>"; got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<p>Caf\xe9</p>"))
		}))
		defer server.Close()

		got, err := NewHTTPFetcher(server.Client()).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "Café") {
			t.Errorf("expected decoded text, got %q", got)
		}
	})

	t.Run("sends user agent and site headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotCookie string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCookie = r.Header.Get("Cookie")
			_, _ = w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(server.Client(),
			WithUserAgent("test-agent/1.0"),
			WithHeaders(func(host string) map[string]string {
				if host == "127.0.0.1" {
					return map[string]string{"Cookie": "over18=1"}
				}
				return nil
			}),
		)
		if _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotUA != "test-agent/1.0" {
			t.Errorf("expected custom user agent, got %q", gotUA)
		}
		if gotCookie != "over18=1" {
			t.Errorf("expected site cookie, got %q", gotCookie)
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("a", 100)))
		}))
		defer server.Close()

		got, err := NewHTTPFetcher(server.Client(), WithMaxBodySize(10)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 10 {
			t.Errorf("expected 10 bytes, got %d", len(got))
		}
	})

	t.Run("not found is resource unavailable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, err := NewHTTPFetcher(server.Client()).Fetch(context.Background(), server.URL+"/user/notARealUser")
		if !errors.Is(err, ErrResourceUnavailable) {
			t.Errorf("expected ErrResourceUnavailable, got %v", err)
		}
		if errors.Is(err, ErrConnectionRefused) {
			t.Error("status errors must not be connection refused")
		}
	})

	t.Run("closed port is connection refused", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		_, err := NewHTTPFetcher(nil).Fetch(context.Background(), addr)
		if !errors.Is(err, ErrConnectionRefused) {
			t.Errorf("expected ErrConnectionRefused, got %v", err)
		}
	})

	t.Run("canceled context keeps cause", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewHTTPFetcher(server.Client()).Fetch(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
	})
}
