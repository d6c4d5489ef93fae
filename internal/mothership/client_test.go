package mothership

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nao1215/usercrawl/internal/model"
)

// TestSubmit tests result submission against a fake mothership.
func TestSubmit(t *testing.T) {
	t.Parallel()

	results := []model.Triplet{
		model.NewTriplet("Writing a crawler in Go", "https://old.reddit.com/r/golang/comments/7a1b2c/", "golang"),
		model.NewTriplet("Why queues beat recursion", "https://old.reddit.com/r/programming/comments/dx9y8z/", "programming"),
	}

	t.Run("posts worker and triplets", func(t *testing.T) {
		t.Parallel()

		var got struct {
			Worker  string      `json:"worker"`
			Results [][3]string `json:"results"`
		}
		var gotAuth, gotPath, gotMethod string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			gotMethod = r.Method
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"accepted": 2, "id": "batch-1"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL+"/", WithHTTPClient(server.Client()), WithToken("tok"))
		ack, err := client.Submit(context.Background(), "https://old.reddit.com/user/Chrikelnel", results)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotMethod != http.MethodPost || gotPath != "/results" {
			t.Errorf("unexpected request %s %s", gotMethod, gotPath)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", gotAuth)
		}
		if got.Worker != "https://old.reddit.com/user/Chrikelnel" {
			t.Errorf("unexpected worker %q", got.Worker)
		}
		if len(got.Results) != 2 || got.Results[0][2] != "golang" {
			t.Errorf("unexpected results %v", got.Results)
		}
		if ack.Accepted != 2 || ack.ID != "batch-1" {
			t.Errorf("unexpected ack %+v", ack)
		}
	})

	t.Run("empty success body accepts everything", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		ack, err := NewClient(server.URL, WithHTTPClient(server.Client())).Submit(context.Background(), "w", results)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ack.Accepted != len(results) {
			t.Errorf("expected %d accepted, got %d", len(results), ack.Accepted)
		}
	})

	t.Run("empty JSON success body accepts everything", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ack, err := NewClient(server.URL, WithHTTPClient(server.Client())).Submit(context.Background(), "w", results)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ack.Accepted != len(results) {
			t.Errorf("expected %d accepted, got %d", len(results), ack.Accepted)
		}
	})

	t.Run("undecodable acknowledgement is not unreachable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"accepted": "two"`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, WithHTTPClient(server.Client())).Submit(context.Background(), "w", results)
		if !errors.Is(err, ErrInvalidAck) {
			t.Fatalf("expected ErrInvalidAck, got %v", err)
		}
		if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrRejected) {
			t.Errorf("decode failure must keep its own kind: %v", err)
		}
	})

	t.Run("non-2xx is rejected without retry", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": "collector paused"}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, WithHTTPClient(server.Client())).Submit(context.Background(), "w", results)
		if !errors.Is(err, ErrRejected) {
			t.Fatalf("expected ErrRejected, got %v", err)
		}
		if errors.Is(err, ErrUnreachable) {
			t.Error("rejection must not be unreachable")
		}
		if calls.Load() != 1 {
			t.Errorf("expected exactly one request, got %d", calls.Load())
		}
	})

	t.Run("closed port is unreachable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		_, err := NewClient(addr).Submit(context.Background(), "w", results)
		if !errors.Is(err, ErrUnreachable) {
			t.Errorf("expected ErrUnreachable, got %v", err)
		}
	})

	t.Run("nil results are sent as empty array", func(t *testing.T) {
		t.Parallel()

		var body map[string]json.RawMessage
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		if _, err := NewClient(server.URL, WithHTTPClient(server.Client())).Submit(context.Background(), "w", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body["results"]) != "[]" {
			t.Errorf("expected empty array, got %s", body["results"])
		}
	})
}

// TestPing tests the health check.
func TestPing(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				http.NotFound(w, r)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		if err := NewClient(server.URL).Ping(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if err := NewClient(server.URL).Ping(context.Background()); !errors.Is(err, ErrRejected) {
			t.Errorf("expected ErrRejected, got %v", err)
		}
	})
}
