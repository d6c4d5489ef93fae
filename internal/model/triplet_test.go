package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// TestTriplet tests the Triplet accessors and JSON shape.
func TestTriplet(t *testing.T) {
	t.Parallel()

	t.Run("fields keep order", func(t *testing.T) {
		t.Parallel()

		tr := NewTriplet("title", "https://example.com/p", "golang")
		got := tr.Fields()
		if got != [3]string{"title", "https://example.com/p", "golang"} {
			t.Errorf("unexpected fields %v", got)
		}
		if tr.Len() != 3 {
			t.Errorf("expected length 3, got %d", tr.Len())
		}
	})

	t.Run("zero value has three empty fields", func(t *testing.T) {
		t.Parallel()

		var tr Triplet
		if tr.Len() != 3 || tr.Label() != "" || tr.Value() != "" || tr.Metadata() != "" {
			t.Errorf("unexpected zero triplet %v", tr)
		}
	})

	t.Run("encodes as array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal([]Triplet{NewTriplet("a", "b", "c")})
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if want := `[["a","b","c"]]`; string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("decode rejects wrong arity", func(t *testing.T) {
		t.Parallel()

		tests := []string{`["a","b"]`, `["a","b","c","d"]`, `[]`}
		for _, input := range tests {
			var tr Triplet
			if err := json.Unmarshal([]byte(input), &tr); !errors.Is(err, ErrTripletShape) {
				t.Errorf("%s: expected ErrTripletShape, got %v", input, err)
			}
		}
	})

	t.Run("decode rejects non-strings", func(t *testing.T) {
		t.Parallel()

		var tr Triplet
		if err := json.Unmarshal([]byte(`[1,2,3]`), &tr); err == nil {
			t.Error("expected error for numeric fields")
		}
	})
}

// TestRunSummary tests the RunSummary helpers.
func TestRunSummary(t *testing.T) {
	t.Parallel()

	t.Run("duration of finished run", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		s := &RunSummary{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
		if s.Duration() != 1500*time.Millisecond {
			t.Errorf("unexpected duration %v", s.Duration())
		}
	})

	t.Run("unfinished run has zero duration", func(t *testing.T) {
		t.Parallel()

		s := &RunSummary{StartedAt: time.Now()}
		if s.Duration() != 0 {
			t.Errorf("expected zero, got %v", s.Duration())
		}
	})

	t.Run("failed status", func(t *testing.T) {
		t.Parallel()

		if !(&RunSummary{Status: RunStatusFailed}).Failed() {
			t.Error("expected failed")
		}
		if (&RunSummary{Status: RunStatusDone}).Failed() {
			t.Error("expected not failed")
		}
	})
}
