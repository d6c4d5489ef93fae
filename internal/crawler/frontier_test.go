package crawler

import (
	"fmt"
	"testing"
)

// TestFrontier tests queue and crawled-set bookkeeping.
func TestFrontier(t *testing.T) {
	t.Parallel()

	t.Run("starts with the seed only", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(fixtureSeed, DefaultMaxLinks)
		if f.Len() != 1 {
			t.Fatalf("expected 1 queued URL, got %d", f.Len())
		}
		if f.CrawledLen() != 0 {
			t.Errorf("expected nothing crawled, got %d", f.CrawledLen())
		}
		if f.MaxLinks() != DefaultMaxLinks {
			t.Errorf("expected max links %d, got %d", DefaultMaxLinks, f.MaxLinks())
		}
	})

	t.Run("max links of zero makes Add a no-op", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(fixtureSeed, DefaultMaxLinks)
		f.SetMaxLinks(0)
		before := f.Len()

		if added := f.Add("https://test.com/"); added != 0 {
			t.Errorf("expected 0 added, got %d", added)
		}
		if f.Len() != before {
			t.Errorf("expected length %d, got %d", before, f.Len())
		}
	})

	t.Run("queue never exceeds max links", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier("", 5)
		for i := range 20 {
			f.Add(fmt.Sprintf("https://example.com/page/%d", i))
			if f.Len() > f.MaxLinks() {
				t.Fatalf("queue length %d exceeds max %d", f.Len(), f.MaxLinks())
			}
		}
		if f.Len() != 5 {
			t.Errorf("expected a full queue of 5, got %d", f.Len())
		}
	})

	t.Run("adding the same link twice queues it once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier("", DefaultMaxLinks)
		link := "https://example.com/a"
		f.Add(link)
		f.Add(link)

		count := 0
		for _, u := range f.Queue() {
			if u == link {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected %q once, found %d times", link, count)
		}
	})

	t.Run("crawled links are never queued", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(fixtureSeed, DefaultMaxLinks)
		seed, ok := f.Pop()
		if !ok {
			t.Fatal("expected seed to pop")
		}
		f.MarkCrawled(seed)

		if added := f.Add(fixtureSeed); added != 0 {
			t.Errorf("expected crawled seed to be skipped, added %d", added)
		}
		if f.IsQueued(fixtureSeed) {
			t.Error("crawled URL must not be queued")
		}
		if !f.IsCrawled(fixtureSeed) {
			t.Error("expected seed to be crawled")
		}
	})

	t.Run("equivalent spellings dedupe", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier("", DefaultMaxLinks)
		added := f.Add("HTTPS://Example.COM", "https://example.com/", "https://example.com/#top")
		if added != 1 {
			t.Errorf("expected 1 added, got %d: %v", added, f.Queue())
		}
	})

	t.Run("invalid candidates are skipped silently", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier("", DefaultMaxLinks)
		added := f.Add("", "   ", "test.com", "ftp://example.com/file", "://bad", "https://ok.example.com/")
		if added != 1 {
			t.Errorf("expected only the http(s) URL to be added, got %d: %v", added, f.Queue())
		}
	})

	t.Run("pop is FIFO", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier("https://example.com/1", DefaultMaxLinks)
		f.Add("https://example.com/2", "https://example.com/3")

		for _, want := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
			got, ok := f.Pop()
			if !ok {
				t.Fatal("expected a URL")
			}
			if got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		}
		if _, ok := f.Pop(); ok {
			t.Error("expected empty queue")
		}
	})

	t.Run("mark crawled happens exactly once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier("https://example.com/1", DefaultMaxLinks)
		if !f.MarkCrawled("https://example.com/1") {
			t.Error("expected first mark to succeed")
		}
		if f.MarkCrawled("https://example.com/1") {
			t.Error("expected second mark to be rejected")
		}
		if f.Len() != 0 {
			t.Errorf("expected marked URL to leave the queue, got %v", f.Queue())
		}
		if f.CrawledLen() != 1 {
			t.Errorf("expected 1 crawled, got %d", f.CrawledLen())
		}
	})

	t.Run("accessors return copies", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier("https://example.com/1", DefaultMaxLinks)
		q := f.Queue()
		q[0] = "mutated"
		if f.Queue()[0] != "https://example.com/1" {
			t.Error("Queue must return a copy")
		}
	})
}

// TestNormalizeURL tests URL normalization for deduplication.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lower-cases host", in: "https://WWW.Reddit.com/user/A", want: "https://www.reddit.com/user/A"},
		{name: "drops fragment", in: "https://example.com/a#b", want: "https://example.com/a"},
		{name: "adds root path", in: "https://example.com", want: "https://example.com/"},
		{name: "keeps query", in: "https://example.com/?after=t3", want: "https://example.com/?after=t3"},
		{name: "trims space", in: "  https://example.com/x  ", want: "https://example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
