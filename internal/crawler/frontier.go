package crawler

import (
	"net/url"
	"strings"
)

// DefaultMaxLinks is the default capacity of the to-crawl queue.
const DefaultMaxLinks = 10

// Frontier holds the to-crawl queue and the crawled set of one worker.
// Every mutation goes through its methods so a URL can never sit in both
// collections at once.
//
// The seed given to NewFrontier is queued without checking the capacity;
// every later addition goes through Add and respects maxLinks.
type Frontier struct {
	// queue is the ordered to-crawl list; index 0 is crawled next.
	queue []string

	// queued mirrors queue for O(1) membership checks.
	queued map[string]bool

	// crawled holds every URL already fetched.
	crawled map[string]bool

	// crawledOrder records crawled URLs in the order they were marked.
	crawledOrder []string

	// maxLinks bounds the length of queue after any Add.
	maxLinks int
}

// NewFrontier creates a Frontier with seed as the only queued URL.
// An empty seed yields an empty queue.
func NewFrontier(seed string, maxLinks int) *Frontier {
	f := &Frontier{
		queue:    make([]string, 0, 1),
		queued:   make(map[string]bool),
		crawled:  make(map[string]bool),
		maxLinks: max(maxLinks, 0),
	}
	if seed = strings.TrimSpace(seed); seed != "" {
		key := NormalizeURL(seed)
		f.queue = append(f.queue, key)
		f.queued[key] = true
	}
	return f
}

// SetMaxLinks changes the queue capacity. Negative values are treated as 0.
// Lowering the capacity does not drop URLs that are already queued.
func (f *Frontier) SetMaxLinks(n int) {
	f.maxLinks = max(n, 0)
}

// MaxLinks returns the queue capacity.
func (f *Frontier) MaxLinks() int {
	return f.maxLinks
}

// Add queues each candidate in order and returns how many were queued.
// A candidate is skipped, without error, when it is blank or not an absolute
// http(s) URL, when it was already crawled, when it is already queued, or
// when the queue is full.
func (f *Frontier) Add(candidates ...string) int {
	added := 0
	for _, candidate := range candidates {
		if len(f.queue) >= f.maxLinks {
			break
		}
		key, ok := crawlableURL(candidate)
		if !ok {
			continue
		}
		if f.crawled[key] || f.queued[key] {
			continue
		}
		f.queue = append(f.queue, key)
		f.queued[key] = true
		added++
	}
	return added
}

// Pop removes and returns the earliest queued URL.
// The URL is in neither collection until MarkCrawled is called for it.
func (f *Frontier) Pop() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	next := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	delete(f.queued, next)
	return next, true
}

// MarkCrawled records pageURL as crawled.
// It reports false, and changes nothing, if the URL was already crawled.
// If the URL is still queued it is removed from the queue.
func (f *Frontier) MarkCrawled(pageURL string) bool {
	key := NormalizeURL(pageURL)
	if f.crawled[key] {
		return false
	}
	if f.queued[key] {
		f.remove(key)
	}
	f.crawled[key] = true
	f.crawledOrder = append(f.crawledOrder, key)
	return true
}

// remove deletes key from the queue, keeping the order of the rest.
func (f *Frontier) remove(key string) {
	for i, u := range f.queue {
		if u == key {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			break
		}
	}
	delete(f.queued, key)
}

// IsCrawled reports whether pageURL has been crawled.
func (f *Frontier) IsCrawled(pageURL string) bool {
	return f.crawled[NormalizeURL(pageURL)]
}

// IsQueued reports whether pageURL is waiting in the queue.
func (f *Frontier) IsQueued(pageURL string) bool {
	return f.queued[NormalizeURL(pageURL)]
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// CrawledLen returns the number of crawled URLs.
func (f *Frontier) CrawledLen() int {
	return len(f.crawledOrder)
}

// Queue returns a copy of the queued URLs in crawl order.
func (f *Frontier) Queue() []string {
	out := make([]string, len(f.queue))
	copy(out, f.queue)
	return out
}

// Crawled returns a copy of the crawled URLs in the order they were crawled.
func (f *Frontier) Crawled() []string {
	out := make([]string, len(f.crawledOrder))
	copy(out, f.crawledOrder)
	return out
}

// crawlableURL validates and normalizes a candidate link.
func crawlableURL(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", false
	}
	return NormalizeURL(candidate), true
}

// NormalizeURL returns the form of pageURL used for deduplication.
// The scheme and host are lower-cased, the fragment is dropped, and an empty
// path becomes "/". Unparsable input is returned trimmed but otherwise as-is.
func NormalizeURL(pageURL string) string {
	pageURL = strings.TrimSpace(pageURL)
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}

	return u.String()
}
