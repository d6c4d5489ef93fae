package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"golang.org/x/net/html/charset"
)

// Default fetch settings.
const (
	// DefaultUserAgent is sent when no User-Agent is configured. Listing
	// pages reject requests with empty or generic library agents.
	DefaultUserAgent = "usercrawl/1.0 (+https://github.com/nao1215/usercrawl)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Fetcher retrieves the text of a page.
// Implementations return an error wrapping ErrConnectionRefused when the host
// refuses the connection and ErrResourceUnavailable for every other failure.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HeaderFunc returns extra request headers for a host.
// It may return nil when the host has no extra headers.
type HeaderFunc func(host string) map[string]string

// HTTPFetcher fetches pages over HTTP with a caller-supplied client.
type HTTPFetcher struct {
	// client performs the requests; its timeout and transport (for example
	// a SOCKS5 proxy) are configured by the caller.
	client *http.Client

	// userAgent is the User-Agent header value.
	userAgent string

	// maxBodySize limits the bytes read from each response.
	maxBodySize int64

	// headers supplies per-host extra headers.
	headers HeaderFunc
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size. Non-positive values
// keep the default.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders sets the per-host header lookup.
func WithHeaders(fn HeaderFunc) FetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = fn
	}
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client means http.DefaultClient.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs pageURL and returns its body decoded to UTF-8 with CRLF
// sequences removed and surrounding whitespace trimmed, ready for ParseText.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URL %q: %w", ErrResourceUnavailable, pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if f.headers != nil {
		for name, value := range f.headers(u.Hostname()) {
			req.Header.Set(name, value)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classifyTransportError(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort
		return "", fmt.Errorf("%w: %s: status %d", ErrResourceUnavailable, pageURL, resp.StatusCode)
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: %s: decoding body: %w", ErrResourceUnavailable, pageURL, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%w: %s: reading body: %w", ErrResourceUnavailable, pageURL, err)
	}

	return PrepareText(string(body)), nil
}

// PrepareText applies the input contract of ParseText to raw page text:
// surrounding whitespace is trimmed and CRLF sequences are removed.
func PrepareText(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "")
}

// classifyTransportError maps a client error to the crawl error taxonomy.
// The cause stays wrapped, so context.Canceled is still visible to errors.Is.
func classifyTransportError(pageURL string, err error) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %s: %w", ErrConnectionRefused, pageURL, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, pageURL, err)
}
