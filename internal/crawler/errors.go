package crawler

import "errors"

// Crawl errors.
// Callers distinguish failure kinds with errors.Is; the returned errors wrap
// these sentinels with the URL and underlying cause.
var (
	// ErrEmptySeed is returned by NewWorker when the seed URL is blank.
	ErrEmptySeed = errors.New("seed URL must not be empty")

	// ErrConnectionRefused is returned when the remote host actively refused
	// the fetch connection.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrResourceUnavailable is returned when a page cannot be read: the host
	// does not resolve, the connection fails for a reason other than refusal,
	// or the server answers with a non-2xx status (for example a nonexistent
	// user).
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrMalformedMarkup is returned when page markup cannot be turned into
	// a document tree at all. A page with zero listings is not malformed.
	ErrMalformedMarkup = errors.New("malformed markup")
)
