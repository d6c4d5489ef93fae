package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/usercrawl/internal/model"
)

// Submitter forwards parsed results to the mothership.
type Submitter interface {
	Submit(ctx context.Context, worker string, results []model.Triplet) (*model.Ack, error)
}

// State is the position of a Worker in its run state machine.
type State int

const (
	// StateIdle is the state of a worker that has not run yet.
	StateIdle State = iota

	// StateRunning means Run is in progress and the queue is non-empty.
	StateRunning

	// StateDone means the queue drained without a fetch or submit error.
	StateDone

	// StateFailed means a fetch, parse, or submit error ended the run.
	StateFailed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmitPolicy decides when a Worker submits results.
type SubmitPolicy int

const (
	// SubmitOnce submits all accumulated results after the queue drains.
	SubmitOnce SubmitPolicy = iota

	// SubmitPerPage submits each page's results right after it is parsed.
	SubmitPerPage
)

// String returns the policy name used in configuration.
func (p SubmitPolicy) String() string {
	switch p {
	case SubmitOnce:
		return "once"
	case SubmitPerPage:
		return "per-page"
	default:
		return "unknown"
	}
}

// ErrUnknownSubmitPolicy is returned by ParseSubmitPolicy for unknown names.
var ErrUnknownSubmitPolicy = errors.New("unknown submit policy")

// ParseSubmitPolicy converts a configuration name to a SubmitPolicy.
// The empty string means SubmitOnce.
func ParseSubmitPolicy(name string) (SubmitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "once":
		return SubmitOnce, nil
	case "per-page", "page":
		return SubmitPerPage, nil
	default:
		return SubmitOnce, fmt.Errorf("%w: %q", ErrUnknownSubmitPolicy, name)
	}
}

// Worker crawls one user profile starting from its seed URL.
//
// A Worker is single-threaded: Run, AddLinks, and the accessors must not be
// called concurrently.
type Worker struct {
	// seed identifies the worker and is the first URL crawled.
	seed string

	// frontier holds the to-crawl queue and crawled set.
	frontier *Frontier

	// results accumulates triplets in extraction order.
	results []model.Triplet

	// current is the URL popped from the queue but not yet marked crawled.
	current string

	fetcher   Fetcher
	submitter Submitter
	parser    *Parser
	policy    SubmitPolicy
	logger    *slog.Logger

	state       State
	submissions int
	lastAck     *model.Ack
	startedAt   time.Time
	finishedAt  time.Time
	lastErr     error
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithMaxLinks sets the to-crawl queue capacity.
func WithMaxLinks(n int) WorkerOption {
	return func(w *Worker) {
		w.frontier.SetMaxLinks(n)
	}
}

// WithSubmitPolicy sets when results are submitted.
func WithSubmitPolicy(p SubmitPolicy) WorkerOption {
	return func(w *Worker) {
		w.policy = p
	}
}

// WithParser replaces the default parser.
func WithParser(p *Parser) WorkerOption {
	return func(w *Worker) {
		if p != nil {
			w.parser = p
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker creates a Worker whose queue holds only seedURL.
// It performs no network access. The default parser resolves relative links
// against the seed URL.
func NewWorker(seedURL string, fetcher Fetcher, submitter Submitter, opts ...WorkerOption) (*Worker, error) {
	seedURL = strings.TrimSpace(seedURL)
	if seedURL == "" {
		return nil, ErrEmptySeed
	}
	if fetcher == nil {
		return nil, errors.New("fetcher must not be nil")
	}
	if submitter == nil {
		return nil, errors.New("submitter must not be nil")
	}

	parser, err := NewParser(seedURL)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		seed:      seedURL,
		frontier:  NewFrontier(seedURL, DefaultMaxLinks),
		results:   make([]model.Triplet, 0),
		fetcher:   fetcher,
		submitter: submitter,
		parser:    parser,
		policy:    SubmitOnce,
		logger:    slog.Default(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("seed", seedURL)

	return w, nil
}

// Seed returns the URL the worker was created with.
func (w *Worker) Seed() string { return w.seed }

// State returns the current run state.
func (w *Worker) State() State { return w.state }

// Err returns the error that ended the last run, or nil.
func (w *Worker) Err() error { return w.lastErr }

// MaxLinks returns the to-crawl queue capacity.
func (w *Worker) MaxLinks() int { return w.frontier.MaxLinks() }

// SetMaxLinks changes the to-crawl queue capacity.
func (w *Worker) SetMaxLinks(n int) { w.frontier.SetMaxLinks(n) }

// ToCrawl returns a copy of the pending URLs in crawl order.
func (w *Worker) ToCrawl() []string { return w.frontier.Queue() }

// Crawled returns a copy of the crawled URLs in crawl order.
func (w *Worker) Crawled() []string { return w.frontier.Crawled() }

// Current returns the URL being fetched, or "" between pages.
func (w *Worker) Current() string { return w.current }

// Results returns a copy of the accumulated triplets.
func (w *Worker) Results() []model.Triplet {
	out := make([]model.Triplet, len(w.results))
	copy(out, w.results)
	return out
}

// AddLinks queues links for crawling and returns how many were queued.
// Links already crawled, already queued, or beyond the queue capacity are
// skipped silently; with a capacity of 0 nothing is ever queued.
func (w *Worker) AddLinks(links ...string) int {
	return w.frontier.Add(links...)
}

// ParseText parses page markup into triplets and the next page URL.
// It has no effect on the worker's state.
func (w *Worker) ParseText(text string) ([]model.Triplet, string, error) {
	return w.parser.ParseText(text)
}

// Run crawls until the queue is empty or an error occurs.
//
// Errors from the fetcher, parser, and submitter are never retried; they end
// the run in StateFailed and keep their kind under errors.Is. The worker
// keeps the progress made before the failure: crawled URLs, collected
// results, and the remaining queue.
// Canceling ctx also ends the run with ctx's error.
//
// Calling Run on a worker in StateDone returns nil without doing anything.
func (w *Worker) Run(ctx context.Context) (err error) {
	if w.state == StateDone {
		return nil
	}

	w.state = StateRunning
	w.startedAt = time.Now()
	w.lastErr = nil
	defer func() {
		w.finishedAt = time.Now()
		if err != nil {
			w.state = StateFailed
			w.lastErr = err
			w.logger.Warn("crawl failed",
				"crawled", w.frontier.CrawledLen(),
				"results", len(w.results),
				"pending", w.frontier.Len(),
				"error", err,
			)
			return
		}
		w.state = StateDone
		w.logger.Info("crawl finished",
			"crawled", w.frontier.CrawledLen(),
			"results", len(w.results),
			"submissions", w.submissions,
		)
	}()

	for w.frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.step(ctx); err != nil {
			return err
		}
	}

	if w.policy == SubmitOnce && len(w.results) > 0 {
		return w.submit(ctx, w.results)
	}
	return nil
}

// step crawls the URL at the head of the queue.
func (w *Worker) step(ctx context.Context) error {
	pageURL, ok := w.frontier.Pop()
	if !ok {
		return nil
	}
	w.current = pageURL
	w.logger.Debug("fetching page", "url", pageURL, "pending", w.frontier.Len())

	text, err := w.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return err
	}

	triplets, next, err := w.parser.ParseText(text)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	w.frontier.MarkCrawled(pageURL)
	w.current = ""
	w.results = append(w.results, triplets...)
	added := w.AddLinks(next)

	w.logger.Debug("page parsed",
		"url", pageURL,
		"triplets", len(triplets),
		"next", next,
		"queued", added,
	)

	if w.policy == SubmitPerPage && len(triplets) > 0 {
		return w.submit(ctx, triplets)
	}
	return nil
}

// submit sends results to the mothership and records the acknowledgement.
func (w *Worker) submit(ctx context.Context, results []model.Triplet) error {
	batch := make([]model.Triplet, len(results))
	copy(batch, results)

	ack, err := w.submitter.Submit(ctx, w.seed, batch)
	if err != nil {
		return err
	}
	w.submissions++
	w.lastAck = ack
	w.logger.Debug("results submitted", "count", len(batch), "policy", w.policy.String())
	return nil
}

// Summary returns the record of the worker's last run.
func (w *Worker) Summary() *model.RunSummary {
	summary := &model.RunSummary{
		Seed:        w.seed,
		StartedAt:   w.startedAt,
		FinishedAt:  w.finishedAt,
		Crawled:     w.Crawled(),
		Pending:     w.ToCrawl(),
		Results:     w.Results(),
		Submissions: w.submissions,
		LastAck:     w.lastAck,
	}

	switch w.state {
	case StateDone:
		summary.Status = model.RunStatusDone
	case StateFailed:
		summary.Status = model.RunStatusFailed
	default:
		summary.Status = model.RunStatusRunning
	}
	if w.lastErr != nil {
		summary.Error = w.lastErr.Error()
	}

	return summary
}
