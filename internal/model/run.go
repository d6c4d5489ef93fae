package model

import "time"

// RunStatus is the terminal (or current) state of a crawl run.
type RunStatus string

const (
	// RunStatusRunning means the run has started and not yet returned.
	RunStatusRunning RunStatus = "running"

	// RunStatusDone means the queue drained and every submission succeeded.
	RunStatusDone RunStatus = "done"

	// RunStatusFailed means a fetch, parse, or submit error ended the run.
	RunStatusFailed RunStatus = "failed"
)

// Ack is the acknowledgement returned by the mothership for a submission.
type Ack struct {
	// Accepted is the number of triplets the mothership stored.
	Accepted int `json:"accepted"`

	// ID is an optional identifier the mothership assigned to the batch.
	ID string `json:"id,omitempty"`
}

// RunSummary records what a single crawl run did.
// It is built after the run returns, whether it finished or failed, so that
// partial progress stays visible to reports and the archive.
type RunSummary struct {
	// Seed is the URL the worker was constructed with.
	Seed string `json:"seed"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run returned.
	FinishedAt time.Time `json:"finished_at"`

	// Status is the state the run ended in.
	Status RunStatus `json:"status"`

	// Error is the text of the error that ended a failed run.
	Error string `json:"error,omitempty"`

	// Crawled lists the URLs fetched and parsed, in crawl order.
	Crawled []string `json:"crawled"`

	// Pending lists the URLs still queued when the run returned.
	Pending []string `json:"pending"`

	// Results holds every triplet collected, in extraction order.
	Results []Triplet `json:"results"`

	// Submissions is the number of successful mothership submissions.
	Submissions int `json:"submissions"`

	// LastAck is the acknowledgement of the final successful submission.
	LastAck *Ack `json:"last_ack,omitempty"`
}

// Duration returns how long the run took.
// It returns zero if the run has not finished.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Failed reports whether the run ended with an error.
func (s *RunSummary) Failed() bool {
	return s.Status == RunStatusFailed
}
