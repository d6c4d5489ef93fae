package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/usercrawl/internal/database"
	"github.com/nao1215/usercrawl/internal/model"
	"github.com/nao1215/usercrawl/internal/report"
)

// ArchiveStep stores each run in the local results database.
type ArchiveStep struct {
	db     *database.ResultDB
	logger *slog.Logger
}

// ArchiveStepOption configures an ArchiveStep.
type ArchiveStepOption func(*ArchiveStep)

// WithArchiveLogger sets a custom logger for the archive step.
func WithArchiveLogger(logger *slog.Logger) ArchiveStepOption {
	return func(s *ArchiveStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewArchiveStep creates an ArchiveStep writing to db.
func NewArchiveStep(db *database.ResultDB, opts ...ArchiveStepOption) *ArchiveStep {
	s := &ArchiveStep{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns "archive".
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do saves summary as a new run row.
func (s *ArchiveStep) Do(ctx context.Context, summary *model.RunSummary) error {
	id, err := s.db.SaveRun(ctx, summary)
	if err != nil {
		return fmt.Errorf("archiving run for %s: %w", summary.Seed, err)
	}
	s.logger.Info("run archived", "seed", summary.Seed, "id", id, "db", s.db.Path())
	return nil
}

// ReportStep writes each run through a report.Writer.
// Writes are serialized so reports from concurrent workers do not interleave.
type ReportStep struct {
	writer report.Writer
	mu     sync.Mutex
}

// NewReportStep creates a ReportStep using writer.
func NewReportStep(writer report.Writer) *ReportStep {
	return &ReportStep{writer: writer}
}

// Name returns "report".
func (s *ReportStep) Name() string {
	return "report"
}

// Do renders summary.
func (s *ReportStep) Do(_ context.Context, summary *model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.writer.Write(summary); err != nil {
		return fmt.Errorf("writing report for %s: %w", summary.Seed, err)
	}
	return nil
}
