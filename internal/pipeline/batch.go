package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/usercrawl/internal/crawler"
	"github.com/nao1215/usercrawl/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of workers run at once when no limit is set.
const DefaultConcurrency = 4

// WorkerFactory builds a fresh worker for seed.
type WorkerFactory func(seed string) (*crawler.Worker, error)

// BatchProcessor crawls several seeds concurrently, one worker per seed.
type BatchProcessor struct {
	factory WorkerFactory

	// pipeline runs after each worker returns; nil means no post-run steps.
	pipeline *Pipeline

	// concurrency is the maximum number of workers running at once.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent workers.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithPipeline sets the steps run on each finished summary.
func WithPipeline(p *Pipeline) BatchOption {
	return func(b *BatchProcessor) {
		b.pipeline = p
	}
}

// NewBatchProcessor creates a BatchProcessor that builds workers with factory.
func NewBatchProcessor(factory WorkerFactory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch crawls every seed and returns one summary per seed, in seed
// order. A failing worker is recorded in its summary and never stops the
// others. The returned error is ctx's error if the batch was canceled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.RunSummary, error) {
	results := make([]*model.RunSummary, len(seeds))
	err := bp.ProcessBatchWithCallback(ctx, seeds, func(summary *model.RunSummary, index int) {
		results[index] = summary
	})
	return results, err
}

// ProcessBatchWithCallback crawls every seed and calls callback with each
// summary as soon as its post-run steps finish. The callback runs on the
// worker's goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(summary *model.RunSummary, index int),
) error {
	bp.logger.Info("starting batch",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			summary := bp.runOne(ctx, seed, i, len(seeds))
			callback(summary, i)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors to the group

	bp.logger.Info("batch complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)
	return ctx.Err()
}

// runOne crawls seed and runs the post-run steps on its summary.
func (bp *BatchProcessor) runOne(ctx context.Context, seed string, index, total int) *model.RunSummary {
	var summary *model.RunSummary
	if err := ctx.Err(); err != nil {
		bp.logger.Debug("seed not started", "seed", seed, "error", err)
		summary = notStartedSummary(seed, err, true)
	} else {
		summary = bp.crawl(ctx, seed, index, total)
	}

	// Interrupted runs are still archived and reported.
	if bp.pipeline != nil {
		if err := bp.pipeline.Execute(context.WithoutCancel(ctx), summary); err != nil {
			bp.logger.Warn("post-run steps failed", "seed", seed, "error", err)
		}
	}
	return summary
}

// crawl builds a worker for seed and runs it to completion or failure.
func (bp *BatchProcessor) crawl(ctx context.Context, seed string, index, total int) *model.RunSummary {
	bp.logger.Info("crawling user", "seed", seed, "index", index+1, "total", total)

	w, err := bp.factory(seed)
	if err != nil {
		bp.logger.Warn("cannot create worker", "seed", seed, "error", err)
		return notStartedSummary(seed, err, false)
	}
	if err := w.Run(ctx); err != nil {
		bp.logger.Warn("crawl failed", "seed", seed, "error", err)
	}
	return w.Summary()
}

// notStartedSummary records a seed whose worker never ran. When queued is
// true the seed is reported as still pending.
func notStartedSummary(seed string, cause error, queued bool) *model.RunSummary {
	now := time.Now()
	pending := []string{}
	if s := strings.TrimSpace(seed); queued && s != "" {
		pending = append(pending, crawler.NormalizeURL(s))
	}
	return &model.RunSummary{
		Seed:       seed,
		StartedAt:  now,
		FinishedAt: now,
		Status:     model.RunStatusFailed,
		Error:      cause.Error(),
		Crawled:    []string{},
		Pending:    pending,
		Results:    []model.Triplet{},
	}
}
