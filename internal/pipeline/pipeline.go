package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/usercrawl/internal/model"
)

// Step processes the summary of a finished run.
type Step interface {
	// Do executes the step. It must not modify the summary.
	Do(ctx context.Context, summary *model.RunSummary) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes Steps in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	logger *slog.Logger

	// continueOnError keeps running later steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run every step even when an
// earlier one fails. Execute then returns the first error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against summary.
// Cancellation is checked before each step, not during one.
func (p *Pipeline) Execute(ctx context.Context, summary *model.RunSummary) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"seed", summary.Seed,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step", "step", step.Name(), "seed", summary.Seed)

		if err := step.Do(ctx, summary); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"seed", summary.Seed,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
