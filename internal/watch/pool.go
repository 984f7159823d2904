package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/webwatch/webwatch/internal/config"
	"github.com/webwatch/webwatch/internal/fetcher"
	"github.com/webwatch/webwatch/internal/step"
)

// Job represents a tick to be executed.
type Job struct {
	Target *config.Target
}

// TickResult holds the outcome of one fetch-and-extract cycle.
type TickResult struct {
	Target *config.Target
	Value  string
	Err    error
}

// Pool manages a fixed set of worker goroutines.
type Pool struct {
	workers int
	fetch   *fetcher.Fetcher
	interp  *step.Interpreter
	jobs    <-chan Job
	results chan<- TickResult
	logger  *slog.Logger
}

func NewPool(workers int, fetch *fetcher.Fetcher, interp *step.Interpreter, jobs <-chan Job, results chan<- TickResult, logger *slog.Logger) *Pool {
	return &Pool{
		workers: workers,
		fetch:   fetch,
		interp:  interp,
		jobs:    jobs,
		results: results,
		logger:  logger,
	}
}

func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.worker(ctx)
	}
	<-ctx.Done()
}

func (p *Pool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.results <- p.Execute(ctx, job.Target)
		}
	}
}

// Execute runs one tick for a target: fetch the page, parse it, and walk
// the target's steps. The same path serves workers and the run-once mode.
func (p *Pool) Execute(ctx context.Context, t *config.Target) TickResult {
	tickCtx, cancel := context.WithTimeout(ctx, t.Timeout.Std())
	defer cancel()

	root, err := p.fetch.Fetch(tickCtx, t.Website)
	if err != nil {
		return TickResult{Target: t, Err: fmt.Errorf("fetch %s: %w", t.Website, err)}
	}

	value, err := p.interp.Run(root, t.Steps)
	if err != nil {
		return TickResult{Target: t, Err: fmt.Errorf("extract: %w", err)}
	}
	return TickResult{Target: t, Value: value}
}
