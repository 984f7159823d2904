package watch

import (
	"context"
	"log/slog"

	"github.com/webwatch/webwatch/internal/config"
	"github.com/webwatch/webwatch/internal/diff"
	"github.com/webwatch/webwatch/internal/fetcher"
	"github.com/webwatch/webwatch/internal/notifier"
	"github.com/webwatch/webwatch/internal/step"
	"github.com/webwatch/webwatch/internal/storage"
)

// Notifier delivers payloads to a target's channels. Satisfied by
// *notifier.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, channels []notifier.Channel, payload *notifier.Payload)
}

// Pipeline orchestrates the full watch flow:
// Scheduler -> Workers -> Result Processor -> Change Detector -> Notifications
type Pipeline struct {
	targets  []*config.Target
	detector *Detector
	notify   Notifier
	history  storage.Store // nil disables persistence
	logger   *slog.Logger

	scheduler *Scheduler
	pool      *Pool
	jobs      chan Job
	results   chan TickResult
}

func NewPipeline(targets []*config.Target, fetch *fetcher.Fetcher, interp *step.Interpreter, notify Notifier, history storage.Store, workers int, logger *slog.Logger) *Pipeline {
	jobs := make(chan Job, workers*2)
	results := make(chan TickResult, workers*2)

	return &Pipeline{
		targets:   targets,
		detector:  NewDetector(),
		notify:    notify,
		history:   history,
		logger:    logger,
		scheduler: NewScheduler(targets, jobs, logger),
		pool:      NewPool(workers, fetch, interp, jobs, results, logger),
		jobs:      jobs,
		results:   results,
	}
}

// DroppedJobs returns the total number of scheduler jobs dropped due to a full channel.
func (p *Pipeline) DroppedJobs() int64 {
	return p.scheduler.DroppedJobs()
}

// State returns the detector's snapshot for a target.
func (p *Pipeline) State(target string) (ObservationState, bool) {
	return p.detector.State(target)
}

// Run starts the scheduler and worker pool, then processes results until
// the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	go p.scheduler.Run(ctx)
	go p.pool.Run(ctx)
	p.processResults(ctx)
}

// RunOnce executes a single tick for every target, in order, processing
// each result before moving on. Used by the -once mode.
func (p *Pipeline) RunOnce(ctx context.Context) {
	for _, t := range p.targets {
		p.handleResult(ctx, p.pool.Execute(ctx, t))
	}
}

func (p *Pipeline) processResults(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-p.results:
			if !ok {
				return
			}
			p.handleResult(ctx, tr)
		}
	}
}

func (p *Pipeline) handleResult(ctx context.Context, tr TickResult) {
	t := tr.Target

	// A failed tick leaves the stored state untouched, so a transient
	// fetch error never masks or fabricates a change.
	if tr.Err != nil {
		p.logger.Error("tick error", "target", t.Name, "error", tr.Err)
		return
	}

	det := p.detector.Detect(t.Name, &tr.Value)
	p.recordObservation(ctx, t.Name, tr.Value, det.Outcome == Changed)

	switch det.Outcome {
	case FirstObservation:
		p.logger.Info("first observation", "target", t.Name, "value", tr.Value)
	case Unchanged:
		p.logger.Debug("unchanged", "target", t.Name, "value", tr.Value)
	case Changed:
		p.handleChange(ctx, t, det)
	}
}

func (p *Pipeline) handleChange(ctx context.Context, t *config.Target, det Detection) {
	oldText := ""
	if det.Old != nil {
		oldText = *det.Old
	}
	diffText := diff.Lines(oldText, *det.New)

	p.logger.Info("change detected", "target", t.Name, "old", oldText, "new", *det.New)

	if p.history != nil {
		change := &storage.Change{
			Target:   t.Name,
			OldValue: det.Old,
			NewValue: *det.New,
			Diff:     diffText,
		}
		if err := p.history.RecordChange(ctx, change); err != nil {
			p.logger.Error("record change", "target", t.Name, "error", err)
		}
	}

	p.notify.Dispatch(ctx, t.Notify, &notifier.Payload{
		Event:    notifier.EventChanged,
		Target:   t.Name,
		Website:  t.Website,
		OldValue: det.Old,
		NewValue: *det.New,
		Diff:     diffText,
	})
}

func (p *Pipeline) recordObservation(ctx context.Context, target, value string, changed bool) {
	if p.history == nil {
		return
	}
	obs := &storage.Observation{Target: target, Value: value, Changed: changed}
	if err := p.history.RecordObservation(ctx, obs); err != nil {
		p.logger.Error("record observation", "target", target, "error", err)
	}
}
