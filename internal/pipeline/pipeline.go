package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/event-map-index/internal/domain"
	"github.com/couchcryptid/event-map-index/internal/observability"
)

// EventSource loads the events of one user.
type EventSource interface {
	LoadEvents(ctx context.Context, regNum string) ([]domain.Event, error)
}

// Sink receives the finished result of a run: file output, Kafka, and so on.
// Stage does all the work that can fail without making anything visible.
type Sink interface {
	Stage(ctx context.Context, result *Result) (Staged, error)
}

// Staged is sink output that is ready but not yet visible. Exactly one of
// Commit or Discard is called.
type Staged interface {
	Commit(ctx context.Context) error
	Discard()
}

// Result is everything a run produced. It is not modified after Run returns.
type Result struct {
	RegNum      string
	Events      []domain.Event // numbered order
	Numbering   domain.Numbering
	Resolutions []domain.Resolution // by number
	RegionIndex domain.Index
	MapIndex    domain.Index
}

// Pipeline orchestrates the load-resolve-index-write run.
type Pipeline struct {
	source     EventSource
	geocoder   domain.Geocoder
	classifier *domain.Classifier
	builder    *domain.IndexBuilder
	sinks      []Sink
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	status     statusTracker
}

// New creates a Pipeline. A nil geocoder disables geocoding; every event then
// resolves from its own data only.
func New(source EventSource, geocoder domain.Geocoder, classifier *domain.Classifier, builder *domain.IndexBuilder, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Pipeline {
	return &Pipeline{
		source:     source,
		geocoder:   geocoder,
		classifier: classifier,
		builder:    builder,
		sinks:      sinks,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no indexing run has completed yet")
	}
	return nil
}

// Status reports the progress of the current run, or the outcome of the last one.
func (p *Pipeline) Status() Status {
	return p.status.snapshot()
}

// Run indexes the events of the user with the given registration number and
// hands the result to every sink. Every sink is staged before any of them
// commits, so a failure or cancellation up to that point leaves no output.
// On cancellation it returns ctx.Err().
func (p *Pipeline) Run(ctx context.Context, regNum string) (*Result, error) {
	result, err := p.run(ctx, regNum)
	if err != nil {
		p.status.update(func(s *Status) {
			s.Phase = PhaseFailed
			s.Error = err.Error()
		})
		return nil, err
	}
	p.status.update(func(s *Status) { s.Phase = PhaseDone })
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, regNum string) (*Result, error) {
	start := time.Now()
	p.status.update(func(s *Status) { *s = Status{RegNum: regNum, Phase: PhaseLoading} })
	p.logger.Info("pipeline started", "reg_num", regNum)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	events, err := p.source.LoadEvents(ctx, regNum)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("load events: %w", err)
	}
	p.metrics.EventsLoaded.Set(float64(len(events)))
	p.status.update(func(s *Status) {
		s.Phase = PhaseResolving
		s.Events = len(events)
	})

	result, err := p.index(ctx, regNum, events)
	if err != nil {
		return nil, err
	}

	p.status.update(func(s *Status) {
		s.Phase = PhaseWriting
		s.Events = result.Numbering.Len()
	})
	if err := p.write(ctx, result); err != nil {
		return nil, err
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"reg_num", regNum,
		"events", result.Numbering.Len(),
		"regions", len(result.RegionIndex.Groups),
		"maps", len(result.MapIndex.Groups),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// write stages every sink, then commits them in order. Commits are not
// interrupted by cancellation once staging is complete; a failed commit
// discards the sinks after it.
func (p *Pipeline) write(ctx context.Context, result *Result) error {
	staged := make([]Staged, 0, len(p.sinks))
	discard := func(from int) {
		for _, s := range staged[from:] {
			s.Discard()
		}
	}

	for _, sink := range p.sinks {
		if err := ctx.Err(); err != nil {
			discard(0)
			return err
		}
		s, err := sink.Stage(ctx, result)
		if err != nil {
			discard(0)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("stage output: %w", err)
		}
		staged = append(staged, s)
	}
	if err := ctx.Err(); err != nil {
		discard(0)
		return err
	}

	for i, s := range staged {
		if err := s.Commit(ctx); err != nil {
			discard(i + 1)
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

// index numbers the events, resolves each one sequentially, and builds both
// indexes.
func (p *Pipeline) index(ctx context.Context, regNum string, events []domain.Event) (*Result, error) {
	numbering := domain.NumberEvents(events)
	hierarchy := domain.NewHierarchy(events)
	resolver := domain.NewResolver(p.geocoder, hierarchy, p.logger)

	result := &Result{
		RegNum:      regNum,
		Events:      make([]domain.Event, 0, numbering.Len()),
		Numbering:   numbering,
		Resolutions: make([]domain.Resolution, 0, numbering.Len()),
	}

	p.logger.Info("resolving event locations", "events", numbering.Len())
	for _, e := range events {
		number, ok := numbering.Number(e.ID)
		if !ok || number != len(result.Events)+1 {
			continue // repeated ID
		}

		addr, err := resolver.Resolve(ctx, e)
		if err != nil {
			return nil, err
		}

		r := domain.Resolution{
			Event:   e,
			Number:  number,
			Address: addr,
			Region:  p.classifier.Region(addr),
			Place:   p.classifier.PlaceName(e, addr, hierarchy),
		}
		outcome := "resolved"
		if addr == nil {
			outcome = "unresolved"
		}
		p.metrics.EventsResolved.WithLabelValues(outcome).Inc()
		p.logger.Debug("event resolved",
			"event_id", e.ID,
			"number", number,
			"region", r.Region,
			"place", r.Place,
			"outcome", outcome,
		)

		result.Events = append(result.Events, e)
		result.Resolutions = append(result.Resolutions, r)
		p.status.update(func(s *Status) { s.Resolved = len(result.Resolutions) })
	}

	result.RegionIndex = p.builder.RegionIndex(result.Resolutions)
	result.MapIndex = p.builder.MapIndex(result.Resolutions)
	return result, nil
}
