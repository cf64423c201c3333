// Package dashboard runs the three refresh pipelines (clock, weather,
// departures), each on its own fixed cadence.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/yegors/infotavla/internal/display"
	"github.com/yegors/infotavla/internal/metrics"
	"github.com/yegors/infotavla/internal/present"
	"github.com/yegors/infotavla/internal/source"
	"github.com/yegors/infotavla/pkg/logger"
)

// Fetcher fetches the upstream payloads
type Fetcher interface {
	FetchClock(ctx context.Context) (*source.ClockSnapshot, error)
	FetchWeather(ctx context.Context) (*source.WeatherResponse, error)
	FetchDepartures(ctx context.Context) ([]source.DepartureGroup, error)
}

// Renderer applies content to display regions
type Renderer interface {
	Render(id display.RegionID, content display.Content) (bool, error)
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock sets the wall-clock provider handed to the presenters
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithMetrics records tick outcomes
func WithMetrics(m *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// withPeriods overrides the cadence constants, tests only
func withPeriods(periods map[source.Name]time.Duration) Option {
	return func(o *Orchestrator) { o.periods = periods }
}

// Orchestrator owns the pipelines and their timers
type Orchestrator struct {
	fetcher  Fetcher
	renderer Renderer
	now      func() time.Time
	metrics  *metrics.Collector
	logger   *logger.Logger

	periods   map[source.Name]time.Duration
	pipelines map[source.Name]*pipeline
	scheduler atomic.Pointer[gocron.Scheduler]

	// Service lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// New creates an orchestrator for the three sources
func New(fetcher Fetcher, renderer Renderer, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:  fetcher,
		renderer: renderer,
		now:      time.Now,
		logger:   log.Named("dashboard"),
		periods: map[source.Name]time.Duration{
			source.Clock:      ClockPeriod,
			source.Weather:    WeatherPeriod,
			source.Departures: DeparturesPeriod,
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	o.pipelines = map[source.Name]*pipeline{
		source.Clock:      newPipeline(source.Clock, o.periods[source.Clock], o.refreshClock),
		source.Weather:    newPipeline(source.Weather, o.periods[source.Weather], o.refreshWeather),
		source.Departures: newPipeline(source.Departures, o.periods[source.Departures], o.refreshDepartures),
	}
	return o
}

// Start runs every pipeline once, in order, then arms one repeating job per
// source. It returns after the first pass has been rendered.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return nil
	}

	o.ctx, o.cancel = context.WithCancel(ctx)

	o.logger.Info("Starting dashboard refresh",
		logger.Duration("clock_period", o.periods[source.Clock]),
		logger.Duration("weather_period", o.periods[source.Weather]),
		logger.Duration("departures_period", o.periods[source.Departures]))

	if err := o.RunAll(o.ctx); err != nil {
		o.logger.Warn("Initial pass incomplete, stale regions stay blank until the next tick", logger.Error(err))
	}

	scheduler := gocron.NewScheduler(time.UTC)
	for _, name := range source.Names() {
		p := o.pipelines[name]
		if p.disabled() {
			o.logger.Error("Pipeline disabled during initial pass, not scheduling it",
				logger.String("source", string(name)))
			continue
		}
		_, err := scheduler.Every(p.period).WaitForSchedule().Tag(string(name)).Do(func() {
			o.tick(o.ctx, p)
		})
		if err != nil {
			o.cancel()
			return fmt.Errorf("failed to schedule %s pipeline: %w", name, err)
		}
	}
	o.scheduler.Store(scheduler)
	scheduler.StartAsync()

	o.started = true
	return nil
}

// Stop cancels in-flight ticks and releases every timer
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		return
	}

	o.logger.Info("Stopping dashboard refresh")
	o.cancel()
	if s := o.scheduler.Swap(nil); s != nil {
		s.Stop()
	}
	o.started = false
	o.logger.Info("Dashboard refresh stopped")
}

// RunAll runs every pipeline once, sequentially in pipeline order.
// Failures are collected, they never stop the next pipeline.
func (o *Orchestrator) RunAll(ctx context.Context) error {
	var errs []error
	for _, name := range source.Names() {
		if err := o.tick(ctx, o.pipelines[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tick runs one pipeline immediately, outside its schedule
func (o *Orchestrator) Tick(ctx context.Context, name source.Name) error {
	p, ok := o.pipelines[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return o.tick(ctx, p)
}

// Status returns a copy of every pipeline's status in pipeline order
func (o *Orchestrator) Status() []Status {
	out := make([]Status, 0, len(o.pipelines))
	for _, name := range source.Names() {
		out = append(out, o.pipelines[name].snapshot())
	}
	return out
}

// tick performs Idle -> Fetching -> Rendered|Failed -> Idle for one pipeline
func (o *Orchestrator) tick(ctx context.Context, p *pipeline) error {
	if !p.begin() {
		return fmt.Errorf("%w: %s", ErrPipelineDisabled, p.name)
	}

	start := time.Now()
	err := p.run(ctx)
	p.finish(err, o.now())
	duration := time.Since(start)
	log := o.logger.With(logger.String("source", string(p.name)), logger.Duration("duration", duration))

	switch {
	case err == nil:
		o.record(p.name, metrics.OutcomeRendered, duration)
		log.Debug("Pipeline rendered")
		return nil

	case errors.Is(err, display.ErrRegionMissing):
		o.disable(p, err)
		o.record(p.name, metrics.OutcomeDisabled, duration)
		return err

	case ctx.Err() != nil:
		o.record(p.name, metrics.OutcomeFailed, duration)
		log.Debug("Pipeline tick cancelled", logger.Error(err))
		return err

	default:
		o.record(p.name, metrics.OutcomeFailed, duration)
		log.Warn("Pipeline tick failed, keeping previous display", logger.Error(err))
		return err
	}
}

// disable stops a pipeline after a fatal render error. Other pipelines keep running.
func (o *Orchestrator) disable(p *pipeline, cause error) {
	if !p.disable() {
		return
	}
	o.logger.Error("Display region missing, disabling pipeline",
		logger.String("source", string(p.name)),
		logger.Error(cause))

	if s := o.scheduler.Load(); s != nil {
		if err := s.RemoveByTag(string(p.name)); err != nil {
			o.logger.Warn("Failed to remove pipeline job",
				logger.String("source", string(p.name)),
				logger.Error(err))
		}
	}
}

func (o *Orchestrator) record(name source.Name, outcome string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordTick(string(name), outcome, d)
	}
}

func (o *Orchestrator) refreshClock(ctx context.Context) error {
	snap, err := o.fetcher.FetchClock(ctx)
	if err != nil {
		return err
	}
	return o.apply(ClockUpdates(present.Clock(o.now(), *snap)))
}

func (o *Orchestrator) refreshWeather(ctx context.Context) error {
	resp, err := o.fetcher.FetchWeather(ctx)
	if err != nil {
		return err
	}
	return o.apply(WeatherUpdates(present.Weather(o.now(), *resp)))
}

func (o *Orchestrator) refreshDepartures(ctx context.Context) error {
	groups, err := o.fetcher.FetchDepartures(ctx)
	if err != nil {
		return err
	}
	return o.apply(DepartureUpdates(present.Departures(groups)))
}

func (o *Orchestrator) apply(updates []Update) error {
	for _, u := range updates {
		if _, err := o.renderer.Render(u.Region, u.Content); err != nil {
			return fmt.Errorf("render %s: %w", u.Region, err)
		}
	}
	return nil
}
