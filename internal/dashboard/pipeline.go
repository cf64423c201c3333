package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/yegors/infotavla/internal/source"
)

// pipeline is the fetch, map and render sequence for one source
type pipeline struct {
	name   source.Name
	period time.Duration
	run    func(ctx context.Context) error

	mu     sync.Mutex
	status Status
}

func newPipeline(name source.Name, period time.Duration, run func(ctx context.Context) error) *pipeline {
	return &pipeline{
		name:   name,
		period: period,
		run:    run,
		status: Status{Source: name, Period: period, State: StateIdle},
	}
}

// begin moves the pipeline into Fetching. Overlapping ticks are allowed.
func (p *pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.State == StateDisabled {
		return false
	}
	p.status.InFlight++
	p.status.Ticks++
	p.status.State = StateFetching
	return true
}

// finish records the tick outcome and returns to Idle once no tick is in flight
func (p *pipeline) finish(err error, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.InFlight--
	if err == nil {
		p.status.LastOutcome = OutcomeRendered
		p.status.LastSuccess = at
		p.status.LastError = ""
		p.status.ConsecutiveFailures = 0
	} else {
		p.status.LastOutcome = OutcomeFailed
		p.status.LastError = err.Error()
		p.status.ConsecutiveFailures++
	}
	if p.status.State != StateDisabled && p.status.InFlight == 0 {
		p.status.State = StateIdle
	}
}

// disable stops the pipeline for good. Returns false if it already was.
func (p *pipeline) disable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.State == StateDisabled {
		return false
	}
	p.status.State = StateDisabled
	return true
}

func (p *pipeline) disabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status.State == StateDisabled
}

func (p *pipeline) snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
