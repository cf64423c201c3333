package dashboard

import (
	"errors"
	"time"

	"github.com/yegors/infotavla/internal/source"
)

// Refresh cadence per source. Not configurable.
const (
	ClockPeriod      = 1 * time.Second
	WeatherPeriod    = 60 * time.Second
	DeparturesPeriod = 30 * time.Second
)

// State is the phase of a pipeline
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateDisabled State = "disabled"
)

// Outcome is the result of the most recent finished tick
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeRendered Outcome = "rendered"
	OutcomeFailed   Outcome = "failed"
)

var (
	ErrUnknownSource    = errors.New("unknown source")
	ErrPipelineDisabled = errors.New("pipeline disabled")
)

// Status describes one pipeline
type Status struct {
	Source              source.Name   `json:"source"`
	Period              time.Duration `json:"period"`
	State               State         `json:"state"`
	LastOutcome         Outcome       `json:"last_outcome,omitempty"`
	LastSuccess         time.Time     `json:"last_success,omitempty"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Ticks               int           `json:"ticks"`
	InFlight            int           `json:"in_flight"`
}
