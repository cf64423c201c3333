package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the dashboard's Prometheus metrics
type Collector struct {
	// Pipeline metrics
	TicksTotal   *prometheus.CounterVec
	TickDuration *prometheus.HistogramVec
	LastSuccess  *prometheus.GaugeVec

	// Display metrics
	RegionUpdatesTotal *prometheus.CounterVec

	// API metrics
	APIRequestsTotal *prometheus.CounterVec
	WebSocketClients prometheus.Gauge
}

// NewCollector registers the metrics with reg under the given namespace
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		TicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Total number of pipeline ticks by source and outcome",
			},
			[]string{"source", "outcome"},
		),

		TickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Duration of a fetch, map and render pass in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"source"},
		),

		LastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful tick per source",
			},
			[]string{"source"},
		),

		RegionUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "region_updates_total",
				Help:      "Total number of display region content changes",
			},
			[]string{"region"},
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		WebSocketClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_clients",
				Help:      "Number of connected WebSocket clients",
			},
		),
	}
}

// RecordTick records the outcome of one pipeline tick
func (c *Collector) RecordTick(source, outcome string, duration time.Duration) {
	c.TicksTotal.WithLabelValues(source, outcome).Inc()
	c.TickDuration.WithLabelValues(source).Observe(duration.Seconds())
	if outcome == OutcomeRendered {
		c.LastSuccess.WithLabelValues(source).SetToCurrentTime()
	}
}

// RecordRegionUpdate counts a region change
func (c *Collector) RecordRegionUpdate(region string) {
	c.RegionUpdatesTotal.WithLabelValues(region).Inc()
}

// RecordAPIRequest counts an API request
func (c *Collector) RecordAPIRequest(route, method, status string) {
	c.APIRequestsTotal.WithLabelValues(route, method, status).Inc()
}

// Tick outcomes
const (
	OutcomeRendered = "rendered"
	OutcomeFailed   = "failed"
	OutcomeDisabled = "disabled"
)
