// Package metrics provides Prometheus metrics collection for duetgate.
package metrics

import (
	"strconv"
	"time"

	"github.com/artpar/duetgate/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for duetgate.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec

	// Spend metrics
	CreditsSpent     prometheus.Counter
	CompletionsSpent prometheus.Counter

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "duetgate",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "duetgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "duetgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "duetgate",
				Name:      "generations_total",
				Help:      "Total provider generation calls",
			},
			[]string{"provider", "outcome"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "duetgate",
				Name:      "generation_duration_seconds",
				Help:      "Provider generation call duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		CreditsSpent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "duetgate",
				Name:      "credits_spent_total",
				Help:      "Total credits charged for generations",
			},
		),
		CompletionsSpent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "duetgate",
				Name:      "completions_spent_total",
				Help:      "Total monthly completions consumed",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "duetgate",
				Name:      "config_reloads_total",
				Help:      "Total successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "duetgate",
				Name:      "config_reload_errors_total",
				Help:      "Total failed config reloads",
			},
		),
	}
}

// RecordRequest records an HTTP request outcome.
func (c *Collector) RecordRequest(route string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	c.RequestsTotal.WithLabelValues(route, s).Inc()
	c.RequestDuration.WithLabelValues(route, s).Observe(duration.Seconds())
}

// RecordGeneration records a generation call outcome per provider.
func (c *Collector) RecordGeneration(provider string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.GenerationsTotal.WithLabelValues(provider, outcome).Inc()
	c.GenerationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordSpend records what a generation consumed.
func (c *Collector) RecordSpend(credits float64, completions int) {
	if credits > 0 {
		c.CreditsSpent.Add(credits)
	}
	if completions > 0 {
		c.CompletionsSpent.Add(float64(completions))
	}
}

var _ ports.MetricsCollector = (*Collector)(nil)
