// Package metrics exposes Prometheus counters for estimations served over
// HTTP and Discord.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/primo-estimator/estimate"
)

// Sources label where an estimation came from.
const (
	SourceHTTP    = "http"
	SourceDiscord = "discord"
)

// Failure reasons.
const (
	ReasonInvalidInput = "invalid_input"
	ReasonOverflow     = "overflow"
	ReasonInternal     = "internal"
)

// Metrics owns a private registry so several servers (and tests) can coexist
// in one process.
type Metrics struct {
	registry *prometheus.Registry

	estimates *prometheus.CounterVec
	failures  *prometheus.CounterVec
	rotations *prometheus.HistogramVec
	sessions  prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "primo",
			Name:      "estimates_total",
			Help:      "Estimations computed, by source.",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "primo",
			Name:      "estimate_failures_total",
			Help:      "Estimations rejected, by source and reason.",
		}, []string{"source", "reason"}),
		rotations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "primo",
			Name:      "rotations_per_estimate",
			Help:      "Rotations counted per estimation, by reward category.",
			Buckets:   []float64{0, 1, 2, 3, 6, 12, 24, 60, 120},
		}, []string{"category"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "primo",
			Name:      "bot_menu_sessions",
			Help:      "Open Discord menu sessions.",
		}),
	}
	m.registry.MustRegister(
		m.estimates,
		m.failures,
		m.rotations,
		m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveEstimate records one successful estimation and its rotation counts.
func (m *Metrics) ObserveEstimate(source string, rotations map[string]int) {
	m.estimates.WithLabelValues(source).Inc()
	for category, n := range rotations {
		m.rotations.WithLabelValues(category).Observe(float64(n))
	}
}

// ObserveFailure records one rejected estimation.
func (m *Metrics) ObserveFailure(source, reason string) {
	m.failures.WithLabelValues(source, reason).Inc()
}

// Reason classifies an estimation error for the failures counter.
func Reason(err error) string {
	switch {
	case estimate.IsOverflow(err):
		return ReasonOverflow
	case estimate.IsClientError(err):
		return ReasonInvalidInput
	default:
		return ReasonInternal
	}
}

// SetSessions reports the number of open bot menus.
func (m *Metrics) SetSessions(n int) {
	m.sessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Estimates returns the estimation counter for source.
func (m *Metrics) Estimates(source string) prometheus.Counter {
	return m.estimates.WithLabelValues(source)
}

// Failures returns the failure counter for source and reason.
func (m *Metrics) Failures(source, reason string) prometheus.Counter {
	return m.failures.WithLabelValues(source, reason)
}
