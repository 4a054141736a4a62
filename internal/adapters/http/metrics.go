package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the run-level counters the HTTP surface exports.
type Metrics struct {
	runsStarted  *prometheus.CounterVec
	runsFinished *prometheus.CounterVec
	runDuration  prometheus.Histogram
	abortsTotal  prometheus.Counter
}

// NewMetrics creates and registers the metric set on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ivctl_runs_started_total",
				Help: "Protocol runs started, by protocol name",
			},
			[]string{"protocol"},
		),
		runsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ivctl_runs_finished_total",
				Help: "Protocol runs finished, by outcome (success, aborted, error)",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ivctl_run_duration_seconds",
				Help:    "Wall-clock duration of protocol runs",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		abortsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ivctl_aborts_requested_total",
				Help: "Abort requests accepted",
			},
		),
	}
	reg.MustRegister(m.runsStarted, m.runsFinished, m.runDuration, m.abortsTotal)
	return m
}

func (m *Metrics) runFinished(outcome string, seconds float64) {
	m.runsFinished.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(seconds)
}
