// Package telemetry exports Prometheus metrics for design sessions.
package telemetry

import (
	"time"

	"github.com/archgraph/core/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	operations      *prometheus.CounterVec
	requirementsMet *prometheus.HistogramVec
	designCost      *prometheus.HistogramVec
	remoteCalls     *prometheus.CounterVec
	remoteDuration  prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "archgraph_session_operations_total",
			Help: "Session operations by type and result",
		}, []string{"operation", "result"}),

		// Sessions of one stage share a series, so these are distributions
		// over every snapshot rather than a per-user value.
		requirementsMet: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "archgraph_requirements_completed_ratio",
			Help:    "Share of requirements met after each session operation, per stage",
			Buckets: prometheus.LinearBuckets(0, 0.25, 5),
		}, []string{"stage"}),

		designCost: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "archgraph_design_monthly_cost",
			Help:    "Total monthly design cost after each session operation, per stage",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}, []string{"stage"}),

		remoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "archgraph_remote_validation_total",
			Help: "Remote validation calls by result",
		}, []string{"result"}),

		remoteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "archgraph_remote_validation_duration_seconds",
			Help:    "Remote validation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

// Observe records a session event. It is meant to be subscribed to a
// session.Bus.
func (m *Metrics) Observe(e session.Event) {
	result := "applied"
	if e.Rejected {
		result = "rejected"
	}
	m.operations.WithLabelValues(string(e.Type), result).Inc()
	m.requirementsMet.WithLabelValues(e.StageID).Observe(e.Snapshot.Progress.Percentage / 100)
	m.designCost.WithLabelValues(e.StageID).Observe(e.Snapshot.TotalCost)
}

func (m *Metrics) ObserveRemote(err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.remoteCalls.WithLabelValues(result).Inc()
	m.remoteDuration.Observe(elapsed.Seconds())
}
