// Package metrics provides observability for the enforcement gate.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Lookup decisions by outcome (allow, block, reject).
	Decisions *prometheus.CounterVec

	// Token verification failures by reason. Signature failures are the
	// security-relevant series for anomaly alerting.
	VerifyFailures *prometheus.CounterVec

	// Full evaluation latency including the ledger append.
	EvaluateLatency prometheus.Histogram
}

// New creates and registers all enforcement gate metrics.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_gate_decisions_total",
			Help: "Total lookup decisions by outcome",
		}, []string{"decision"}),

		VerifyFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_gate_verify_failures_total",
			Help: "Capability token verification failures by reason",
		}, []string{"reason"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aegis_gate_evaluate_duration_seconds",
			Help:    "Duration of a full gate evaluation including the audit append",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementDecision records a lookup outcome.
func (m *Metrics) IncrementDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

// IncrementVerifyFailure records a token verification failure.
func (m *Metrics) IncrementVerifyFailure(reason string) {
	if m != nil {
		m.VerifyFailures.WithLabelValues(reason).Inc()
	}
}

// ObserveEvaluateLatency records a full evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
