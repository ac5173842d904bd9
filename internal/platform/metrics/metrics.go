// Package metrics holds the registry-level Prometheus metrics shared across
// features. Feature-specific metrics live next to their feature.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds registration and reporting counters.
type Metrics struct {
	SubjectsRegistered   prometheus.Counter
	RequestersRegistered prometheus.Counter
	ViolationsReported   prometheus.Counter
}

// New creates and registers the shared metrics.
func New() *Metrics {
	return &Metrics{
		SubjectsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_subjects_registered_total",
			Help: "Total number of subjects registered",
		}),
		RequestersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_requesters_registered_total",
			Help: "Total number of requesters registered",
		}),
		ViolationsReported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_violations_reported_total",
			Help: "Total number of violation reports recorded",
		}),
	}
}

// IncrementSubjectsRegistered increments the subject registration counter.
func (m *Metrics) IncrementSubjectsRegistered() {
	if m != nil {
		m.SubjectsRegistered.Inc()
	}
}

// IncrementRequestersRegistered increments the requester registration counter.
func (m *Metrics) IncrementRequestersRegistered() {
	if m != nil {
		m.RequestersRegistered.Inc()
	}
}

// IncrementViolationsReported increments the violation report counter.
func (m *Metrics) IncrementViolationsReported() {
	if m != nil {
		m.ViolationsReported.Inc()
	}
}
