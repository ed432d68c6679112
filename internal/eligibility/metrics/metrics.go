// Package metrics holds the Prometheus instruments for the eligibility
// context.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all eligibility-context Prometheus metrics.
type Metrics struct {
	Assessments *prometheus.CounterVec
}

// New creates and registers all eligibility metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loancore_eligibility_assessments_total",
			Help: "Eligibility assessments performed, by decision",
		}, []string{"decision"}),
	}
}

// RecordAssessment tracks one assessment by its decision.
func (m *Metrics) RecordAssessment(decision string) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(decision).Inc()
}
