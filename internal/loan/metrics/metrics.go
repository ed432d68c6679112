// Package metrics holds the Prometheus instruments for the loan context.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all loan-context Prometheus metrics.
type Metrics struct {
	LoansCreated      prometheus.Counter
	LoansApproved     prometheus.Counter
	LoansRejected     prometheus.Counter
	LoansDisbursed    prometheus.Counter
	LoansCancelled    prometheus.Counter
	LoansFullyPaid    prometheus.Counter
	PaymentsProcessed *prometheus.CounterVec
	PaymentDuration   prometheus.Histogram
	EventsPublished   *prometheus.CounterVec
}

// New creates and registers all loan metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		LoansCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loancore_loans_created_total",
			Help: "Total number of loans created",
		}),
		LoansApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loancore_loans_approved_total",
			Help: "Total number of loans approved",
		}),
		LoansRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loancore_loans_rejected_total",
			Help: "Total number of loans rejected",
		}),
		LoansDisbursed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loancore_loans_disbursed_total",
			Help: "Total number of loans disbursed",
		}),
		LoansCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loancore_loans_cancelled_total",
			Help: "Total number of loans cancelled",
		}),
		LoansFullyPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loancore_loans_fully_paid_total",
			Help: "Total number of loans settled in full",
		}),
		PaymentsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loancore_payments_processed_total",
			Help: "Payments processed, by outcome",
		}, []string{"outcome"}),
		PaymentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loancore_payment_duration_seconds",
			Help:    "End-to-end duration of payment processing",
			Buckets: prometheus.DefBuckets,
		}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loancore_events_published_total",
			Help: "Domain events handed to the publisher, by type",
		}, []string{"event_type"}),
	}
}

// RecordPayment tracks one payment attempt by outcome.
func (m *Metrics) RecordPayment(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.PaymentsProcessed.WithLabelValues(outcome).Inc()
	m.PaymentDuration.Observe(seconds)
}

// RecordEvent tracks a published domain event.
func (m *Metrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}
