package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics counts settlement runs and payouts. A nil receiver is a no-op.
type SettlementMetrics struct {
	runs        *prometheus.CounterVec
	created     prometheus.Counter
	runDuration prometheus.Histogram
	payments    *prometheus.CounterVec
}

func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	m := &SettlementMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "confirm_runs_total",
			Help:      "Confirm runs by outcome.",
		}, []string{"result"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "records_created_total",
			Help:      "Settlement records persisted by confirm runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "settlement",
			Name:      "confirm_duration_seconds",
			Help:      "Wall time of confirm runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "mark_paid_total",
			Help:      "Mark-paid calls by outcome.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.runs, m.created, m.runDuration, m.payments)
	return m
}

func (m *SettlementMetrics) ObserveConfirm(result string, created int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.created.Add(float64(created))
	m.runDuration.Observe(elapsed.Seconds())
}

func (m *SettlementMetrics) ObserveMarkPaid(result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(result).Inc()
}
