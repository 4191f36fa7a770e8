package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics counts business outcomes of the lending endpoints
type LendingMetrics struct {
	decisions     *prometheus.CounterVec
	payments      *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

// NewLendingMetrics registers the lending counters with reg
func NewLendingMetrics(reg prometheus.Registerer) *LendingMetrics {
	m := &LendingMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldlink_applications_decided_total",
				Help: "Applications approved or rejected",
			},
			[]string{"decision"},
		),
		payments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldlink_payments_total",
				Help: "Payment intents by gateway and outcome",
			},
			[]string{"gateway", "outcome"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldlink_webhook_events_total",
				Help: "Gateway webhook deliveries by reconciliation outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.decisions, m.payments, m.webhookEvents)
	return m
}

func (m *LendingMetrics) decided(decision string) {
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *LendingMetrics) payment(gateway, outcome string) {
	m.payments.WithLabelValues(gateway, outcome).Inc()
}

func (m *LendingMetrics) webhook(outcome string) {
	m.webhookEvents.WithLabelValues(outcome).Inc()
}
