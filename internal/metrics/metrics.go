// Package metrics exposes Prometheus counters for reminder dispatch,
// outbound SMS and billing webhook processing.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDropped   = "dropped"
	WebhookOutcomeError     = "error"
)

// Metrics captures dispatch health signals.
type Metrics struct {
	dispatchRuns     prometheus.Counter
	dispatchDuration prometheus.Observer
	remindersSent    prometheus.Counter
	remindersFailed  *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// Default returns the singleton metrics registry.
func Default() *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return metrics
}

// ResetForTest resets the metrics singleton for tests.
func ResetForTest() {
	metricsOnce = sync.Once{}
	metrics = nil
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	dispatchRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autoremind_dispatch_runs_total",
		Help: "Reminder dispatch runs.",
	})
	dispatchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoremind_dispatch_duration_seconds",
		Help:    "Reminder dispatch run latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
	remindersSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autoremind_reminders_sent_total",
		Help: "Reminder messages accepted by the carrier.",
	})
	remindersFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoremind_reminders_failed_total",
		Help: "Reminder messages that failed, by error category.",
	}, []string{"category"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoremind_billing_webhook_events_total",
		Help: "Billing webhook events by type and outcome.",
	}, []string{"type", "outcome"})

	registerer.MustRegister(
		dispatchRuns,
		dispatchDuration,
		remindersSent,
		remindersFailed,
		webhookEvents,
	)

	return &Metrics{
		dispatchRuns:     dispatchRuns,
		dispatchDuration: dispatchDuration,
		remindersSent:    remindersSent,
		remindersFailed:  remindersFailed,
		webhookEvents:    webhookEvents,
	}
}

// IncDispatchRun increments the dispatch run counter.
func (m *Metrics) IncDispatchRun() {
	if m == nil || m.dispatchRuns == nil {
		return
	}
	m.dispatchRuns.Inc()
}

// ObserveDispatchDuration records dispatch run latency in seconds.
func (m *Metrics) ObserveDispatchDuration(duration time.Duration) {
	if m == nil || m.dispatchDuration == nil {
		return
	}
	m.dispatchDuration.Observe(duration.Seconds())
}

// IncReminderSent increments the sent counter.
func (m *Metrics) IncReminderSent() {
	if m == nil || m.remindersSent == nil {
		return
	}
	m.remindersSent.Inc()
}

// IncReminderFailed increments the failed counter for an error category.
func (m *Metrics) IncReminderFailed(category string) {
	if m == nil || m.remindersFailed == nil {
		return
	}
	m.remindersFailed.WithLabelValues(category).Inc()
}

// IncWebhookEvent increments the webhook event counter.
func (m *Metrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}
