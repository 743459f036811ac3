package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics counts payment webhook deliveries by provider and outcome.
type WebhookMetrics struct {
	received  *prometheus.CounterVec
	accepted  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	duplicate *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_received_total",
		Help: "Webhook deliveries received, before signature verification.",
	}, []string{"provider"})
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_accepted_total",
		Help: "Webhook deliveries that passed verification and were applied.",
	}, []string{"provider", "event"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_rejected_total",
		Help: "Webhook deliveries rejected for bad signatures or payloads.",
	}, []string{"provider", "reason"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicate_total",
		Help: "Webhook deliveries skipped by the idempotency guard.",
	}, []string{"provider"})
	reg.MustRegister(received, accepted, rejected, duplicate)
	return &WebhookMetrics{
		received:  received,
		accepted:  accepted,
		rejected:  rejected,
		duplicate: duplicate,
	}
}

// IncReceived counts a delivery for the provider.
func (w *WebhookMetrics) IncReceived(provider string) {
	if w == nil || w.received == nil {
		return
	}
	w.received.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncAccepted counts an applied delivery for the provider and event type.
func (w *WebhookMetrics) IncAccepted(provider, event string) {
	if w == nil || w.accepted == nil {
		return
	}
	w.accepted.WithLabelValues(normalizeLabel(provider), normalizeLabel(event)).Inc()
}

// IncRejected counts a rejected delivery with a reason label.
func (w *WebhookMetrics) IncRejected(provider, reason string) {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.WithLabelValues(normalizeLabel(provider), normalizeLabel(reason)).Inc()
}

// IncDuplicate counts a delivery skipped as already processed.
func (w *WebhookMetrics) IncDuplicate(provider string) {
	if w == nil || w.duplicate == nil {
		return
	}
	w.duplicate.WithLabelValues(normalizeLabel(provider)).Inc()
}
