package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records settlement, webhook, and delivery fee activity.
type PipelineMetrics struct {
	settlementDuration *prometheus.HistogramVec
	settlementTotal    *prometheus.CounterVec
	webhookTotal       *prometheus.CounterVec
	deliveryFeeTotal   *prometheus.CounterVec
	ruleCacheTotal     *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
// A nil registerer returns a no-op instance so callers can skip nil checks.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	settlementDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_finalize_duration_seconds",
		Help:    "Duration of settlement finalization in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	settlementTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_finalize_total",
		Help: "Settlement finalizations by outcome.",
	}, []string{"outcome"})
	webhookTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Gateway webhook events by type and outcome.",
	}, []string{"event", "outcome"})
	deliveryFeeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_fee_calculations_total",
		Help: "Delivery fee calculations by pricing method.",
	}, []string{"method"})
	ruleCacheTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_rule_cache_total",
		Help: "Delivery rule cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(settlementDuration, settlementTotal, webhookTotal, deliveryFeeTotal, ruleCacheTotal)
	return &PipelineMetrics{
		settlementDuration: settlementDuration,
		settlementTotal:    settlementTotal,
		webhookTotal:       webhookTotal,
		deliveryFeeTotal:   deliveryFeeTotal,
		ruleCacheTotal:     ruleCacheTotal,
	}
}

// ObserveSettlement records one finalization attempt with its duration.
func (p *PipelineMetrics) ObserveSettlement(outcome string, duration time.Duration) {
	if p == nil || p.settlementDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	p.settlementDuration.WithLabelValues(label).Observe(duration.Seconds())
	p.settlementTotal.WithLabelValues(label).Inc()
}

// IncWebhookEvent counts a received webhook event and how it was handled.
func (p *PipelineMetrics) IncWebhookEvent(event, outcome string) {
	if p == nil || p.webhookTotal == nil {
		return
	}
	p.webhookTotal.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// IncDeliveryFee counts a delivery fee calculation by the method that priced it.
func (p *PipelineMetrics) IncDeliveryFee(method string) {
	if p == nil || p.deliveryFeeTotal == nil {
		return
	}
	p.deliveryFeeTotal.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncRuleCache counts a rule cache lookup, result is "hit" or "miss".
func (p *PipelineMetrics) IncRuleCache(result string) {
	if p == nil || p.ruleCacheTotal == nil {
		return
	}
	p.ruleCacheTotal.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
