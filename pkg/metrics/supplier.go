package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SupplierMetrics tracks upstream supplier API calls.
type SupplierMetrics struct {
	latency  *prometheus.HistogramVec
	failures *prometheus.CounterVec
	cacheHit *prometheus.CounterVec
}

// NewSupplierMetrics registers the supplier call metrics on the provided registerer.
func NewSupplierMetrics(reg prometheus.Registerer) *SupplierMetrics {
	if reg == nil {
		return &SupplierMetrics{}
	}
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supplier_request_duration_seconds",
		Help:    "Latency of supplier API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"supplier", "operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_request_failures_total",
		Help: "Failed supplier API calls.",
	}, []string{"supplier", "operation"})
	cacheHit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_cache_hits_total",
		Help: "Supplier responses served from cache.",
	}, []string{"supplier", "operation"})
	reg.MustRegister(latency, failures, cacheHit)
	return &SupplierMetrics{
		latency:  latency,
		failures: failures,
		cacheHit: cacheHit,
	}
}

// ObserveRequest records latency for a supplier call.
func (s *SupplierMetrics) ObserveRequest(supplier, operation string, duration time.Duration) {
	if s == nil || s.latency == nil {
		return
	}
	s.latency.WithLabelValues(normalizeLabel(supplier), normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncFailure counts a failed supplier call.
func (s *SupplierMetrics) IncFailure(supplier, operation string) {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.WithLabelValues(normalizeLabel(supplier), normalizeLabel(operation)).Inc()
}

// IncCacheHit counts a response served from the supplier cache.
func (s *SupplierMetrics) IncCacheHit(supplier, operation string) {
	if s == nil || s.cacheHit == nil {
		return
	}
	s.cacheHit.WithLabelValues(normalizeLabel(supplier), normalizeLabel(operation)).Inc()
}
