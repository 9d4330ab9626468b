package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records how catalog queries are scheduled and answered.
type CatalogMetrics struct {
	dispatched *prometheus.CounterVec
	collapsed  prometheus.Counter
	discarded  prometheus.Counter
	latency    *prometheus.HistogramVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_queries_total",
		Help: "Catalog queries dispatched to the provider, by outcome.",
	}, []string{"outcome"})
	collapsed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_queries_debounced_total",
		Help: "Catalog submissions replaced before their quiet interval elapsed.",
	})
	discarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_responses_discarded_total",
		Help: "Catalog responses dropped because a newer query superseded them.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_provider_duration_seconds",
		Help:    "Duration of catalog provider calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(dispatched, collapsed, discarded, latency)
	return &CatalogMetrics{
		dispatched: dispatched,
		collapsed:  collapsed,
		discarded:  discarded,
		latency:    latency,
	}
}

// IncDispatched counts a provider call with its outcome (ok, error, canceled).
func (c *CatalogMetrics) IncDispatched(outcome string) {
	if c == nil || c.dispatched == nil {
		return
	}
	c.dispatched.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCollapsed counts a pending submission replaced by a newer one.
func (c *CatalogMetrics) IncCollapsed() {
	if c == nil || c.collapsed == nil {
		return
	}
	c.collapsed.Inc()
}

// IncDiscarded counts a response ignored because its generation is stale.
func (c *CatalogMetrics) IncDiscarded() {
	if c == nil || c.discarded == nil {
		return
	}
	c.discarded.Inc()
}

// ObserveProvider records the duration of a provider operation.
func (c *CatalogMetrics) ObserveProvider(operation string, duration time.Duration) {
	if c == nil || c.latency == nil {
		return
	}
	c.latency.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
