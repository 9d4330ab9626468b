package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics records checkout state machine activity.
type CheckoutMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	rejected    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transitions_total",
		Help: "Checkout step transitions.",
	}, []string{"from", "to"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout operations that left an error on the session.",
	}, []string{"step", "kind"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_duplicate_submissions_total",
		Help: "Shipping submissions rejected while an order creation was in flight.",
	})
	reg.MustRegister(transitions, failures, rejected)
	return &CheckoutMetrics{
		transitions: transitions,
		failures:    failures,
		rejected:    rejected,
	}
}

// IncTransition counts a move between two steps.
func (c *CheckoutMetrics) IncTransition(from, to string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncFailure counts a failed operation for a step (validation, provider).
func (c *CheckoutMetrics) IncFailure(step, kind string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(step), normalizeLabel(kind)).Inc()
}

// IncDuplicateRejected counts a submission blocked by the in-flight guard.
func (c *CheckoutMetrics) IncDuplicateRejected() {
	if c == nil || c.rejected == nil {
		return
	}
	c.rejected.Inc()
}
