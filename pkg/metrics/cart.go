package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and merge activity.
type CartMetrics struct {
	mutations     *prometheus.CounterVec
	mergeAttempts *prometheus.CounterVec
	mergeDuration prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutation operations by operation and outcome.",
	}, []string{"op", "outcome"})
	mergeAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_merge_attempts_total",
		Help: "Sign-in cart merge attempts by outcome.",
	}, []string{"outcome"})
	mergeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_merge_duration_seconds",
		Help:    "Duration of sign-in cart merges in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(mutations, mergeAttempts, mergeDuration)
	return &CartMetrics{
		mutations:     mutations,
		mergeAttempts: mergeAttempts,
		mergeDuration: mergeDuration,
	}
}

// IncMutation counts one cart mutation.
func (c *CartMetrics) IncMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncMerge counts one merge attempt with its outcome.
func (c *CartMetrics) IncMerge(outcome string) {
	if c == nil || c.mergeAttempts == nil {
		return
	}
	c.mergeAttempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveMergeDuration records how long a merge attempt took.
func (c *CartMetrics) ObserveMergeDuration(duration time.Duration) {
	if c == nil || c.mergeDuration == nil {
		return
	}
	c.mergeDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
