package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records mutation outcomes and gateway latency for the
// optimistic cart engine.
type CartMetrics struct {
	commits   *prometheus.CounterVec
	rollbacks *prometheus.CounterVec
	gateway   *prometheus.HistogramVec
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a no-op instance.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutation_commits_total",
		Help: "Cart mutations confirmed by the gateway.",
	}, []string{"operation"})
	rollbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutation_rollbacks_total",
		Help: "Cart mutations rolled back after a gateway failure.",
	}, []string{"operation", "code"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_gateway_duration_seconds",
		Help:    "Duration of remote cart gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(commits, rollbacks, gateway)
	return &CartMetrics{
		commits:   commits,
		rollbacks: rollbacks,
		gateway:   gateway,
	}
}

// IncCommit increments the commit counter for the named operation.
func (c *CartMetrics) IncCommit(operation string) {
	if c == nil || c.commits == nil {
		return
	}
	c.commits.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncRollback increments the rollback counter for the named operation and
// failure code.
func (c *CartMetrics) IncRollback(operation, code string) {
	if c == nil || c.rollbacks == nil {
		return
	}
	c.rollbacks.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// ObserveGateway records the duration of a remote gateway call.
func (c *CartMetrics) ObserveGateway(operation string, duration time.Duration) {
	if c == nil || c.gateway == nil {
		return
	}
	c.gateway.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
