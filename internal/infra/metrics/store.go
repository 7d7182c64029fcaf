package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(storeOpsLatencyMs, rateLimitDecisions) }

var (
	storeOpsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_store_op_latency_ms",
			Help:    "Job store operation latency in milliseconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"backend", "op", "success"},
	)

	rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_decisions_total",
			Help: "Submit rate limiter decisions.",
		},
		[]string{"result"}, // 'allowed', 'limited', 'error'
	)
)

func ObserveStoreOp(backend, op string, latencyMs float64, success bool) {
	storeOpsLatencyMs.WithLabelValues(norm(backend), norm(op), strconv.FormatBool(success)).Observe(latencyMs)
}

func IncRateLimit(result string) {
	rateLimitDecisions.WithLabelValues(norm(result)).Inc()
}
