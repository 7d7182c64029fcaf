package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(poolTasksTotal, poolQueueDepth) }

var (
	poolTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_pool_tasks_total",
			Help: "Tasks handled by worker pools.",
		},
		[]string{"pool", "result"}, // 'ok', 'error', 'panic', 'rejected'
	)

	poolQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_pool_queue_depth",
			Help: "Tasks waiting in a worker pool queue.",
		},
		[]string{"pool"},
	)
)

func IncPoolTask(pool, result string) {
	poolTasksTotal.WithLabelValues(norm(pool), norm(result)).Inc()
}

func SetPoolQueueDepth(pool string, n int) {
	poolQueueDepth.WithLabelValues(norm(pool)).Set(float64(n))
}
