package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(streamSubscriptions, streamEvents) }

var (
	streamSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_subscriptions_active",
			Help: "Live job status subscriptions.",
		},
	)

	streamEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_events_total",
			Help: "Job status events by name and delivery outcome.",
		},
		[]string{"event", "result"}, // result: 'delivered', 'dropped', 'no_subscriber'
	)
)

func SetSubscriptions(n int) {
	streamSubscriptions.Set(float64(n))
}

func IncStreamEvent(event, result string) {
	streamEvents.WithLabelValues(event, norm(result)).Inc()
}
