package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobStrategiesTotal, jobStageSeconds, tempFilesRemovedTotal, subtitleRetries) }

var (
	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_jobs_processed_total",
			Help: "Total number of summary jobs that reached a terminal state, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	jobStrategiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_strategy_total",
			Help: "Summarization strategies chosen.",
		},
		[]string{"kind"},
	)

	jobStageSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summary_stage_duration_seconds",
			Help:    "Pipeline stage duration.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"stage", "success"},
	)

	tempFilesRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_temp_files_removed_total",
			Help: "Stale staging files removed by the janitor.",
		},
	)

	subtitleRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_command_retries_total",
			Help: "yt-dlp invocations repeated after a transient failure.",
		},
		[]string{"command"},
	)
)

func IncJob(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncStrategy(kind string) {
	jobStrategiesTotal.WithLabelValues(norm(kind)).Inc()
}

func ObserveStage(stage string, seconds float64, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	jobStageSeconds.WithLabelValues(norm(stage), s).Observe(seconds)
}

func IncTempFilesRemoved(n int) {
	tempFilesRemovedTotal.Add(float64(n))
}

func IncSubtitleRetry(command string) {
	subtitleRetries.WithLabelValues(norm(command)).Inc()
}
