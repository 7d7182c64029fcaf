package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "summary_build_info",
		Help: "A constant metric with labels for version, go version and the wired backends.",
	},
	[]string{"version", "go_version", "store", "ai_provider"},
)

func SetBuildInfo(version, store, aiProvider string) {
	buildInfo.WithLabelValues(version, runtime.Version(), norm(store), norm(aiProvider)).Set(1)
}
