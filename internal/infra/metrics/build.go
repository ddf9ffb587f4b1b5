package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ingest_build_info",
		Help: "A constant metric with labels for version, commit and entry point.",
	},
	[]string{"version", "commit", "command"},
)

func SetBuildInfo(version, commit, command string) {
	buildInfo.WithLabelValues(version, commit, command).Set(1)
}
