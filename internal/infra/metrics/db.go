package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(archiveIndexConns) }

var archiveIndexConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ingest_archive_index_connections",
		Help: "Archive index (Postgres) pool connections by state.",
	},
	[]string{"state"},
)

// SetDBPoolStats publishes a pgxpool snapshot.
func SetDBPoolStats(total, idle, inUse int32) {
	for state, v := range map[string]int32{"total": total, "idle": idle, "in_use": inUse} {
		archiveIndexConns.WithLabelValues(state).Set(float64(v))
	}
}
