package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(batchRunsTotal, batchTickets, batchDurationSeconds, workerQueueRejected) }

var (
	batchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batch_runs_total",
			Help: "Backfill runs, labeled by whether they were interrupted.",
		},
		[]string{"interrupted"},
	)

	batchTickets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_batch_last_run_tickets",
			Help: "Ticket counts of the most recent backfill run.",
		},
		[]string{"status"}, // 'total', 'succeeded', 'skipped', 'failed'
	)

	batchDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_batch_last_run_duration_seconds",
			Help: "Wall time of the most recent backfill run.",
		},
	)

	workerQueueRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_worker_queue_rejected_total",
			Help: "Events processed inline because the worker queue was full.",
		},
	)
)

func ObserveBatchRun(total, succeeded, skipped, failed int, took time.Duration, interrupted bool) {
	if interrupted {
		batchRunsTotal.WithLabelValues("true").Inc()
	} else {
		batchRunsTotal.WithLabelValues("false").Inc()
	}
	batchTickets.WithLabelValues("total").Set(float64(total))
	batchTickets.WithLabelValues("succeeded").Set(float64(succeeded))
	batchTickets.WithLabelValues("skipped").Set(float64(skipped))
	batchTickets.WithLabelValues("failed").Set(float64(failed))
	batchDurationSeconds.Set(took.Seconds())
}

func IncWorkerQueueRejected() { workerQueueRejected.Inc() }
