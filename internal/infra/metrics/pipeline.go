package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ticketsProcessedTotal,
		archiveWritesTotal,
		archiveListPagesTotal,
		indexSyncTotal,
		eventsReceivedTotal,
	)
}

var (
	ticketsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_tickets_processed_total",
			Help: "Tickets that went through the pipeline, labeled by outcome and failing stage.",
		},
		[]string{"status", "stage"}, // archived|skipped|failed|not_applicable
	)

	archiveWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_archive_writes_total",
			Help: "Object store writes, labeled by result.",
		},
		[]string{"result"},
	)

	archiveListPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_archive_list_pages_total",
			Help: "Object store listing pages fetched, labeled by result.",
		},
		[]string{"result"},
	)

	indexSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_index_sync_total",
			Help: "Knowledge index ingestion jobs requested, labeled by result.",
		},
		[]string{"result"},
	)

	eventsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_received_total",
			Help: "Ticket events received, labeled by entry point.",
		},
		[]string{"source"}, // lambda | http | s3
	)
)

// IncTicket records a ticket outcome. stage is empty unless the ticket failed.
func IncTicket(status, stage string) {
	ticketsProcessedTotal.WithLabelValues(norm(status), norm(stage)).Inc()
}

func IncArchiveWrite(success bool) { archiveWritesTotal.WithLabelValues(result(success)).Inc() }

func IncArchiveListPage(success bool) { archiveListPagesTotal.WithLabelValues(result(success)).Inc() }

func IncIndexSync(success bool) { indexSyncTotal.WithLabelValues(result(success)).Inc() }

func IncEvent(source string) { eventsReceivedTotal.WithLabelValues(norm(source)).Inc() }

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
