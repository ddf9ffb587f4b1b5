package model

// IngestionJob is one asynchronous resync request against the knowledge index.
type IngestionJob struct {
	ID     string `json:"ingestion_job_id"`
	Status string `json:"status"`
}
