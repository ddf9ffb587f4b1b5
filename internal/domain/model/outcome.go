package model

type OutcomeStatus string

const (
	OutcomeNotApplicable OutcomeStatus = "not_applicable"
	OutcomeSkipped       OutcomeStatus = "skipped"
	OutcomeArchived      OutcomeStatus = "archived"
	OutcomeFailed        OutcomeStatus = "failed"
)

// TicketOutcome is the explicit result of running the pipeline for one ticket.
type TicketOutcome struct {
	Status     OutcomeStatus `json:"status"`
	CaseID     string        `json:"case_id"`
	DisplayID  string        `json:"display_id"`
	ArchiveKey string        `json:"archive_key,omitempty"`
	Category   string        `json:"category,omitempty"`
	Service    string        `json:"service,omitempty"`
	SyncJob    *IngestionJob `json:"sync_job,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Err        error         `json:"-"`
}

func (o TicketOutcome) Failed() bool { return o.Status == OutcomeFailed }

// ErrorText is the failure message, empty unless the outcome failed.
func (o TicketOutcome) ErrorText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
