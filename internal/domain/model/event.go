package model

// EventResolveCase is the only action that starts the ingestion pipeline.
const EventResolveCase = "ResolveCase"

// ResolutionEvent is the detail of a ticket lifecycle notification.
type ResolutionEvent struct {
	CaseID    string `json:"case-id"`
	DisplayID string `json:"display-id"`
	EventName string `json:"event-name"`
}

func (e ResolutionEvent) IsResolve() bool { return e.EventName == EventResolveCase }
