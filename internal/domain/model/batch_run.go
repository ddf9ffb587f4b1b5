package model

import (
	"fmt"
	"strings"
	"time"
)

// BatchFailure is one entry of the run's error artifact.
type BatchFailure struct {
	CaseID    string `json:"case_id"`
	DisplayID string `json:"display_id"`
	Error     string `json:"error"`
}

// BatchRun aggregates the outcomes of one backfill execution.
type BatchRun struct {
	RunID        string
	After        string
	Before       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Total        int
	Succeeded    int
	Skipped      int
	Failed       int
	Failures     []BatchFailure
	SyncJob      *IngestionJob
	ArtifactPath string
	Interrupted  bool
}

// Record folds one ticket outcome into the run.
func (r *BatchRun) Record(o TicketOutcome) {
	switch o.Status {
	case OutcomeArchived:
		r.Succeeded++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
		r.Failures = append(r.Failures, BatchFailure{
			CaseID:    o.CaseID,
			DisplayID: o.DisplayID,
			Error:     o.ErrorText(),
		})
	}
}

// Processed is the number of tickets that reached a terminal outcome.
func (r *BatchRun) Processed() int { return r.Succeeded + r.Skipped + r.Failed }

// Summary renders the human readable run report.
func (r *BatchRun) Summary() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	b.WriteString(line + "\n")
	if r.Interrupted {
		fmt.Fprintf(&b, "Backfill %s interrupted\n", r.RunID)
	} else {
		fmt.Fprintf(&b, "Backfill %s complete\n", r.RunID)
	}
	b.WriteString(line + "\n")
	if r.After != "" {
		before := r.Before
		if before == "" {
			before = "now"
		}
		fmt.Fprintf(&b, "Window:    %s .. %s\n", r.After, before)
	}
	fmt.Fprintf(&b, "Total:     %d\n", r.Total)
	fmt.Fprintf(&b, "Succeeded: %d\n", r.Succeeded)
	fmt.Fprintf(&b, "Skipped:   %d\n", r.Skipped)
	fmt.Fprintf(&b, "Failed:    %d\n", r.Failed)
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration:  %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	b.WriteString(line + "\n")
	if r.Failed > 0 {
		fmt.Fprintf(&b, "%d ticket(s) failed", r.Failed)
		if r.ArtifactPath != "" {
			fmt.Fprintf(&b, ", see %s", r.ArtifactPath)
		}
		b.WriteString("\n")
	}
	return b.String()
}
