//go:build !integration

package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// --- Archive key tests ---

func TestArchiveKey(t *testing.T) {
	month := time.Date(2025, time.December, 4, 15, 0, 0, 0, time.UTC)

	t.Run("should build category/service/month/display id path", func(t *testing.T) {
		got := ArchiveKey("technical", "ec2", month, "99999")
		if got != "technical/ec2/2025-12/99999.json" {
			t.Errorf("unexpected key: %s", got)
		}
	})

	t.Run("should be deterministic for the same inputs", func(t *testing.T) {
		a := ArchiveKey("billing", "s3", month, "42")
		b := ArchiveKey("billing", "s3", month, "42")
		if a != b {
			t.Errorf("expected identical keys, got %s and %s", a, b)
		}
	})

	t.Run("should fall back to general for empty segments", func(t *testing.T) {
		got := ArchiveKey("", " ", month, "7")
		if got != "general/general/2025-12/7.json" {
			t.Errorf("unexpected key: %s", got)
		}
	})

	t.Run("should end with the archive suffix", func(t *testing.T) {
		got := ArchiveKey("account", "iam", month, "123")
		if !strings.HasSuffix(got, ArchiveSuffix("123")) {
			t.Errorf("key %s does not end with %s", got, ArchiveSuffix("123"))
		}
	})
}

// --- Event tests ---

func TestResolutionEvent_IsResolve(t *testing.T) {
	if !(ResolutionEvent{EventName: "ResolveCase"}).IsResolve() {
		t.Error("expected ResolveCase to be a resolve event")
	}
	for _, name := range []string{"CreateCase", "AddCommunicationToCase", "ReopenCase", ""} {
		if (ResolutionEvent{EventName: name}).IsResolve() {
			t.Errorf("expected %q not to be a resolve event", name)
		}
	}
}

// --- Batch run tests ---

func TestBatchRun_Record(t *testing.T) {
	run := &BatchRun{RunID: "run-1", Total: 4}
	run.Record(TicketOutcome{Status: OutcomeArchived, CaseID: "c1", DisplayID: "1"})
	run.Record(TicketOutcome{Status: OutcomeSkipped, CaseID: "c2", DisplayID: "2"})
	run.Record(TicketOutcome{Status: OutcomeFailed, CaseID: "c3", DisplayID: "3", Err: errors.New("boom")})
	run.Record(TicketOutcome{Status: OutcomeNotApplicable, CaseID: "c4", DisplayID: "4"})

	if run.Succeeded != 1 || run.Skipped != 1 || run.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", run)
	}
	if run.Processed() != 3 {
		t.Errorf("expected 3 processed, got %d", run.Processed())
	}
	if len(run.Failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(run.Failures))
	}
	f := run.Failures[0]
	if f.CaseID != "c3" || f.DisplayID != "3" || f.Error != "boom" {
		t.Errorf("unexpected failure entry: %+v", f)
	}
}

func TestBatchRun_Summary(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	run := &BatchRun{
		RunID:        "run-2",
		After:        "2023-01-01T00:00:00Z",
		StartedAt:    start,
		FinishedAt:   start.Add(90 * time.Second),
		Total:        5,
		Succeeded:    4,
		Failed:       1,
		ArtifactPath: "migration_errors_20250101_000000.json",
	}
	s := run.Summary()
	for _, want := range []string{"Total:     5", "Succeeded: 4", "Skipped:   0", "Failed:    1", "now", "migration_errors_20250101_000000.json"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}
