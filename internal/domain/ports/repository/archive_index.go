package repository

import (
	"context"

	"support-kb-ingest/internal/domain/model"
)

// ArchiveEntry maps a display id to where its summary was archived.
type ArchiveEntry struct {
	DisplayID  string
	CaseID     string
	ArchiveKey string
	Category   string
	Service    string
}

// ArchiveIndexRepository is a point-lookup index keyed solely by display id.
type ArchiveIndexRepository interface {
	// Claim reserves displayID for caseID. It returns domain.ErrAlreadyClaimed
	// when the display id is archived or held by a claim that has not gone stale.
	Claim(ctx context.Context, displayID, caseID string) error
	// Complete records the archive key for a claimed display id.
	Complete(ctx context.Context, entry ArchiveEntry) error
	// Release drops an unfinished claim so the ticket can be retried.
	Release(ctx context.Context, displayID string) error
	// Exists reports whether displayID has a completed archive.
	Exists(ctx context.Context, displayID string) (bool, error)
	// RecordRun persists a finished batch run.
	RecordRun(ctx context.Context, run *model.BatchRun) error
}
