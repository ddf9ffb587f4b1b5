package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/repository"
)

var _ repository.ArchiveIndexRepository = (*archiveIndexRepo)(nil)

type archiveIndexRepo struct {
	pool  *pgxpool.Pool
	tm    repository.TransactionManager
	stale time.Duration
}

// NewArchiveIndexRepo returns the display-id index. Claims older than stale
// that never completed may be taken over by a new claimant.
func NewArchiveIndexRepo(pool *pgxpool.Pool, tm repository.TransactionManager, stale time.Duration) repository.ArchiveIndexRepository {
	if stale <= 0 {
		stale = 15 * time.Minute
	}
	return &archiveIndexRepo{pool: pool, tm: tm, stale: stale}
}

func (r *archiveIndexRepo) Claim(ctx context.Context, displayID, caseID string) error {
	const q = `
INSERT INTO archive_index (display_id, case_id, status, claimed_at)
VALUES ($1, $2, 'claimed', now())
ON CONFLICT (display_id) DO UPDATE
    SET case_id = EXCLUDED.case_id, claimed_at = now()
    WHERE archive_index.status = 'claimed'
      AND archive_index.claimed_at < now() - make_interval(secs => $3)
RETURNING display_id`

	row, err := pickRow(ctx, r.pool, nil, q, displayID, caseID, r.stale.Seconds())
	if err != nil {
		return err
	}
	var got string
	if err := row.Scan(&got); err != nil {
		// the conflict WHERE filtered the update out: someone else holds it
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAlreadyClaimed
		}
		return fmt.Errorf("claim %s: %w", displayID, err)
	}
	return nil
}

func (r *archiveIndexRepo) Complete(ctx context.Context, e repository.ArchiveEntry) error {
	const q = `
INSERT INTO archive_index (display_id, case_id, status, archive_key, category, service, archived_at)
VALUES ($1, $2, 'archived', $3, $4, $5, now())
ON CONFLICT (display_id) DO UPDATE
    SET case_id     = EXCLUDED.case_id,
        status      = 'archived',
        archive_key = EXCLUDED.archive_key,
        category    = EXCLUDED.category,
        service     = EXCLUDED.service,
        archived_at = now()`

	if _, err := execSQL(ctx, r.pool, nil, q, e.DisplayID, e.CaseID, e.ArchiveKey, e.Category, e.Service); err != nil {
		return fmt.Errorf("complete %s: %w", e.DisplayID, err)
	}
	return nil
}

func (r *archiveIndexRepo) Release(ctx context.Context, displayID string) error {
	const q = `DELETE FROM archive_index WHERE display_id = $1 AND status = 'claimed'`
	if _, err := execSQL(ctx, r.pool, nil, q, displayID); err != nil {
		return fmt.Errorf("release %s: %w", displayID, err)
	}
	return nil
}

func (r *archiveIndexRepo) Exists(ctx context.Context, displayID string) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM archive_index WHERE display_id = $1 AND status = 'archived'
)`
	row, err := pickRow(ctx, r.pool, nil, q, displayID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *archiveIndexRepo) RecordRun(ctx context.Context, run *model.BatchRun) error {
	const insertRun = `
INSERT INTO batch_runs (run_id, window_after, window_before, started_at, finished_at,
                        total, succeeded, skipped, failed, sync_job_id, artifact_path, interrupted)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12)`
	const insertFailure = `
INSERT INTO batch_failures (run_id, case_id, display_id, error) VALUES ($1, $2, $3, $4)`

	syncJob := ""
	if run.SyncJob != nil {
		syncJob = run.SyncJob.ID
	}
	return r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		_, err := execSQL(ctx, r.pool, tx, insertRun,
			run.RunID, run.After, run.Before, run.StartedAt, run.FinishedAt,
			run.Total, run.Succeeded, run.Skipped, run.Failed, syncJob, run.ArtifactPath, run.Interrupted)
		if err != nil {
			return fmt.Errorf("insert batch run %s: %w", run.RunID, err)
		}
		for _, f := range run.Failures {
			if _, err := execSQL(ctx, r.pool, tx, insertFailure, run.RunID, f.CaseID, f.DisplayID, f.Error); err != nil {
				return fmt.Errorf("insert batch failure %s: %w", f.DisplayID, err)
			}
		}
		return nil
	})
}
