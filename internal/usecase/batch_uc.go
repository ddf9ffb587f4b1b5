package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/domain/ports/repository"
)

const DefaultBatchDelay = time.Second

// Compile-time check
var _ BatchUseCase = (*batchUC)(nil)

// BatchRequest selects the backfill window. Before is optional.
type BatchRequest struct {
	After  string
	Before string
	// Delay between tickets; zero means DefaultBatchDelay.
	Delay time.Duration
}

// BatchUseCase backfills every resolved ticket in a time window.
type BatchUseCase interface {
	Run(ctx context.Context, req BatchRequest) (*model.BatchRun, error)
}

// BatchDeps wires the orchestrator. Index, Runs, Notifier and OnFinish are optional.
type BatchDeps struct {
	Reader    *TicketReader
	Ingest    IngestUseCase
	Index     *IndexTrigger
	Artifacts adapter.ArtifactWriter
	Runs      repository.ArchiveIndexRepository
	Notifier  adapter.Notifier
	OnTicket  func(model.TicketOutcome)
	OnFinish  func(*model.BatchRun)
}

type batchUC struct {
	deps  BatchDeps
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	log   *zerolog.Logger
}

func NewBatchUseCase(deps BatchDeps, logger *zerolog.Logger) *batchUC {
	l := logger.With().Str("component", "BatchUseCase").Logger()
	return &batchUC{deps: deps, sleep: sleepCtx, now: time.Now, log: &l}
}

// Run processes the window one ticket at a time. Per-ticket failures are
// recorded and never abort the run. Cancelling ctx stops the loop; the
// artifact and summary are still produced for what was processed.
func (b *batchUC) Run(ctx context.Context, req BatchRequest) (*model.BatchRun, error) {
	if req.After == "" {
		return nil, fmt.Errorf("%w: window start is required", domain.ErrInvalidArgument)
	}
	delay := req.Delay
	if delay <= 0 {
		delay = DefaultBatchDelay
	}

	run := &model.BatchRun{
		RunID:     ulid.Make().String(),
		After:     req.After,
		Before:    req.Before,
		StartedAt: b.now(),
	}
	log := b.log.With().Str("run_id", run.RunID).Logger()
	log.Info().Str("after", req.After).Str("before", req.Before).Dur("delay", delay).Msg("backfill started")

	tickets, err := b.deps.Reader.ListWindow(ctx, req.After, req.Before)
	if err != nil {
		log.Warn().Err(err).Int("listed", len(tickets)).Msg("continuing with partial ticket listing")
	}
	resolved := Resolved(tickets)
	run.Total = len(resolved)
	log.Info().Int("listed", len(tickets)).Int("resolved", run.Total).Msg("tickets selected")

	for i, t := range resolved {
		if ctx.Err() != nil {
			run.Interrupted = true
			break
		}
		out := b.deps.Ingest.Process(ctx, t.ID, orDefault(t.DisplayID, t.ID), WithoutIndexSync(), WithoutNotify())
		run.Record(out)
		if b.deps.OnTicket != nil {
			b.deps.OnTicket(out)
		}
		log.Info().
			Int("progress", i+1).
			Int("total", run.Total).
			Str("display_id", out.DisplayID).
			Str("status", string(out.Status)).
			Msg("ticket done")

		if i < len(resolved)-1 {
			if err := b.sleep(ctx, delay); err != nil {
				run.Interrupted = true
				break
			}
		}
	}

	b.finish(context.WithoutCancel(ctx), run, &log)
	return run, nil
}

func (b *batchUC) finish(ctx context.Context, run *model.BatchRun, log *zerolog.Logger) {
	run.FinishedAt = b.now()

	if run.Succeeded > 0 && b.deps.Index != nil {
		run.SyncJob, _ = b.deps.Index.Trigger(ctx)
	}

	if len(run.Failures) > 0 && b.deps.Artifacts != nil {
		path, err := b.deps.Artifacts.WriteFailures(ctx, run)
		if err != nil {
			log.Error().Err(err).Int("failures", len(run.Failures)).Msg("error artifact not written")
		} else {
			run.ArtifactPath = path
			log.Info().Str("path", path).Msg("error artifact written")
		}
	}

	if b.deps.Runs != nil {
		if err := b.deps.Runs.RecordRun(ctx, run); err != nil {
			log.Warn().Err(err).Msg("batch run not recorded")
		}
	}

	summary := run.Summary()
	log.Info().
		Int("total", run.Total).
		Int("succeeded", run.Succeeded).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Bool("interrupted", run.Interrupted).
		Msg("backfill finished")

	if b.deps.Notifier != nil {
		if err := b.deps.Notifier.Notify(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("summary notification not delivered")
		}
	}
	if b.deps.OnFinish != nil {
		b.deps.OnFinish(run)
	}
}
