package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/domain/ports/repository"
)

const defaultLockTTL = 5 * time.Minute

// Compile-time check
var _ IngestUseCase = (*ingestUC)(nil)

// IngestUseCase runs the single-ticket pipeline:
// duplicate check -> fetch -> summarize -> archive -> index sync.
type IngestUseCase interface {
	// HandleEvent processes resolution events and ignores every other action.
	HandleEvent(ctx context.Context, ev model.ResolutionEvent) model.TicketOutcome
	Process(ctx context.Context, caseID, displayID string, opts ...ProcessOption) model.TicketOutcome
}

type processOptions struct {
	skipIndexSync bool
	quiet         bool
}

type ProcessOption func(*processOptions)

// WithoutIndexSync leaves index resynchronization to the caller.
func WithoutIndexSync() ProcessOption {
	return func(o *processOptions) { o.skipIndexSync = true }
}

// WithoutNotify suppresses per-ticket failure notifications.
func WithoutNotify() ProcessOption {
	return func(o *processOptions) { o.quiet = true }
}

// IngestDeps wires the pipeline. Claims, Locker, Notifier and OnOutcome are optional.
type IngestDeps struct {
	Reader     *TicketReader
	Summarizer *Summarizer
	Archive    *ArchiveStore
	Duplicates DuplicateChecker
	Index      *IndexTrigger

	Claims    repository.ArchiveIndexRepository
	Locker    adapter.Locker
	LockTTL   time.Duration
	Notifier  adapter.Notifier
	OnOutcome func(model.TicketOutcome)
}

type ingestUC struct {
	deps IngestDeps
	log  *zerolog.Logger
}

func NewIngestUseCase(deps IngestDeps, logger *zerolog.Logger) *ingestUC {
	if deps.LockTTL <= 0 {
		deps.LockTTL = defaultLockTTL
	}
	l := logger.With().Str("component", "IngestUseCase").Logger()
	return &ingestUC{deps: deps, log: &l}
}

func (u *ingestUC) HandleEvent(ctx context.Context, ev model.ResolutionEvent) model.TicketOutcome {
	u.log.Info().
		Str("event_name", ev.EventName).
		Str("case_id", ev.CaseID).
		Str("display_id", ev.DisplayID).
		Msg("event received")
	if !ev.IsResolve() {
		out := model.TicketOutcome{
			Status:    model.OutcomeNotApplicable,
			CaseID:    ev.CaseID,
			DisplayID: ev.DisplayID,
			Reason:    fmt.Sprintf("event %q is not %s", ev.EventName, model.EventResolveCase),
		}
		u.finish(ctx, out, processOptions{})
		return out
	}
	return u.Process(ctx, ev.CaseID, ev.DisplayID)
}

func (u *ingestUC) Process(ctx context.Context, caseID, displayID string, opts ...ProcessOption) model.TicketOutcome {
	var o processOptions
	for _, opt := range opts {
		opt(&o)
	}
	if displayID == "" {
		displayID = caseID
	}
	out := model.TicketOutcome{CaseID: caseID, DisplayID: displayID}
	log := u.log.With().Str("case_id", caseID).Str("display_id", displayID).Logger()

	if caseID == "" {
		out = u.fail(out, "validate", fmt.Errorf("%w: empty case id", domain.ErrInvalidArgument))
		u.finish(ctx, out, o)
		return out
	}

	unlock, ok := u.lock(ctx, displayID, &log)
	if !ok {
		out.Status = model.OutcomeSkipped
		out.Reason = domain.ErrLockNotAcquired.Error()
		u.finish(ctx, out, o)
		return out
	}
	if unlock != nil {
		defer unlock()
	}

	if u.deps.Duplicates != nil && u.deps.Duplicates.Exists(ctx, displayID) {
		log.Info().Msg("already archived, skipping")
		out.Status = model.OutcomeSkipped
		out.Reason = "already archived"
		u.finish(ctx, out, o)
		return out
	}

	claimed, ok := u.claim(ctx, caseID, displayID, &log)
	if !ok {
		out.Status = model.OutcomeSkipped
		out.Reason = domain.ErrAlreadyClaimed.Error()
		u.finish(ctx, out, o)
		return out
	}

	out = u.run(ctx, out, &log)
	if claimed {
		u.settleClaim(ctx, out, &log)
	}
	if out.Failed() {
		u.finish(ctx, out, o)
		return out
	}

	if !o.skipIndexSync && u.deps.Index != nil {
		out.SyncJob, _ = u.deps.Index.Trigger(ctx)
	}
	u.finish(ctx, out, o)
	return out
}

// run executes fetch -> summarize -> archive.
func (u *ingestUC) run(ctx context.Context, out model.TicketOutcome, log *zerolog.Logger) model.TicketOutcome {
	log.Info().Msg("fetching ticket")
	thread, err := u.deps.Reader.Get(ctx, out.CaseID)
	if err != nil {
		return u.fail(out, "fetch", err)
	}
	if thread.Ticket.DisplayID == "" {
		thread.Ticket.DisplayID = out.DisplayID
	}

	log.Info().Int("communications", len(thread.Communications)).Msg("summarizing ticket")
	rec, err := u.deps.Summarizer.Summarize(ctx, thread)
	if err != nil {
		return u.fail(out, "summarize", err)
	}
	out.Category = rec.Category
	out.Service = rec.Service

	key, err := u.deps.Archive.Put(ctx, rec, out.DisplayID)
	if err != nil {
		return u.fail(out, "archive", err)
	}
	out.ArchiveKey = key
	out.Status = model.OutcomeArchived
	return out
}

func (u *ingestUC) fail(out model.TicketOutcome, stage string, err error) model.TicketOutcome {
	out.Status = model.OutcomeFailed
	out.Reason = stage
	out.Err = &domain.TicketError{CaseID: out.CaseID, DisplayID: out.DisplayID, Err: err}
	return out
}

// lock returns ok=false only on contention; an unavailable lock service lets
// the pipeline continue unlocked.
func (u *ingestUC) lock(ctx context.Context, displayID string, log *zerolog.Logger) (func(), bool) {
	if u.deps.Locker == nil {
		return nil, true
	}
	key := "ingest:lock:" + displayID
	token, err := u.deps.Locker.TryLock(ctx, key, u.deps.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			log.Warn().Msg("ticket locked by another invocation, skipping")
			return nil, false
		}
		log.Warn().Err(err).Msg("lock unavailable, continuing without it")
		return nil, true
	}
	return func() {
		if err := u.deps.Locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn().Err(err).Msg("unlock failed")
		}
	}, true
}

// claim reserves the display id in the archive index. claimed reports whether
// a row is now held by this invocation.
func (u *ingestUC) claim(ctx context.Context, caseID, displayID string, log *zerolog.Logger) (claimed, ok bool) {
	if u.deps.Claims == nil {
		return false, true
	}
	err := u.deps.Claims.Claim(ctx, displayID, caseID)
	switch {
	case err == nil:
		return true, true
	case errors.Is(err, domain.ErrAlreadyClaimed):
		log.Info().Msg("display id already claimed, skipping")
		return false, false
	default:
		log.Warn().Err(err).Msg("archive index claim failed, continuing unclaimed")
		return false, true
	}
}

func (u *ingestUC) settleClaim(ctx context.Context, out model.TicketOutcome, log *zerolog.Logger) {
	ctx = context.WithoutCancel(ctx)
	if out.Failed() {
		if err := u.deps.Claims.Release(ctx, out.DisplayID); err != nil {
			log.Warn().Err(err).Msg("release claim failed")
		}
		return
	}
	err := u.deps.Claims.Complete(ctx, repository.ArchiveEntry{
		DisplayID:  out.DisplayID,
		CaseID:     out.CaseID,
		ArchiveKey: out.ArchiveKey,
		Category:   out.Category,
		Service:    out.Service,
	})
	if err != nil {
		log.Warn().Err(err).Msg("archive index update failed")
	}
}

func (u *ingestUC) finish(ctx context.Context, out model.TicketOutcome, o processOptions) {
	ev := u.log.Info()
	if out.Failed() {
		ev = u.log.Error().Err(out.Err)
	}
	ev.Str("case_id", out.CaseID).
		Str("display_id", out.DisplayID).
		Str("status", string(out.Status)).
		Str("archive_key", out.ArchiveKey).
		Str("reason", out.Reason).
		Msg("ticket processed")

	if u.deps.OnOutcome != nil {
		u.deps.OnOutcome(out)
	}
	if out.Failed() && !o.quiet && u.deps.Notifier != nil {
		text := fmt.Sprintf("Ticket %s (case %s) failed at %s: %v", out.DisplayID, out.CaseID, out.Reason, out.Err)
		if err := u.deps.Notifier.Notify(context.WithoutCancel(ctx), text); err != nil {
			u.log.Warn().Err(err).Msg("failure notification not delivered")
		}
	}
}
