package usecase

import (
	"context"
	"sync/atomic"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
)

// Compile-time check
var _ BatchUseCase = (*ExclusiveBatch)(nil)

// ExclusiveBatch lets at most one backfill run at a time in this process,
// whoever starts it.
type ExclusiveBatch struct {
	inner BatchUseCase
	busy  atomic.Bool
}

func NewExclusiveBatch(inner BatchUseCase) *ExclusiveBatch {
	return &ExclusiveBatch{inner: inner}
}

// Run blocks until the run ends. It returns domain.ErrBatchRunning without
// starting anything when another run holds the slot.
func (e *ExclusiveBatch) Run(ctx context.Context, req BatchRequest) (*model.BatchRun, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrBatchRunning
	}
	defer e.busy.Store(false)
	return e.inner.Run(ctx, req)
}

// Start reserves the slot synchronously and runs in the background, calling
// done (if set) with the result.
func (e *ExclusiveBatch) Start(ctx context.Context, req BatchRequest, done func(*model.BatchRun, error)) error {
	if !e.busy.CompareAndSwap(false, true) {
		return domain.ErrBatchRunning
	}
	go func() {
		defer e.busy.Store(false)
		run, err := e.inner.Run(ctx, req)
		if done != nil {
			done(run, err)
		}
	}()
	return nil
}

// Running reports whether a run currently holds the slot.
func (e *ExclusiveBatch) Running() bool { return e.busy.Load() }
