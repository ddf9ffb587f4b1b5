package domain

import (
	"errors"
	"fmt"
)

var (
	// Pipeline errors
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrSummarization   = errors.New("summarization failed")
	ErrArchiveWrite    = errors.New("archive write failed")
	ErrIndexSync       = errors.New("index sync failed")
	ErrListing         = errors.New("listing failed")
	ErrLockNotAcquired = errors.New("ticket is being processed elsewhere")
	ErrAlreadyClaimed  = errors.New("display id already claimed")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBatchRunning    = errors.New("a backfill is already running")

	// Database errors
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// TicketError attaches the offending ticket's identifiers to a fatal pipeline error.
type TicketError struct {
	CaseID    string
	DisplayID string
	Err       error
}

func (e *TicketError) Error() string {
	return fmt.Sprintf("ticket %s (case %s): %v", e.DisplayID, e.CaseID, e.Err)
}

func (e *TicketError) Unwrap() error { return e.Err }
