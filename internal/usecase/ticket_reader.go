package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
)

const (
	// upstream page size for both ticket and communication listings
	listPageSize = 100

	// OfflineTicketPrefix marks ticket ids served from the offline fixture.
	OfflineTicketPrefix = "case-test-"
	realTicketPrefix    = "case-"
)

// TicketReader fetches tickets and their full communication threads.
type TicketReader struct {
	tickets adapter.TicketSystem
	offline bool
	log     *zerolog.Logger
}

func NewTicketReader(tickets adapter.TicketSystem, offline bool, logger *zerolog.Logger) *TicketReader {
	l := logger.With().Str("component", "TicketReader").Logger()
	return &TicketReader{tickets: tickets, offline: offline, log: &l}
}

// UsesFixture reports whether caseID is answered from the offline fixture:
// test-prefixed ids and anything that is not a real support case id.
func (r *TicketReader) UsesFixture(caseID string) bool {
	if !r.offline {
		return false
	}
	return strings.HasPrefix(caseID, OfflineTicketPrefix) || !strings.HasPrefix(caseID, realTicketPrefix)
}

// Get returns the ticket and every communication on it, oldest first.
func (r *TicketReader) Get(ctx context.Context, caseID string) (*model.TicketThread, error) {
	if r.UsesFixture(caseID) {
		r.log.Warn().Str("case_id", caseID).Msg("offline mode: serving fixture ticket")
		return OfflineFixture(caseID), nil
	}

	t, err := r.tickets.GetTicket(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("describe ticket %s: %w", caseID, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTicketNotFound, caseID)
	}

	comms, err := r.communications(ctx, caseID)
	if err != nil {
		return nil, err
	}
	r.log.Debug().
		Str("case_id", caseID).
		Str("subject", t.Subject).
		Int("communications", len(comms)).
		Msg("ticket fetched")
	return &model.TicketThread{Ticket: *t, Communications: comms}, nil
}

func (r *TicketReader) communications(ctx context.Context, caseID string) ([]model.Communication, error) {
	var (
		out   []model.Communication
		token string
	)
	for {
		page, err := r.tickets.ListCommunications(ctx, caseID, token, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("describe communications %s: %w", caseID, err)
		}
		out = append(out, page.Communications...)
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

// ListWindow returns every ticket created in [after, before]. A listing error
// stops paging; the tickets gathered so far are returned together with an
// error wrapping domain.ErrListing.
func (r *TicketReader) ListWindow(ctx context.Context, after, before string) ([]model.Ticket, error) {
	var (
		out   []model.Ticket
		token string
	)
	for {
		page, err := r.tickets.ListTickets(ctx, adapter.TicketQuery{
			After:      after,
			Before:     before,
			NextToken:  token,
			MaxResults: listPageSize,
		})
		if err != nil {
			r.log.Error().Err(err).Int("collected", len(out)).Msg("ticket listing failed")
			return out, fmt.Errorf("%w: tickets: %v", domain.ErrListing, err)
		}
		out = append(out, page.Tickets...)
		r.log.Debug().Int("page", len(page.Tickets)).Int("total", len(out)).Msg("ticket page listed")
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

// Resolved keeps the tickets whose status is resolved, preserving order.
func Resolved(tickets []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.IsResolved() {
			out = append(out, t)
		}
	}
	return out
}
