package adapter

import (
	"context"

	"support-kb-ingest/internal/domain/model"
)

// TicketQuery selects one page of tickets created inside a time window.
type TicketQuery struct {
	After      string // inclusive, ISO-8601
	Before     string // inclusive, ISO-8601, optional
	NextToken  string
	MaxResults int
}

type TicketPage struct {
	Tickets   []model.Ticket
	NextToken string
}

type CommunicationPage struct {
	Communications []model.Communication
	NextToken      string
}

// TicketSystem is the upstream support case API.
type TicketSystem interface {
	ListTickets(ctx context.Context, q TicketQuery) (TicketPage, error)
	// GetTicket returns (nil, nil) when the upstream reports no matching ticket.
	GetTicket(ctx context.Context, caseID string) (*model.Ticket, error)
	ListCommunications(ctx context.Context, caseID, nextToken string, maxResults int) (CommunicationPage, error)
}
