package model

const (
	TicketStatusResolved = "resolved"
)

// Ticket is a support case as reported by the upstream ticket system.
type Ticket struct {
	ID           string
	DisplayID    string
	Subject      string
	Status       string
	ServiceCode  string
	SeverityCode string
	CreatedAt    string
	ResolvedAt   string
}

func (t Ticket) IsResolved() bool { return t.Status == TicketStatusResolved }

// Communication is one message in a ticket's thread.
type Communication struct {
	TicketID    string
	SubmittedBy string
	Body        string
	CreatedAt   string
}

// TicketThread is a ticket with its communications in chronological order.
type TicketThread struct {
	Ticket         Ticket
	Communications []Communication
}
