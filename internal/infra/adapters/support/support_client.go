package support

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssupport "github.com/aws/aws-sdk-go-v2/service/support"
	"github.com/aws/aws-sdk-go-v2/service/support/types"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.TicketSystem = (*TicketSystem)(nil)

// API is the part of the AWS Support client the adapter calls.
type API interface {
	DescribeCases(ctx context.Context, in *awssupport.DescribeCasesInput, optFns ...func(*awssupport.Options)) (*awssupport.DescribeCasesOutput, error)
	DescribeCommunications(ctx context.Context, in *awssupport.DescribeCommunicationsInput, optFns ...func(*awssupport.Options)) (*awssupport.DescribeCommunicationsOutput, error)
}

// TicketSystem reads cases and their communications from AWS Support.
type TicketSystem struct {
	api      API
	language string
	log      *zerolog.Logger
}

func NewTicketSystem(api API, language string, logger *zerolog.Logger) (*TicketSystem, error) {
	if api == nil {
		return nil, errors.New("support: nil client")
	}
	if language == "" {
		language = "en"
	}
	return &TicketSystem{api: api, language: language, log: logger}, nil
}

func (s *TicketSystem) ListTickets(ctx context.Context, q adapter.TicketQuery) (adapter.TicketPage, error) {
	in := &awssupport.DescribeCasesInput{
		IncludeResolvedCases: true,
		AfterTime:            optString(q.After),
		BeforeTime:           optString(q.Before),
		NextToken:            optString(q.NextToken),
		Language:             aws.String(s.language),
	}
	if q.MaxResults > 0 {
		in.MaxResults = aws.Int32(int32(q.MaxResults))
	}
	out, err := s.api.DescribeCases(ctx, in)
	if err != nil {
		return adapter.TicketPage{}, fmt.Errorf("describe cases: %w", err)
	}
	page := adapter.TicketPage{NextToken: aws.ToString(out.NextToken)}
	for _, c := range out.Cases {
		page.Tickets = append(page.Tickets, toTicket(c))
	}
	s.log.Debug().Int("cases", len(page.Tickets)).Bool("more", page.NextToken != "").Msg("support: listed cases")
	return page, nil
}

func (s *TicketSystem) GetTicket(ctx context.Context, caseID string) (*model.Ticket, error) {
	out, err := s.api.DescribeCases(ctx, &awssupport.DescribeCasesInput{
		CaseIdList:           []string{caseID},
		IncludeResolvedCases: true,
		Language:             aws.String(s.language),
	})
	if err != nil {
		var nf *types.CaseIdNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("describe case %s: %w", caseID, err)
	}
	if len(out.Cases) == 0 {
		return nil, nil
	}
	t := toTicket(out.Cases[0])
	return &t, nil
}

func (s *TicketSystem) ListCommunications(ctx context.Context, caseID, nextToken string, maxResults int) (adapter.CommunicationPage, error) {
	in := &awssupport.DescribeCommunicationsInput{
		CaseId:    aws.String(caseID),
		NextToken: optString(nextToken),
	}
	if maxResults > 0 {
		in.MaxResults = aws.Int32(int32(maxResults))
	}
	out, err := s.api.DescribeCommunications(ctx, in)
	if err != nil {
		return adapter.CommunicationPage{}, fmt.Errorf("describe communications %s: %w", caseID, err)
	}
	page := adapter.CommunicationPage{NextToken: aws.ToString(out.NextToken)}
	for _, c := range out.Communications {
		page.Communications = append(page.Communications, model.Communication{
			TicketID:    aws.ToString(c.CaseId),
			SubmittedBy: aws.ToString(c.SubmittedBy),
			Body:        aws.ToString(c.Body),
			CreatedAt:   aws.ToString(c.TimeCreated),
		})
	}
	return page, nil
}

func toTicket(c types.CaseDetails) model.Ticket {
	return model.Ticket{
		ID:           aws.ToString(c.CaseId),
		DisplayID:    aws.ToString(c.DisplayId),
		Subject:      aws.ToString(c.Subject),
		Status:       aws.ToString(c.Status),
		ServiceCode:  aws.ToString(c.ServiceCode),
		SeverityCode: aws.ToString(c.SeverityCode),
		CreatedAt:    aws.ToString(c.TimeCreated),
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
