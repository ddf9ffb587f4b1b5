//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/usecase"
)

type stubIngest struct {
	got []model.ResolutionEvent
	out model.TicketOutcome
}

func (s *stubIngest) HandleEvent(ctx context.Context, ev model.ResolutionEvent) model.TicketOutcome {
	s.got = append(s.got, ev)
	out := s.out
	out.CaseID = ev.CaseID
	return out
}

func (s *stubIngest) Process(ctx context.Context, caseID, displayID string, opts ...usecase.ProcessOption) model.TicketOutcome {
	return s.out
}

func TestHandle_AlwaysAcknowledges(t *testing.T) {
	t.Parallel()
	nop := zerolog.Nop()
	ing := &stubIngest{out: model.TicketOutcome{Status: model.OutcomeFailed, Reason: "summarize", Err: errors.New("model unavailable")}}
	h := &handler{ingest: ing, log: &nop}

	resp, err := h.handle(context.Background(), events.CloudWatchEvent{
		ID:         "evt-1",
		DetailType: "Support Case Update",
		Source:     "aws.support",
		Detail:     json.RawMessage(`{"case-id":"case-1","display-id":"1001","event-name":"ResolveCase"}`),
	})
	if err != nil || resp.StatusCode != 200 {
		t.Fatalf("expected 200/nil, got %d/%v", resp.StatusCode, err)
	}
	if len(ing.got) != 1 || ing.got[0].DisplayID != "1001" {
		t.Fatalf("unexpected events: %+v", ing.got)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "failed" || body["error"] != "model unavailable" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandle_UndecodableDetail(t *testing.T) {
	t.Parallel()
	nop := zerolog.Nop()
	ing := &stubIngest{}
	h := &handler{ingest: ing, log: &nop}

	resp, err := h.handle(context.Background(), events.CloudWatchEvent{Detail: json.RawMessage(`"oops"`)})
	if err != nil || resp.StatusCode != 200 {
		t.Fatalf("expected 200/nil, got %d/%v", resp.StatusCode, err)
	}
	if len(ing.got) != 0 {
		t.Fatal("pipeline must not run on an undecodable event")
	}
}
