// File: cmd/ingest-lambda/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/app"
	"support-kb-ingest/internal/config"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/infra/logging"
	"support-kb-ingest/internal/infra/metrics"
	"support-kb-ingest/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

type handler struct {
	ingest usecase.IngestUseCase
	log    *zerolog.Logger
}

// handle always acknowledges so the event bus never retries; failures are
// reported through logs, metrics and the notifier.
func (h *handler) handle(ctx context.Context, ev events.CloudWatchEvent) (events.APIGatewayProxyResponse, error) {
	metrics.IncEvent("lambda")
	ctx = logging.WithRequestID(ctx, ev.ID)

	var detail model.ResolutionEvent
	if err := json.Unmarshal(ev.Detail, &detail); err != nil {
		logging.With(ctx, h.log).Error().Err(err).Str("detail_type", ev.DetailType).Msg("event detail not decodable")
		return respond(model.TicketOutcome{Status: model.OutcomeNotApplicable, Reason: "invalid event detail"}), nil
	}

	out := h.ingest.HandleEvent(logging.WithCaseID(ctx, detail.CaseID), detail)
	return respond(out), nil
}

func respond(out model.TicketOutcome) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(struct {
		model.TicketOutcome
		Error string `json:"error,omitempty"`
	}{out, out.ErrorText()})
	return events.APIGatewayProxyResponse{StatusCode: 200, Body: string(body)}
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"), false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)
	metrics.SetBuildInfo(version, commit, "ingest-lambda")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wiring failed")
	}
	defer a.Close()

	h := &handler{ingest: a.Ingest, log: logger}
	lambda.Start(h.handle)
}
