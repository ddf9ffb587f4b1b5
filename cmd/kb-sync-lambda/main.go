// File: cmd/kb-sync-lambda/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/app"
	"support-kb-ingest/internal/config"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/infra/logging"
	"support-kb-ingest/internal/infra/metrics"
)

var (
	version = "dev"
	commit  = "none"
)

type indexTrigger interface {
	Trigger(ctx context.Context) (*model.IngestionJob, bool)
}

type handler struct {
	index indexTrigger
	log   *zerolog.Logger
}

type syncResult struct {
	Objects int    `json:"objects"`
	JobID   string `json:"job_id,omitempty"`
	Status  string `json:"status"`
}

// handle starts one ingestion job per notification that created objects. It
// always returns 200.
func (h *handler) handle(ctx context.Context, ev events.S3Event) (events.APIGatewayProxyResponse, error) {
	metrics.IncEvent("s3")
	res := syncResult{Status: "ignored"}
	for _, rec := range ev.Records {
		if !strings.HasPrefix(rec.EventName, "ObjectCreated") {
			continue
		}
		res.Objects++
		h.log.Info().Str("bucket", rec.S3.Bucket.Name).Str("key", rec.S3.Object.Key).Msg("archive object created")
	}
	if res.Objects > 0 {
		job, attempted := h.index.Trigger(ctx)
		switch {
		case job != nil:
			res.JobID, res.Status = job.ID, job.Status
		case attempted:
			res.Status = "failed"
		default:
			res.Status = "disabled"
		}
	}
	body, _ := json.Marshal(res)
	return events.APIGatewayProxyResponse{StatusCode: 200, Body: string(body)}, nil
}

func main() {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"), false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)
	metrics.SetBuildInfo(version, commit, "kb-sync-lambda")

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wiring failed")
	}
	defer a.Close()

	h := &handler{index: a.Index, log: logger}
	lambda.Start(h.handle)
}
