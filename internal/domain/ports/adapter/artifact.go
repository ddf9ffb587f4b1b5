package adapter

import (
	"context"

	"support-kb-ingest/internal/domain/model"
)

// ArtifactWriter persists the failure list of a batch run and returns its location.
type ArtifactWriter interface {
	WriteFailures(ctx context.Context, run *model.BatchRun) (string, error)
}
