package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
)

// IndexTrigger starts knowledge index resynchronization after archive writes.
type IndexTrigger struct {
	index           adapter.KnowledgeIndex
	knowledgeBaseID string
	dataSourceID    string
	offline         bool
	log             *zerolog.Logger
}

func NewIndexTrigger(index adapter.KnowledgeIndex, knowledgeBaseID, dataSourceID string, offline bool, logger *zerolog.Logger) *IndexTrigger {
	l := logger.With().Str("component", "IndexTrigger").Logger()
	return &IndexTrigger{
		index:           index,
		knowledgeBaseID: knowledgeBaseID,
		dataSourceID:    dataSourceID,
		offline:         offline,
		log:             &l,
	}
}

// Enabled is false when ids are not configured or offline mode is on.
func (t *IndexTrigger) Enabled() bool {
	return t.index != nil && !t.offline && t.knowledgeBaseID != "" && t.dataSourceID != ""
}

// Trigger starts one ingestion job. It never fails the caller: errors are
// logged and reported as (nil, true). attempted is false when sync is disabled.
func (t *IndexTrigger) Trigger(ctx context.Context) (job *model.IngestionJob, attempted bool) {
	if !t.Enabled() {
		t.log.Info().Bool("offline", t.offline).Msg("index sync skipped")
		return nil, false
	}
	job, err := t.index.StartIngestion(ctx, t.knowledgeBaseID, t.dataSourceID)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrIndexSync, err)
		t.log.Error().Err(err).Str("knowledge_base_id", t.knowledgeBaseID).Msg("index sync failed")
		return nil, true
	}
	t.log.Info().Str("job_id", job.ID).Str("status", job.Status).Msg("index sync started")
	return job, true
}
