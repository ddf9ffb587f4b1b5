package adapter

import (
	"context"

	"support-kb-ingest/internal/domain/model"
)

// KnowledgeIndex starts resynchronization of the search index from its data source.
type KnowledgeIndex interface {
	StartIngestion(ctx context.Context, knowledgeBaseID, dataSourceID string) (*model.IngestionJob, error)
}
