package knowledgebase

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/infra/metrics"
)

var _ adapter.KnowledgeIndex = (*BedrockKnowledgeBase)(nil)

// AgentAPI is the part of the bedrockagent client the adapter calls.
type AgentAPI interface {
	StartIngestionJob(ctx context.Context, in *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
}

// BedrockKnowledgeBase starts ingestion jobs on a Bedrock knowledge base data source.
type BedrockKnowledgeBase struct {
	api AgentAPI
	log *zerolog.Logger
}

func NewBedrockKnowledgeBase(api AgentAPI, logger *zerolog.Logger) (*BedrockKnowledgeBase, error) {
	if api == nil {
		return nil, errors.New("bedrockagent: nil client")
	}
	return &BedrockKnowledgeBase{api: api, log: logger}, nil
}

func (k *BedrockKnowledgeBase) StartIngestion(ctx context.Context, knowledgeBaseID, dataSourceID string) (*model.IngestionJob, error) {
	out, err := k.api.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(knowledgeBaseID),
		DataSourceId:    aws.String(dataSourceID),
		Description:     aws.String("support-kb-ingest resync"),
	})
	metrics.IncIndexSync(err == nil)
	if err != nil {
		var conflict *types.ConflictException
		if errors.As(err, &conflict) {
			k.log.Warn().Str("kb_id", knowledgeBaseID).Msg("ingestion job already running")
		}
		return nil, fmt.Errorf("start ingestion job %s/%s: %w", knowledgeBaseID, dataSourceID, err)
	}
	job := &model.IngestionJob{}
	if out.IngestionJob != nil {
		job.ID = aws.ToString(out.IngestionJob.IngestionJobId)
		job.Status = string(out.IngestionJob.Status)
	}
	return job, nil
}
