package knowledgebase

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/rs/zerolog"
)

type fakeAgent struct {
	in  *bedrockagent.StartIngestionJobInput
	out *bedrockagent.StartIngestionJobOutput
	err error
}

func (f *fakeAgent) StartIngestionJob(ctx context.Context, in *bedrockagent.StartIngestionJobInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestStartIngestion_ReturnsJob(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	api := &fakeAgent{out: &bedrockagent.StartIngestionJobOutput{
		IngestionJob: &types.IngestionJob{
			IngestionJobId: aws.String("job-1"),
			Status:         types.IngestionJobStatusStarting,
		},
	}}
	kb, err := NewBedrockKnowledgeBase(api, &log)
	if err != nil {
		t.Fatal(err)
	}

	job, err := kb.StartIngestion(context.Background(), "KB123", "DS456")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if job.ID != "job-1" || job.Status != "STARTING" {
		t.Fatalf("job = %+v", job)
	}
	if aws.ToString(api.in.KnowledgeBaseId) != "KB123" || aws.ToString(api.in.DataSourceId) != "DS456" {
		t.Fatalf("input = %+v", api.in)
	}
}

func TestStartIngestion_WrapsConflict(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	conflict := &types.ConflictException{Message: aws.String("job in progress")}
	kb, _ := NewBedrockKnowledgeBase(&fakeAgent{err: conflict}, &log)

	_, err := kb.StartIngestion(context.Background(), "KB", "DS")
	var got *types.ConflictException
	if !errors.As(err, &got) {
		t.Fatalf("want ConflictException in chain, got %v", err)
	}
}
