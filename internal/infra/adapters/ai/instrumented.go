package ai

import (
	"context"
	"time"

	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*instrumentedAI)(nil)

type instrumentedAI struct {
	inner adapter.AIServiceAdapter
}

// NewInstrumentedAI records token usage and latency for every chat call.
func NewInstrumentedAI(inner adapter.AIServiceAdapter) adapter.AIServiceAdapter {
	return &instrumentedAI{inner: inner}
}

func (i *instrumentedAI) Name() string { return i.inner.Name() }

func (i *instrumentedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return i.inner.CountTokens(ctx, model, messages)
}

func (i *instrumentedAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	start := time.Now()
	reply, u, err := i.inner.ChatWithUsage(ctx, model, messages, maxTokens)
	metrics.ObserveAICall(i.inner.Name(), model, u.PromptTokens, u.CompletionTokens, time.Since(start).Milliseconds(), err == nil)
	return reply, u, err
}
