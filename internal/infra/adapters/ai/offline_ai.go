package ai

import (
	"context"
	"time"

	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*OfflineAIAdapter)(nil)

// OfflineAIAdapter answers every chat call with a fixed reply. It backs the
// offline test mode so the pipeline runs without model access.
type OfflineAIAdapter struct {
	reply string
	delay time.Duration
}

func NewOfflineAIAdapter(reply string, delay time.Duration) *OfflineAIAdapter {
	return &OfflineAIAdapter{reply: reply, delay: delay}
}

func (a *OfflineAIAdapter) Name() string { return "offline" }

func (a *OfflineAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += estimateTokens(m.Content)
	}
	return n, nil
}

func (a *OfflineAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return "", adapter.Usage{}, ctx.Err()
		}
	}
	in := 0
	for _, m := range messages {
		in += estimateTokens(m.Content)
	}
	out := estimateTokens(a.reply)
	return a.reply, adapter.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}, nil
}
