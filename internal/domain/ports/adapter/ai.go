package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single model call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the port for the generative model.
type AIServiceAdapter interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// CountTokens returns prompt tokens for the provided messages
	// (best-effort when the provider has no exact counter).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// ChatWithUsage returns the model's reply text + usage as reported by the provider.
	ChatWithUsage(ctx context.Context, model string, messages []Message, maxTokens int) (string, Usage, error)
}
