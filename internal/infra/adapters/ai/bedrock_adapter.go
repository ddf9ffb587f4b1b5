package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*BedrockAdapter)(nil)

const anthropicBedrockVersion = "bedrock-2023-05-31"

// ModelInvoker is the part of the bedrockruntime client the adapter uses.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockAdapter calls Anthropic models hosted on Amazon Bedrock through the
// messages API.
type BedrockAdapter struct {
	client       ModelInvoker
	defaultModel string
	maxOut       int
}

func NewBedrockAdapter(client ModelInvoker, defaultModel string, maxOut int) (*BedrockAdapter, error) {
	if client == nil {
		return nil, errors.New("bedrock: nil client")
	}
	if maxOut <= 0 {
		maxOut = 2000
	}
	return &BedrockAdapter{client: client, defaultModel: defaultModel, maxOut: maxOut}, nil
}

func (b *BedrockAdapter) Name() string { return "bedrock" }

func (b *BedrockAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return sharedCounter.count(messages), nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (b *BedrockAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	if len(messages) == 0 {
		return "", adapter.Usage{}, errors.New("bedrock: no messages")
	}
	if maxTokens <= 0 {
		maxTokens = b.maxOut
	}
	req := anthropicRequest{AnthropicVersion: anthropicBedrockVersion, MaxTokens: maxTokens}
	for _, m := range messages {
		switch strings.ToLower(m.Role) {
		case "system":
			req.System = strings.TrimSpace(req.System + "\n" + m.Content)
		case "assistant", "model":
			req.Messages = append(req.Messages, anthropicMessage{Role: "assistant", Content: m.Content})
		default:
			req.Messages = append(req.Messages, anthropicMessage{Role: "user", Content: m.Content})
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", adapter.Usage{}, fmt.Errorf("bedrock: encode request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelOrDefault(model, b.defaultModel)),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", adapter.Usage{}, fmt.Errorf("bedrock: invoke: %w", err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", adapter.Usage{}, fmt.Errorf("bedrock: decode response: %w", err)
	}
	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "" || c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	if text.Len() == 0 {
		return "", adapter.Usage{}, errors.New("bedrock: empty response")
	}
	u := adapter.Usage{
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
	return text.String(), u, nil
}
