package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"support-kb-ingest/internal/domain/ports/adapter"
	ai "support-kb-ingest/internal/infra/adapters/ai"
)

type stubAI struct {
	name         string
	ctN          int
	cwuN         int
	lastModelCT  string
	lastModelCWU string
	lastMax      int
}

func (s *stubAI) Name() string { return s.name }
func (s *stubAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	s.ctN++
	s.lastModelCT = model
	return 1, nil
}
func (s *stubAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	s.cwuN++
	s.lastModelCWU = model
	s.lastMax = maxTokens
	return "ok", adapter.Usage{PromptTokens: 1, CompletionTokens: 1}, nil
}

func TestRouting_ExplicitMap_Heuristics_And_Fallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bed := &stubAI{name: "bedrock"}
	open := &stubAI{name: "openai"}
	gem := &stubAI{name: "gemini"}

	m := ai.NewMultiAIAdapter(
		"bedrock",
		map[string]adapter.AIServiceAdapter{"bedrock": bed, "openai": open, "gemini": gem},
		map[string]string{"custom-x": "gemini"},
	)

	// explicit map wins
	_, _ = m.CountTokens(ctx, "custom-x", nil)
	if gem.ctN != 1 || open.ctN != 0 || bed.ctN != 0 {
		t.Fatalf("explicit map should route to gemini, got bed:%d open:%d gem:%d", bed.ctN, open.ctN, gem.ctN)
	}

	// gpt-* -> openai
	_, _, _ = m.ChatWithUsage(ctx, "gpt-4o-mini", nil, 100)
	if open.cwuN != 1 || open.lastMax != 100 {
		t.Fatalf("heuristic gpt-* should go openai with max tokens, got n=%d max=%d", open.cwuN, open.lastMax)
	}

	// gemini-* -> gemini
	_, _, _ = m.ChatWithUsage(ctx, "gemini-1.5-flash", nil, 0)
	if gem.cwuN != 1 {
		t.Fatalf("heuristic gemini-* should go gemini")
	}

	// inference profiles and ARNs -> bedrock
	for _, model := range []string{
		"global.anthropic.claude-sonnet-4-5-20250929-v1:0",
		"anthropic.claude-3-haiku-20240307-v1:0",
		"arn:aws:bedrock:us-east-1:123456789012:inference-profile/x",
	} {
		_, _, _ = m.ChatWithUsage(ctx, model, nil, 0)
	}
	if bed.cwuN != 3 {
		t.Fatalf("bedrock model ids should go to bedrock, got %d", bed.cwuN)
	}

	// unknown -> default provider
	_, _ = m.CountTokens(ctx, "unknown", nil)
	if bed.ctN != 1 {
		t.Fatalf("unknown model should go to default provider (bedrock)")
	}
}

func TestRouting_MissingProviderFallsBackToDefault(t *testing.T) {
	t.Parallel()
	bed := &stubAI{name: "bedrock"}
	m := ai.NewMultiAIAdapter("bedrock", map[string]adapter.AIServiceAdapter{"bedrock": bed}, nil)

	if _, _, err := m.ChatWithUsage(context.Background(), "gpt-4o", nil, 0); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bed.cwuN != 1 {
		t.Fatalf("expected fallback to bedrock")
	}

	empty := ai.NewMultiAIAdapter("bedrock", nil, nil)
	if _, _, err := empty.ChatWithUsage(context.Background(), "x", nil, 0); !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("want ErrNoProvider, got %v", err)
	}
}

type fakeInvoker struct {
	in   *bedrockruntime.InvokeModelInput
	body string
	err  error
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrock_RequestAndResponseShape(t *testing.T) {
	t.Parallel()
	inv := &fakeInvoker{body: `{"content":[{"type":"text","text":"{\"category\":\"technical\"}"}],"usage":{"input_tokens":12,"output_tokens":5}}`}
	b, err := ai.NewBedrockAdapter(inv, "global.anthropic.claude-sonnet-4-5-20250929-v1:0", 2000)
	if err != nil {
		t.Fatal(err)
	}

	reply, u, err := b.ChatWithUsage(context.Background(), "", []adapter.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "summarize"},
	}, 0)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != `{"category":"technical"}` {
		t.Fatalf("reply = %q", reply)
	}
	if u.PromptTokens != 12 || u.CompletionTokens != 5 || u.TotalTokens != 17 {
		t.Fatalf("usage = %+v", u)
	}
	if got := *inv.in.ModelId; got != "global.anthropic.claude-sonnet-4-5-20250929-v1:0" {
		t.Fatalf("model = %s", got)
	}

	var req map[string]any
	if err := json.Unmarshal(inv.in.Body, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if req["anthropic_version"] != "bedrock-2023-05-31" {
		t.Fatalf("anthropic_version = %v", req["anthropic_version"])
	}
	if req["max_tokens"].(float64) != 2000 {
		t.Fatalf("max_tokens = %v", req["max_tokens"])
	}
	if req["system"] != "be brief" {
		t.Fatalf("system = %v", req["system"])
	}
	msgs := req["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["role"] != "user" {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestBedrock_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	msgs := []adapter.Message{{Role: "user", Content: "x"}}

	b, _ := ai.NewBedrockAdapter(&fakeInvoker{err: errors.New("throttled")}, "m", 0)
	if _, _, err := b.ChatWithUsage(ctx, "", msgs, 0); err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("want invoke error, got %v", err)
	}

	b, _ = ai.NewBedrockAdapter(&fakeInvoker{body: `{"content":[]}`}, "m", 0)
	if _, _, err := b.ChatWithUsage(ctx, "", msgs, 0); err == nil {
		t.Fatalf("want empty response error")
	}

	if _, _, err := b.ChatWithUsage(ctx, "", nil, 0); err == nil {
		t.Fatalf("want no messages error")
	}

	if _, err := ai.NewBedrockAdapter(nil, "m", 0); err == nil {
		t.Fatalf("want nil client error")
	}
}

func TestOpenAI_ChatCompletion(t *testing.T) {
	t.Parallel()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`))
	}))
	defer srv.Close()

	o, err := ai.NewOpenAIAdapter("sk-test", srv.URL, "gpt-4o-mini", 500)
	if err != nil {
		t.Fatal(err)
	}
	reply, u, err := o.ChatWithUsage(context.Background(), "", []adapter.Message{{Role: "user", Content: "hi"}}, 0)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "hello" || u.PromptTokens != 7 || u.CompletionTokens != 2 {
		t.Fatalf("reply=%q usage=%+v", reply, u)
	}
	if got["model"] != "gpt-4o-mini" {
		t.Fatalf("model = %v", got["model"])
	}
	if got["max_completion_tokens"].(float64) != 500 {
		t.Fatalf("max_completion_tokens = %v", got["max_completion_tokens"])
	}
}

func TestLimitedAI_RespectsContext(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	slow := &blockingAI{release: block, started: make(chan struct{}, 1)}
	l := ai.NewLimitedAI(slow, 1)

	done := make(chan struct{})
	go func() {
		_, _, _ = l.ChatWithUsage(context.Background(), "m", nil, 0)
		close(done)
	}()
	<-slow.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := l.ChatWithUsage(ctx, "m", nil, 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded while slot is held, got %v", err)
	}
	close(block)
	<-done
}

type blockingAI struct {
	release <-chan struct{}
	started chan struct{}
}

func (b *blockingAI) Name() string { return "blocking" }
func (b *blockingAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 0, nil
}
func (b *blockingAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	b.started <- struct{}{}
	<-b.release
	return "ok", adapter.Usage{}, nil
}

func TestOfflineAI_ReturnsFixedReply(t *testing.T) {
	t.Parallel()
	o := ai.NewOfflineAIAdapter("canned", 0)
	reply, u, err := o.ChatWithUsage(context.Background(), "any", []adapter.Message{{Role: "user", Content: "a prompt of some length"}}, 10)
	if err != nil || reply != "canned" {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
	if u.PromptTokens == 0 || u.CompletionTokens == 0 {
		t.Fatalf("usage should be estimated, got %+v", u)
	}
}
