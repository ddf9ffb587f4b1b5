package ai

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"support-kb-ingest/internal/domain/ports/adapter"
)

// perMessageOverhead approximates the role/separator tokens added per chat turn.
const perMessageOverhead = 4

// tokenCounter estimates prompt size with the cl100k_base encoding. When the
// encoding cannot be loaded (no network for the BPE file) it falls back to
// roughly four characters per token.
type tokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

var sharedCounter = &tokenCounter{}

func (c *tokenCounter) load() {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			c.enc = enc
		}
	})
}

func (c *tokenCounter) count(messages []adapter.Message) int {
	c.load()
	total := 0
	for _, m := range messages {
		total += perMessageOverhead
		if c.enc != nil {
			total += len(c.enc.Encode(m.Content, nil, nil))
			continue
		}
		total += estimateTokens(m.Content)
	}
	return total
}

func estimateTokens(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n := len([]rune(s)) / 4
	if n == 0 {
		n = 1
	}
	return n
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
