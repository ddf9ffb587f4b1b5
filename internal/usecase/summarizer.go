package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
)

const (
	DefaultSummaryAttempts  = 3
	DefaultSummaryBackoff   = 2 * time.Second
	DefaultSummaryMaxTokens = 2000
)

var errSchemaMismatch = errors.New("summary does not match schema")

type SummarizerConfig struct {
	Model       string
	MaxTokens   int
	Attempts    int
	BackoffStep time.Duration
}

// Summarizer turns a ticket thread into a SummaryRecord via the generative model.
type Summarizer struct {
	ai    adapter.AIServiceAdapter
	cfg   SummarizerConfig
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	log   *zerolog.Logger
}

func NewSummarizer(ai adapter.AIServiceAdapter, cfg SummarizerConfig, logger *zerolog.Logger) *Summarizer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultSummaryMaxTokens
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultSummaryAttempts
	}
	if cfg.BackoffStep <= 0 {
		cfg.BackoffStep = DefaultSummaryBackoff
	}
	l := logger.With().Str("component", "Summarizer").Str("provider", ai.Name()).Logger()
	return &Summarizer{ai: ai, cfg: cfg, sleep: sleepCtx, now: time.Now, log: &l}
}

// Summarize calls the model up to cfg.Attempts times, waiting attempt*BackoffStep
// between attempts. The last attempt's error is returned wrapped in
// domain.ErrSummarization.
func (s *Summarizer) Summarize(ctx context.Context, thread *model.TicketThread) (*model.SummaryRecord, error) {
	prompt := BuildSummaryPrompt(thread)
	msgs := []adapter.Message{{Role: "user", Content: prompt}}
	t := thread.Ticket

	if n, err := s.ai.CountTokens(ctx, s.cfg.Model, msgs); err == nil {
		s.log.Debug().Str("case_id", t.ID).Int("prompt_tokens", n).Msg("summary prompt built")
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		rec, err := s.attempt(ctx, msgs)
		if err == nil {
			s.log.Info().
				Str("case_id", t.ID).
				Int("attempt", attempt).
				Str("category", rec.Category).
				Str("service", rec.Service).
				Msg("summary generated")
			s.stamp(rec, t)
			return rec, nil
		}
		lastErr = err
		s.log.Warn().Err(err).
			Str("case_id", t.ID).
			Int("attempt", attempt).
			Int("max_attempts", s.cfg.Attempts).
			Msg("summary attempt failed")

		if attempt == s.cfg.Attempts {
			break
		}
		wait := time.Duration(attempt) * s.cfg.BackoffStep
		if err := s.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: %v (retry aborted: %v)", domain.ErrSummarization, lastErr, err)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", domain.ErrSummarization, s.cfg.Attempts, lastErr)
}

func (s *Summarizer) attempt(ctx context.Context, msgs []adapter.Message) (*model.SummaryRecord, error) {
	reply, _, err := s.ai.ChatWithUsage(ctx, s.cfg.Model, msgs, s.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseSummary(reply)
}

// ParseSummary decodes a (possibly fenced) model reply into a SummaryRecord.
func ParseSummary(reply string) (*model.SummaryRecord, error) {
	body := StripCodeFence(reply)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", errSchemaMismatch)
	}
	var rec model.SummaryRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	rec.Category = strings.ToLower(strings.TrimSpace(rec.Category))
	rec.Service = strings.ToLower(strings.TrimSpace(rec.Service))
	if rec.Category == "" || strings.TrimSpace(rec.Question) == "" {
		return nil, fmt.Errorf("%w: category and question are required", errSchemaMismatch)
	}
	switch rec.Category {
	case model.CategoryTechnical, model.CategoryBilling, model.CategoryAccount:
	default:
		return nil, fmt.Errorf("%w: unknown category %q", errSchemaMismatch, rec.Category)
	}
	if !validServiceToken(rec.Service) {
		return nil, fmt.Errorf("%w: service %q is not a single path segment", errSchemaMismatch, rec.Service)
	}
	if rec.Steps == nil {
		rec.Steps = []string{}
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return &rec, nil
}

// validServiceToken accepts an empty service (archived under the fallback
// segment) or one key segment with no separators or whitespace.
func validServiceToken(s string) bool {
	if strings.Contains(s, "..") {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\' || unicode.IsSpace(r)
	})
}

func (s *Summarizer) stamp(rec *model.SummaryRecord, t model.Ticket) {
	rec.CaseID = t.ID
	rec.DisplayID = orDefault(t.DisplayID, t.ID)
	rec.Severity = orDefault(t.SeverityCode, "normal")
	rec.CreatedAt = t.CreatedAt
	rec.ResolvedAt = t.ResolvedAt
	if rec.ResolvedAt == "" {
		rec.ResolvedAt = s.now().UTC().Format(time.RFC3339)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
