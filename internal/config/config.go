// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"support-kb-ingest/internal/domain"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AWSConfig struct {
	Region          string `yaml:"region"`         // S3 and Bedrock Agent
	SupportRegion   string `yaml:"support_region"` // Support API is only served from us-east-1
	BedrockRegion   string `yaml:"bedrock_region"`
	SupportLanguage string `yaml:"support_language"` // en|ja|zh|ko
	Profile         string `yaml:"profile"`
}

type ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	// Offline serves case-test-* ids from the fixture, answers with the canned
	// summary, logs instead of writing, and never syncs the index.
	Offline bool `yaml:"offline"`
	// DuplicateCheck is "scan" (list the whole bucket) or "index" (Postgres lookup).
	DuplicateCheck string `yaml:"duplicate_check"`
}

type IndexConfig struct {
	KnowledgeBaseID string `yaml:"knowledge_base_id"`
	DataSourceID    string `yaml:"data_source_id"`
}

type AIConfig struct {
	Provider        string        `yaml:"provider"` // bedrock|openai|gemini
	Model           string        `yaml:"model"`
	MaxTokens       int           `yaml:"max_tokens"`
	Attempts        int           `yaml:"attempts"`
	BackoffStep     time.Duration `yaml:"backoff_step"`
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent model calls
}

type BatchConfig struct {
	After       string        `yaml:"after"`
	Before      string        `yaml:"before"`
	Delay       time.Duration `yaml:"delay"`
	ArtifactDir string        `yaml:"artifact_dir"`
	// Schedule runs a trailing-window backfill from the server; zero disables it.
	Schedule       time.Duration `yaml:"schedule"`
	ScheduleWindow time.Duration `yaml:"schedule_window"`
}

type DatabaseConfig struct {
	URL        string        `yaml:"url"`
	ClaimStale time.Duration `yaml:"claim_stale"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
	Workers   int    `yaml:"workers"`
	RateLimit int    `yaml:"rate_limit"` // events per client per minute; 0 disables
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	AWS      AWSConfig      `yaml:"aws"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Index    IndexConfig    `yaml:"index"`
	AI       AIConfig       `yaml:"ai"`
	Batch    BatchConfig    `yaml:"batch"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Notify   NotifyConfig   `yaml:"notify"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads path (optional; empty skips the file), applies environment
// overrides and defaults, then validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &cfg.Log.Level)
	str("AWS_REGION", &cfg.AWS.Region)
	str("SUPPORT_REGION", &cfg.AWS.SupportRegion)
	str("BEDROCK_REGION", &cfg.AWS.BedrockRegion)
	str("SUPPORT_LANGUAGE", &cfg.AWS.SupportLanguage)
	str("BUCKET_NAME", &cfg.Archive.Bucket)
	str("KB_ID", &cfg.Index.KnowledgeBaseID)
	str("DS_ID", &cfg.Index.DataSourceID)
	str("AI_PROVIDER", &cfg.AI.Provider)
	str("BEDROCK_MODEL_ID", &cfg.AI.Model)
	str("OPENAI_API_KEY", &cfg.AI.OpenAIKey)
	str("GEMINI_API_KEY", &cfg.AI.GeminiKey)
	str("DATABASE_URL", &cfg.Database.URL)
	str("REDIS_ADDR", &cfg.Redis.URL)
	str("TELEGRAM_TOKEN", &cfg.Notify.TelegramToken)
	str("HTTP_JWT_SECRET", &cfg.HTTP.JWTSecret)
	str("PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL)

	if v, ok := lookup("MOCK_MODE"); ok && v != "" {
		cfg.Archive.Offline = strings.EqualFold(v, "true")
	}
	if v, ok := lookup("TELEGRAM_CHAT_ID"); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID: %v", domain.ErrInvalidConfig, err)
		}
		cfg.Notify.TelegramChatID = id
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "ap-northeast-2"
	}
	if cfg.AWS.SupportRegion == "" {
		cfg.AWS.SupportRegion = "us-east-1"
	}
	if cfg.AWS.BedrockRegion == "" {
		cfg.AWS.BedrockRegion = "us-east-1"
	}
	if cfg.AWS.SupportLanguage == "" {
		cfg.AWS.SupportLanguage = "en"
	}
	if cfg.Archive.Bucket == "" {
		cfg.Archive.Bucket = "support-knowledge-base"
	}
	if cfg.Archive.DuplicateCheck == "" {
		cfg.Archive.DuplicateCheck = "scan"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "bedrock"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModel(cfg.AI.Provider)
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 2000
	}
	if cfg.AI.Attempts <= 0 {
		cfg.AI.Attempts = 3
	}
	if cfg.AI.BackoffStep <= 0 {
		cfg.AI.BackoffStep = 2 * time.Second
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 4
	}
	if cfg.Batch.After == "" {
		cfg.Batch.After = "2023-01-01T00:00:00Z"
	}
	if cfg.Batch.Delay <= 0 {
		cfg.Batch.Delay = time.Second
	}
	if cfg.Batch.ArtifactDir == "" {
		cfg.Batch.ArtifactDir = "."
	}
	if cfg.Batch.ScheduleWindow <= 0 {
		cfg.Batch.ScheduleWindow = 7 * 24 * time.Hour
	}
	if cfg.Database.ClaimStale <= 0 {
		cfg.Database.ClaimStale = 15 * time.Minute
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 5 * time.Minute
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.Workers <= 0 {
		cfg.HTTP.Workers = 4
	}
}

func defaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return "global.anthropic.claude-sonnet-4-5-20250929-v1:0"
	}
}

// Validate checks the cross-field rules LoadConfig cannot default.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.AI.Provider) {
	case "bedrock":
	case "openai":
		if c.AI.OpenAIKey == "" && !c.Archive.Offline {
			errs = append(errs, errors.New("ai.openai_key is required for the openai provider"))
		}
	case "gemini":
		if c.AI.GeminiKey == "" && !c.Archive.Offline {
			errs = append(errs, errors.New("ai.gemini_key is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q is not one of bedrock, openai, gemini", c.AI.Provider))
	}
	switch c.Archive.DuplicateCheck {
	case "scan":
	case "index":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("archive.duplicate_check=index requires database.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("archive.duplicate_check %q is not one of scan, index", c.Archive.DuplicateCheck))
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == 0) {
		errs = append(errs, errors.New("notify.telegram_token and notify.telegram_chat_id must be set together"))
	}
	if c.Batch.Schedule < 0 {
		errs = append(errs, errors.New("batch.schedule must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// IndexSyncEnabled reports whether both knowledge index ids are configured.
func (c *Config) IndexSyncEnabled() bool {
	return c.Index.KnowledgeBaseID != "" && c.Index.DataSourceID != ""
}
