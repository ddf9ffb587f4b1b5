// Package app wires configuration into the ingestion pipeline for every entry point.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awssupport "github.com/aws/aws-sdk-go-v2/service/support"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/config"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/domain/ports/repository"
	aiAdapters "support-kb-ingest/internal/infra/adapters/ai"
	"support-kb-ingest/internal/infra/adapters/knowledgebase"
	"support-kb-ingest/internal/infra/adapters/objectstore"
	"support-kb-ingest/internal/infra/adapters/support"
	tele "support-kb-ingest/internal/infra/adapters/telegram"
	"support-kb-ingest/internal/infra/artifact"
	pg "support-kb-ingest/internal/infra/db/postgres"
	"support-kb-ingest/internal/infra/metrics"
	red "support-kb-ingest/internal/infra/redis"
	"support-kb-ingest/internal/usecase"
)

// offlineReplyDelay keeps offline runs close to the pacing of a real model call.
const offlineReplyDelay = 200 * time.Millisecond

// App holds the wired use cases plus the optional backing services that the
// entry points may want to report on or close.
type App struct {
	Cfg    *config.Config
	Log    *zerolog.Logger
	Ingest usecase.IngestUseCase
	// Batch is shared by every caller in the process so runs never overlap.
	Batch  *usecase.ExclusiveBatch
	Index  *usecase.IndexTrigger

	KnowledgeBase adapter.KnowledgeIndex
	DB            *pgxpool.Pool
	Redis         *red.Client

	closers []func()
}

// New builds the pipeline. Postgres and Redis are only dialed when configured;
// a configured service that cannot be reached is an error.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: logger}

	awsCfg, err := loadAWS(ctx, cfg.AWS)
	if err != nil {
		a.Close()
		return nil, err
	}

	tickets, err := support.NewTicketSystem(
		awssupport.NewFromConfig(awsCfg, func(o *awssupport.Options) { o.Region = cfg.AWS.SupportRegion }),
		cfg.AWS.SupportLanguage, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	ai, err := buildAI(ctx, cfg, awsCfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var store adapter.ObjectStore
	if cfg.Archive.Offline {
		store = objectstore.NewDryRunStore(logger)
	} else {
		store, err = objectstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Archive.Bucket, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	kb, err := knowledgebase.NewBedrockKnowledgeBase(bedrockagent.NewFromConfig(awsCfg), logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.KnowledgeBase = kb
	a.Index = usecase.NewIndexTrigger(kb, cfg.Index.KnowledgeBaseID, cfg.Index.DataSourceID, cfg.Archive.Offline, logger)

	var archiveIndex repository.ArchiveIndexRepository
	if cfg.Database.URL != "" {
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.DB = pool
		a.closers = append(a.closers, pool.Close)
		if err := pg.Migrate(ctx, pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		archiveIndex = pg.NewArchiveIndexRepo(pool, pg.NewTxManager(pool), cfg.Database.ClaimStale)
	}

	var locker adapter.Locker
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Redis = rc
		a.closers = append(a.closers, func() { _ = rc.Close() })
		locker = red.NewLocker(rc)
	}

	var notifier adapter.Notifier = tele.NewNoopNotifier(logger)
	if cfg.Notify.TelegramToken != "" {
		n, err := tele.NewNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, logger)
		if err != nil {
			// the pipeline must not depend on the side channel
			logger.Warn().Err(err).Msg("telegram notifier unavailable, notifications disabled")
		} else {
			notifier = n
		}
	}

	var dups usecase.DuplicateChecker = usecase.NewScanDuplicateChecker(store, logger)
	if cfg.Archive.DuplicateCheck == "index" && archiveIndex != nil {
		dups = usecase.NewIndexedDuplicateChecker(archiveIndex, dups, logger)
	}

	reader := usecase.NewTicketReader(tickets, cfg.Archive.Offline, logger)
	a.Ingest = usecase.NewIngestUseCase(usecase.IngestDeps{
		Reader: reader,
		Summarizer: usecase.NewSummarizer(ai, usecase.SummarizerConfig{
			Model:       cfg.AI.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Attempts:    cfg.AI.Attempts,
			BackoffStep: cfg.AI.BackoffStep,
		}, logger),
		Archive:    usecase.NewArchiveStore(store, logger),
		Duplicates: dups,
		Index:      a.Index,
		Claims:     archiveIndex,
		Locker:     locker,
		LockTTL:    cfg.Redis.LockTTL,
		Notifier:   notifier,
		OnOutcome:  recordOutcome,
	}, logger)

	a.Batch = usecase.NewExclusiveBatch(usecase.NewBatchUseCase(usecase.BatchDeps{
		Reader:    reader,
		Ingest:    a.Ingest,
		Index:     a.Index,
		Artifacts: artifact.NewFileWriter(cfg.Batch.ArtifactDir),
		Runs:      archiveIndex,
		Notifier:  notifier,
		OnFinish: func(run *model.BatchRun) {
			metrics.ObserveBatchRun(run.Total, run.Succeeded, run.Skipped, run.Failed,
				run.FinishedAt.Sub(run.StartedAt), run.Interrupted)
		},
	}, logger))

	logger.Info().
		Str("ai_provider", cfg.AI.Provider).
		Str("model", cfg.AI.Model).
		Str("bucket", cfg.Archive.Bucket).
		Bool("offline", cfg.Archive.Offline).
		Bool("index_sync", a.Index.Enabled()).
		Bool("postgres", a.DB != nil).
		Bool("redis", a.Redis != nil).
		Str("duplicate_check", cfg.Archive.DuplicateCheck).
		Msg("pipeline wired")
	return a, nil
}

// Close releases backing connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func recordOutcome(out model.TicketOutcome) {
	stage := ""
	if out.Failed() {
		stage = out.Reason
	}
	metrics.IncTicket(string(out.Status), stage)
}

func loadAWS(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws config: %w", err)
	}
	return cfg, nil
}

// buildAI registers every provider that has credentials and routes by model
// id, defaulting to the configured provider. Offline mode never calls out.
func buildAI(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (adapter.AIServiceAdapter, error) {
	if cfg.Archive.Offline {
		return aiAdapters.NewOfflineAIAdapter(usecase.OfflineSummaryReply, offlineReplyDelay), nil
	}

	byProvider := map[string]adapter.AIServiceAdapter{}

	bedrock, err := aiAdapters.NewBedrockAdapter(
		bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) { o.Region = cfg.AWS.BedrockRegion }),
		providerModel(cfg.AI, "bedrock", "global.anthropic.claude-sonnet-4-5-20250929-v1:0"), cfg.AI.MaxTokens)
	if err != nil {
		return nil, err
	}
	byProvider["bedrock"] = aiAdapters.NewInstrumentedAI(bedrock)

	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, providerModel(cfg.AI, "openai", "gpt-4o-mini"), cfg.AI.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		byProvider["openai"] = aiAdapters.NewInstrumentedAI(oa)
	}
	if cfg.AI.GeminiKey != "" {
		gm, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, "", providerModel(cfg.AI, "gemini", "gemini-2.5-flash"), cfg.AI.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini adapter: %w", err)
		}
		byProvider["gemini"] = aiAdapters.NewInstrumentedAI(gm)
	}

	multi := aiAdapters.NewMultiAIAdapter(cfg.AI.Provider, byProvider, nil)
	return aiAdapters.NewLimitedAI(multi, cfg.AI.ConcurrentLimit), nil
}

// providerModel hands the configured model to its own provider; the others
// keep their fallback.
func providerModel(c config.AIConfig, provider, fallback string) string {
	if strings.EqualFold(c.Provider, provider) && c.Model != "" {
		return c.Model
	}
	return fallback
}
