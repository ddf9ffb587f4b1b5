// File: cmd/ingest-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/app"
	"support-kb-ingest/internal/config"
	"support-kb-ingest/internal/domain"
	pg "support-kb-ingest/internal/infra/db/postgres"
	httpapi "support-kb-ingest/internal/infra/http"
	"support-kb-ingest/internal/infra/logging"
	"support-kb-ingest/internal/infra/metrics"
	red "support-kb-ingest/internal/infra/redis"
	"support-kb-ingest/internal/infra/scheduler"
	"support-kb-ingest/internal/infra/worker"
	"support-kb-ingest/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "", "path to YAML config file (optional)")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, "ingest-server")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wiring failed")
	}
	defer a.Close()

	// ---- Worker pool ----
	pool := worker.NewPool(cfg.HTTP.Workers, logger)
	pool.Start(ctx)

	// ---- HTTP ----
	deps := httpapi.Deps{
		Ingest:    a.Ingest,
		Batch:     a.Batch,
		Queue:     pool,
		Auth:      httpapi.NewAuthManager(cfg.HTTP.JWTSecret),
		RateLimit: cfg.HTTP.RateLimit,
		Checks:    map[string]httpapi.HealthCheck{},
	}
	if a.Redis != nil {
		deps.Limiter = red.NewRateLimiter(a.Redis)
		deps.Checks["redis"] = a.Redis.Ping
	}
	if a.DB != nil {
		db := a.DB
		deps.Checks["postgres"] = func(ctx context.Context) error { return db.Ping(ctx) }
		go pg.ReportPoolStats(ctx, db, 15*time.Second)
	}
	srv := httpapi.NewServer(cfg.HTTP.Addr, deps, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Scheduled backfill ----
	var sched *scheduler.Scheduler
	if cfg.Batch.Schedule > 0 {
		sched = scheduler.NewScheduler("backfill", cfg.Batch.Schedule, cfg.Batch.Schedule,
			trailingBackfill(a.Batch, cfg.Batch, logger), logger)
		sched.Start(ctx)
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if sched != nil {
		sched.Stop()
	}
	pool.Stop()
	cancel()
}

// trailingBackfill processes the tickets resolved within the last window.
func trailingBackfill(b usecase.BatchUseCase, cfg config.BatchConfig, logger *zerolog.Logger) scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context) error {
		now := time.Now().UTC()
		run, err := b.Run(ctx, usecase.BatchRequest{
			After:  now.Add(-cfg.ScheduleWindow).Format(time.RFC3339),
			Before: now.Format(time.RFC3339),
			Delay:  cfg.Delay,
		})
		if errors.Is(err, domain.ErrBatchRunning) {
			logger.Info().Msg("backfill already running; skipping scheduled run")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info().Str("run_id", run.RunID).Int("failed", run.Failed).Msg("scheduled backfill done")
		return nil
	})
}
