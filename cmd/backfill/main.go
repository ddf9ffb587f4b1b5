// File: cmd/backfill/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"support-kb-ingest/internal/app"
	"support-kb-ingest/internal/config"
	"support-kb-ingest/internal/infra/logging"
	"support-kb-ingest/internal/infra/metrics"
	"support-kb-ingest/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

var errAborted = errors.New("aborted by operator")

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "", "path to YAML config file (optional)")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	after := flag.String("after", "", "window start, RFC3339 (default batch.after)")
	before := flag.String("before", "", "window end, RFC3339 (default now)")
	delay := flag.Duration("delay", 0, "pause between tickets (default batch.delay)")
	artifactDir := flag.String("artifact-dir", "", "directory for the error artifact (default batch.artifact_dir)")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	req, err := buildRequest(cfg.Batch, *after, *before, *delay)
	if err != nil {
		log.Fatalf("flags: %v", err)
	}
	if *artifactDir != "" {
		cfg.Batch.ArtifactDir = *artifactDir
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, "backfill")

	if !*yes {
		if err := confirm(os.Stdin, os.Stdout, cfg, req); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wiring failed")
	}
	defer a.Close()

	run, err := a.Batch.Run(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("backfill failed")
		a.Close()
		os.Exit(1)
	}
	fmt.Print(run.Summary())

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pctx, url, "support_kb_backfill"); err != nil {
			logger.Warn().Err(err).Msg("metrics push failed")
		}
		cancel()
	}
	if run.Interrupted {
		a.Close()
		os.Exit(130)
	}
}

// buildRequest resolves the window from flags, falling back to config.
func buildRequest(cfg config.BatchConfig, after, before string, delay time.Duration) (usecase.BatchRequest, error) {
	if after == "" {
		after = cfg.After
	}
	if before == "" {
		before = cfg.Before
	}
	if delay <= 0 {
		delay = cfg.Delay
	}
	start, err := time.Parse(time.RFC3339, after)
	if err != nil {
		return usecase.BatchRequest{}, fmt.Errorf("-after: %w", err)
	}
	if before != "" {
		end, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return usecase.BatchRequest{}, fmt.Errorf("-before: %w", err)
		}
		if !end.After(start) {
			return usecase.BatchRequest{}, fmt.Errorf("-before %s is not after -after %s", before, after)
		}
	}
	return usecase.BatchRequest{After: after, Before: before, Delay: delay}, nil
}

func confirm(in io.Reader, out io.Writer, cfg *config.Config, req usecase.BatchRequest) error {
	before := req.Before
	if before == "" {
		before = "now"
	}
	fmt.Fprintf(out, "Backfill resolved tickets %s .. %s into bucket %q", req.After, before, cfg.Archive.Bucket)
	if cfg.Archive.Offline {
		fmt.Fprint(out, " (offline, nothing is written)")
	}
	fmt.Fprint(out, "\nContinue? [y/N]: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
