package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/infra/worker"
	"support-kb-ingest/internal/usecase"
)

// Submitter queues work for background processing.
type Submitter interface {
	Submit(task worker.Task) error
}

// BatchStarter starts a backfill in the background, refusing with
// domain.ErrBatchRunning while another run is in progress.
type BatchStarter interface {
	Start(ctx context.Context, req usecase.BatchRequest, done func(*model.BatchRun, error)) error
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Ingest    usecase.IngestUseCase
	Batch     BatchStarter
	Queue     Submitter
	Auth      *AuthManager
	Limiter   Limiter
	RateLimit int
	Checks    map[string]HealthCheck
}

// Server exposes event intake, operator backfills, health and metrics.
type Server struct {
	deps    Deps
	log     *zerolog.Logger
	srv     *http.Server
	baseCtx context.Context
	cancel  context.CancelFunc
	handler http.Handler
}

func NewServer(addr string, deps Deps, logger *zerolog.Logger) *Server {
	if deps.Auth == nil {
		deps.Auth = NewAuthManager("")
	}
	l := logger.With().Str("component", "HTTPServer").Logger()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{deps: deps, log: &l, baseCtx: ctx, cancel: cancel}
	s.handler = s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, recoverer(s.log), requestLog(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.With(rateLimit(s.deps.Limiter, s.deps.RateLimit, s.log)).Post("/events", s.handleEvent)
		r.With(s.deps.Auth.RequireOperator).Post("/backfill", s.handleBackfill)
	})
	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and cancels any backfill started over HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.srv.Shutdown(ctx)
}
