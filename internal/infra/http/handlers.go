package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/infra/logging"
	"support-kb-ingest/internal/infra/metrics"
	"support-kb-ingest/internal/usecase"
)

const maxBodyBytes = 1 << 20

// eventEnvelope accepts both a full EventBridge event and its bare detail.
type eventEnvelope struct {
	Detail *model.ResolutionEvent `json:"detail"`
	model.ResolutionEvent
}

type backfillRequest struct {
	After  string `json:"after"`
	Before string `json:"before"`
	Delay  string `json:"delay"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var env eventEnvelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}
	ev := env.ResolutionEvent
	if env.Detail != nil {
		ev = *env.Detail
	}
	metrics.IncEvent("http")

	if !ev.IsResolve() {
		writeJSON(w, http.StatusOK, outcomeBody(s.deps.Ingest.HandleEvent(r.Context(), ev)))
		return
	}

	reqID := w.Header().Get(requestIDHeader)
	if s.deps.Queue != nil {
		err := s.deps.Queue.Submit(func(ctx context.Context) error {
			ctx = logging.WithRequestID(logging.WithCaseID(ctx, ev.CaseID), reqID)
			out := s.deps.Ingest.HandleEvent(ctx, ev)
			if out.Failed() {
				return out.Err
			}
			return nil
		})
		if err == nil {
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "request_id": reqID})
			return
		}
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("queue rejected event, processing inline")
	}

	out := s.deps.Ingest.HandleEvent(logging.WithCaseID(r.Context(), ev.CaseID), ev)
	writeJSON(w, http.StatusOK, outcomeBody(out))
}

type outcomeResponse struct {
	model.TicketOutcome
	Error string `json:"error,omitempty"`
}

func outcomeBody(out model.TicketOutcome) outcomeResponse {
	return outcomeResponse{TicketOutcome: out, Error: out.ErrorText()}
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if s.deps.Batch == nil {
		writeError(w, http.StatusServiceUnavailable, "backfill not configured")
		return
	}
	var req backfillRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.After == "" {
		writeError(w, http.StatusBadRequest, "after is required")
		return
	}
	var delay time.Duration
	if req.Delay != "" {
		d, err := time.ParseDuration(req.Delay)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid delay")
			return
		}
		delay = d
	}
	breq := usecase.BatchRequest{After: req.After, Before: req.Before, Delay: delay}
	reqID := w.Header().Get(requestIDHeader)
	ctx := logging.WithRequestID(s.baseCtx, reqID)
	err := s.deps.Batch.Start(ctx, breq, func(_ *model.BatchRun, err error) {
		if err != nil {
			logging.With(ctx, s.log).Error().Err(err).Msg("backfill failed")
		}
	})
	if errors.Is(err, domain.ErrBatchRunning) {
		writeError(w, http.StatusConflict, "backfill already running")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "backfill not started")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "request_id": reqID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	res := map[string]string{}
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			res[name] = err.Error()
			continue
		}
		res[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": res})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
