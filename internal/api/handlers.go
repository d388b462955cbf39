// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/greysonlalonde/js-utilities/internal/component"
	"github.com/greysonlalonde/js-utilities/internal/history"
	"github.com/greysonlalonde/js-utilities/internal/log"
	"github.com/greysonlalonde/js-utilities/internal/metrics"
	"github.com/greysonlalonde/js-utilities/internal/render"
)

// maxRenderBody caps the request body of the render endpoint.
const maxRenderBody = 1 << 20

// handleRender renders a single component definition from the request
// body and returns the source text. Nothing is written to disk; the
// endpoint exists for previewing definitions before a full run.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRenderBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
		return
	}

	var c component.Component
	if err := yaml.Unmarshal(body, &c); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "render.bad_request").
			Msg("unparseable component definition")
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	c.Normalize()
	if err := c.Validate(); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "render.invalid").
			Str("name", c.Name).
			Msg("invalid component definition")
		writeError(w, http.StatusUnprocessableEntity, "invalid_definition", err.Error())
		return
	}

	buf := &bytes.Buffer{}
	if err := render.WriteComponent(buf, &c); err != nil {
		logger.Error().
			Err(err).
			Str("event", "render.failed").
			Str("name", c.Name).
			Msg("render failed")
		writeError(w, http.StatusInternalServerError, "internal", "render failed")
		return
	}

	logger.Debug().
		Str("event", "render.ok").
		Str("name", c.Name).
		Msg("component rendered")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Component-Name", render.ComponentFileName(&c))
	_, _ = w.Write(buf.Bytes())
}

// handleRefresh triggers a full generation run. At most one run is in
// flight; concurrent requests get 409 with a Retry-After hint. The run
// uses a background context so a disconnecting client cannot abort it.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	if !s.refreshing.CompareAndSwap(false, true) {
		metrics.RefreshConflictsTotal.Inc()
		logger.Warn().
			Str("event", "refresh.conflict").
			Msg("generation already in progress")
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusConflict, "conflict", "a generation run is already in progress")
		return
	}
	defer s.refreshing.Store(false)

	if s.generateFn == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "generation is not configured")
		return
	}

	jobCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	start := time.Now()
	st, err := s.generateFn(jobCtx, s.jobConfig(history.TriggerAPI))
	if err != nil {
		s.mu.Lock()
		s.status.LastError = "generation failed"
		s.mu.Unlock()

		logger.Error().
			Err(err).
			Str("event", "refresh.failed").
			Dur("duration", time.Since(start)).
			Msg("generation failed")
		// Internal failure details stay in the logs.
		writeError(w, http.StatusInternalServerError, "internal", "generation failed")
		return
	}

	s.mu.Lock()
	s.status = *st
	s.mu.Unlock()
	s.ready.Store(true)

	logger.Info().
		Str("event", "refresh.ok").
		Int("components", st.Components).
		Int("files", st.Files).
		Dur("duration", time.Since(start)).
		Msg("generation completed")

	writeJSON(w, http.StatusOK, st)
}

// handleStatus returns the status of the most recent generation run.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, st)
}

// runResponse is the wire shape of one history entry.
type runResponse struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMS  int64     `json:"duration_ms"`
	Result      string    `json:"result"`
	Components  int       `json:"components"`
	Files       int       `json:"files"`
	Cached      int       `json:"cached"`
	PipelineRan bool      `json:"pipeline_ran"`
	TriggeredBy string    `json:"triggered_by"`
	Error       string    `json:"error,omitempty"`
}

func toRunResponse(run history.Run) runResponse {
	return runResponse{
		ID:          run.ID,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		DurationMS:  run.Duration().Milliseconds(),
		Result:      run.Result,
		Components:  run.Components,
		Files:       run.Files,
		Cached:      run.Cached,
		PipelineRan: run.PipelineRan,
		TriggeredBy: run.TriggeredBy,
		Error:       run.Error,
	}
}

// handleHistory lists recent generation runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []runResponse{})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "history.query_failed").
			Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "internal", "history query failed")
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHistoryRun returns a single recorded run, looked up by the ID
// reported in the history listing.
func (s *Server) handleHistoryRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.history == nil {
		writeError(w, http.StatusNotFound, "not_found", "run "+id+" not found")
		return
	}

	run, err := s.history.Get(r.Context(), id)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "history.query_failed").
			Str("run_id", id).
			Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "internal", "history query failed")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "not_found", "run "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(*run))
}

// handleHealthz reports process liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	version := s.cfg.Version
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}

// handleReadyz reports readiness: the server is ready once one
// generation run has succeeded, whether in this process or seeded
// from a previous status.json.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "waiting",
			"detail": "no successful generation run yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
