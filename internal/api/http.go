// SPDX-License-Identifier: MIT

// Package api provides the preview HTTP server: single-component
// rendering, full regeneration, status and history queries, and
// read-only access to generated artifacts.
package api

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/greysonlalonde/js-utilities/internal/config"
	"github.com/greysonlalonde/js-utilities/internal/history"
	"github.com/greysonlalonde/js-utilities/internal/jobs"
	"github.com/greysonlalonde/js-utilities/internal/ratelimit"
)

// refreshTimeout bounds one API-triggered generation run.
const refreshTimeout = 5 * time.Minute

// Server is the HTTP API server.
type Server struct {
	mu         sync.RWMutex
	cfg        config.Config
	status     jobs.Status
	refreshing atomic.Bool
	ready      atomic.Bool
	startTime  time.Time

	// generateFn allows tests to stub the generation run; defaults to
	// the injected generator's Generate.
	generateFn func(context.Context, jobs.Config) (*jobs.Status, error)

	history *history.Store
	limiter *ratelimit.Limiter
}

// New creates the API server. A previously written status.json seeds
// the status so restarts with intact artifacts serve immediately.
func New(cfg config.Config, gen *jobs.Generator, hist *history.Store) *Server {
	s := &Server{
		cfg:       cfg,
		history:   hist,
		limiter:   ratelimit.New(ratelimit.DefaultConfig()),
		startTime: time.Now(),
	}
	if gen != nil {
		s.generateFn = gen.Generate
	}

	if st, err := jobs.LoadStatus(filepath.Join(cfg.OutputDir, "status.json")); err == nil {
		s.status = *st
		if st.LastError == "" && !st.GeneratedAt.IsZero() {
			s.ready.Store(true)
		}
	}
	return s
}

// SetConfig swaps the active configuration. Called by the daemon on
// hot reload; routes and rate limits built at startup are unaffected,
// per-request settings (auth token, job paths) pick up the new values.
func (s *Server) SetConfig(cfg config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// SetStatus replaces the cached status, marking the server ready when
// the run succeeded. Called after out-of-band runs (watch, startup).
func (s *Server) SetStatus(st jobs.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	if st.LastError == "" {
		s.ready.Store(true)
	}
}

func (s *Server) currentConfig() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// jobConfig builds the generation run config from the active service
// configuration.
func (s *Server) jobConfig(trigger string) jobs.Config {
	cfg := s.currentConfig()
	return jobs.Config{
		ManifestPath:    cfg.ManifestPath,
		DefinitionsPath: cfg.DefinitionsPath,
		OutputDir:       cfg.OutputDir,
		Workers:         cfg.Workers,
		Pipeline:        cfg.Pipeline.Enabled,
		PipelineTrace:   cfg.Pipeline.Trace,
		CacheTTL:        cfg.Cache.TTL,
		TriggeredBy:     trigger,
		HistoryKeep:     cfg.History.Keep,
	}
}
