// SPDX-License-Identifier: MIT

package jobs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/greysonlalonde/js-utilities/internal/cache"
	"github.com/greysonlalonde/js-utilities/internal/component"
	"github.com/greysonlalonde/js-utilities/internal/fsutil"
	"github.com/greysonlalonde/js-utilities/internal/history"
	"github.com/greysonlalonde/js-utilities/internal/log"
	"github.com/greysonlalonde/js-utilities/internal/manifest"
	"github.com/greysonlalonde/js-utilities/internal/metrics"
	"github.com/greysonlalonde/js-utilities/internal/render"
	"github.com/greysonlalonde/js-utilities/internal/telemetry"
	"github.com/greysonlalonde/js-utilities/internal/toolchain"
)

// Generator runs generation jobs against shared backends. The cache
// and history store outlive individual runs.
type Generator struct {
	cache   cache.Cache
	history *history.Store
}

// NewGenerator creates a generator. A nil cache disables caching; a
// nil history store disables run recording.
func NewGenerator(c cache.Cache, h *history.Store) *Generator {
	if c == nil {
		c = cache.Disabled()
	}
	return &Generator{cache: c, history: h}
}

// Generate performs one complete generation run: manifest → definitions
// → concurrent render → atomic artifact writes → optional QA pipeline →
// status.json → history record.
func (g *Generator) Generate(ctx context.Context, cfg Config) (*Status, error) {
	started := time.Now()

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	trigger := cfg.TriggeredBy
	if trigger == "" {
		trigger = history.TriggerCLI
	}
	run := history.Run{ID: uuid.NewString(), StartedAt: started, TriggeredBy: trigger}

	// The run ID doubles as the job ID, so log lines and the history
	// record can be joined.
	ctx = log.ContextWithJobID(ctx, run.ID)
	ctx, span := telemetry.Tracer("jobs").Start(ctx, "generate")
	defer span.End()
	logger := log.WithComponentFromContext(ctx, "jobs")

	logger.Info().
		Str("event", "generate.start").
		Str("manifest", cfg.ManifestPath).
		Str("definitions", cfg.DefinitionsPath).
		Msg("starting generation")

	st, err := g.execute(ctx, cfg, logger, &run)
	run.FinishedAt = time.Now()

	if err != nil {
		run.Result = history.ResultError
		run.Error = err.Error()
		g.writeFailureStatus(ctx, cfg, logger, st, err)
		metrics.GenerateRunsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		logger.Error().
			Err(err).
			Str("event", "generate.failed").
			Msg("generation failed")
		g.record(ctx, logger, run, cfg.HistoryKeep)
		return nil, err
	}

	run.Result = history.ResultOK
	span.SetAttributes(telemetry.GenerateAttributes(st.Components, st.Files, st.Skipped, workerCount(cfg))...)
	metrics.GenerateRunsTotal.WithLabelValues("ok").Inc()
	metrics.GenerateDuration.Observe(run.Duration().Seconds())
	logger.Info().
		Str("event", "generate.success").
		Int("components", st.Components).
		Int("files", st.Files).
		Int("skipped", st.Skipped).
		Bool("pipeline", st.PipelineRan).
		Msg("generation completed")
	g.record(ctx, logger, run, cfg.HistoryKeep)

	return st, nil
}

// execute runs the generation steps. The returned status carries
// whatever counts were reached, even on error.
func (g *Generator) execute(ctx context.Context, cfg Config, logger zerolog.Logger, run *history.Run) (*Status, error) {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	defs, err := component.LoadDefinitions(cfg.DefinitionsPath)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	st := &Status{Version: m.Package.Version, Components: len(defs.Components)}
	run.Components = len(defs.Components)

	workers := workerCount(cfg)

	type result struct {
		cached bool
		kind   string
	}
	results := make([]result, len(defs.Components))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range defs.Components {
		eg.Go(func() error {
			c := &defs.Components[i]

			source, cached, err := g.renderComponent(c, cfg.CacheTTL)
			if err != nil {
				return err
			}

			path := filepath.Join(cfg.OutputDir, render.ComponentFileName(c))
			if err := fsutil.WriteFileAtomic(egCtx, path, []byte(source)); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			results[i] = result{cached: cached, kind: componentKind(c)}
			logger.Debug().
				Str("event", "component.write").
				Str("name", c.Name).
				Bool("cached", cached).
				Msg("component written")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return st, err
	}

	for _, r := range results {
		if r.cached {
			st.Skipped++
			continue
		}
		metrics.ComponentsRenderedTotal.WithLabelValues(r.kind).Inc()
	}
	st.Files = len(defs.Components)
	run.Cached = st.Skipped

	if len(defs.Elements) > 0 {
		buf := &bytes.Buffer{}
		if err := render.WriteElements(buf, defs.Elements); err != nil {
			return st, fmt.Errorf("render elements: %w", err)
		}
		path := filepath.Join(cfg.OutputDir, "elements.html")
		if err := fsutil.WriteFileAtomic(ctx, path, buf.Bytes()); err != nil {
			return st, fmt.Errorf("write %s: %w", path, err)
		}
		st.Files++
	}
	run.Files = st.Files

	if cfg.Pipeline {
		pl, err := toolchain.New(m)
		if err != nil {
			return st, fmt.Errorf("build pipeline: %w", err)
		}
		pl.Trace = cfg.PipelineTrace
		st.PipelineRan = true
		run.PipelineRan = true
		if err := pl.Run(ctx, cfg.OutputDir); err != nil {
			return st, err
		}
	}

	st.GeneratedAt = time.Now()
	if err := writeStatus(ctx, statusPath(cfg), st); err != nil {
		return st, err
	}

	return st, nil
}

// renderComponent returns the component source, from cache when the
// definition hashes to a known key.
func (g *Generator) renderComponent(c *component.Component, ttl time.Duration) (string, bool, error) {
	key, keyErr := cacheKey(c)
	if keyErr == nil {
		if source, ok := g.cache.Get(key); ok {
			return source, true, nil
		}
	}

	buf := &bytes.Buffer{}
	if err := render.WriteComponent(buf, c); err != nil {
		return "", false, err
	}

	if keyErr == nil {
		g.cache.Set(key, buf.String(), ttl)
	}
	return buf.String(), false, nil
}

// cacheKey hashes the component definition together with the output
// format version, so format changes invalidate old entries.
func cacheKey(c *component.Component) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("render:v%d:%s", render.Version, hex.EncodeToString(sum[:])), nil
}

func componentKind(c *component.Component) string {
	if c.Functional {
		return "functional"
	}
	return "class"
}

func statusPath(cfg Config) string {
	if cfg.StatusPath != "" {
		return cfg.StatusPath
	}
	return filepath.Join(cfg.OutputDir, "status.json")
}

func writeStatus(ctx context.Context, path string, st *Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(ctx, path, data); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// writeFailureStatus records the error in status.json so operators see
// the failed run, not a stale success. Best effort.
func (g *Generator) writeFailureStatus(ctx context.Context, cfg Config, logger zerolog.Logger, st *Status, genErr error) {
	if st == nil {
		st = &Status{}
	}
	st.GeneratedAt = time.Now()
	st.LastError = genErr.Error()
	if err := writeStatus(ctx, statusPath(cfg), st); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "status.write_failed").
			Msg("failed to write failure status")
	}
}

func (g *Generator) record(ctx context.Context, logger zerolog.Logger, run history.Run, keep int) {
	if g.history == nil {
		return
	}
	if _, err := g.history.Record(ctx, run); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "history.record_failed").
			Msg("failed to record run")
		return
	}
	if keep <= 0 {
		return
	}
	pruned, err := g.history.Prune(ctx, keep)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("event", "history.prune_failed").
			Msg("failed to prune history")
		return
	}
	if pruned > 0 {
		logger.Debug().
			Str("event", "history.pruned").
			Int64("pruned", pruned).
			Msg("old runs pruned")
	}
}
