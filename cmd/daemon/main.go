// SPDX-License-Identifier: MIT

// daemon runs the generation service: it loads configuration, performs
// an initial generation, serves the HTTP API and regenerates whenever
// the component definitions or the manifest change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/greysonlalonde/js-utilities/internal/api"
	"github.com/greysonlalonde/js-utilities/internal/cache"
	"github.com/greysonlalonde/js-utilities/internal/config"
	"github.com/greysonlalonde/js-utilities/internal/history"
	"github.com/greysonlalonde/js-utilities/internal/jobs"
	"github.com/greysonlalonde/js-utilities/internal/log"
	"github.com/greysonlalonde/js-utilities/internal/telemetry"
	"github.com/greysonlalonde/js-utilities/internal/validation"
	"github.com/greysonlalonde/js-utilities/internal/watch"
)

var (
	version   = "0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	watchMode := flag.Bool("watch", true, "regenerate when definitions or manifest change")
	initialRun := flag.Bool("generate-on-start", true, "run one generation before serving")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	log.Configure(log.Config{
		Level:   os.Getenv("JSUTIL_LOG_LEVEL"),
		Service: "js-utilities",
		Version: version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --config wins; otherwise pick up <dataDir>/config.yaml when it
	// exists so operator-saved config persists across restarts.
	effectiveConfigPath := resolveConfigPath(*configPath)

	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	if effectiveConfigPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := validation.PerformStartupChecks(cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.Server.Listen).
		Msg("starting js-utilities")

	logger.Info().Msgf("→ Manifest: %s", cfg.ManifestPath)
	logger.Info().Msgf("→ Definitions: %s", cfg.DefinitionsPath)
	logger.Info().Msgf("→ Output: %s", cfg.OutputDir)
	logger.Info().Msgf("→ Cache: %s", cfg.Cache.Backend)
	logger.Info().Msgf("→ Pipeline: %v", cfg.Pipeline.Enabled)
	if cfg.Server.APIToken != "" {
		logger.Info().Msg("→ API token: configured")
	} else {
		logger.Warn().
			Str("security", "weak").
			Msg("→ API token: NOT configured (auth disabled). Set JSUTIL_API_TOKEN for security.")
	}

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.OTLPEndpoint != "",
		ServiceName:    "js-utilities",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Protocol:       cfg.Telemetry.OTLPProtocol,
		SamplingRate:   cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "telemetry.init_failed").
			Msg("failed to initialise telemetry")
	}

	renderCache, err := cache.New(cfg.Cache, log.WithComponent("cache"))
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "cache.init_failed").
			Str("backend", cfg.Cache.Backend).
			Msg("failed to initialise render cache")
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "history.init_failed").
			Str("path", cfg.History.Path).
			Msg("failed to open history store")
	}

	gen := jobs.NewGenerator(renderCache, store)
	srv := api.New(cfg, gen, store)

	// Hot reload: watch the config file and push accepted snapshots to
	// the API layer.
	holder := config.NewHolder(cfg, config.NewLoader(effectiveConfigPath, version), effectiveConfigPath)
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "config.watcher_failed").
			Msg("config hot reload unavailable")
	}
	reloads := make(chan config.Config, 1)
	holder.RegisterListener(reloads)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case newCfg := <-reloads:
				srv.SetConfig(newCfg)
			}
		}
	}()

	if *initialRun {
		logger.Info().Msg("performing initial generation on startup")
		if st, err := gen.Generate(ctx, runConfig(holder.Get(), history.TriggerCLI)); err != nil {
			logger.Error().Err(err).Msg("initial generation failed")
			logger.Warn().Msg("→ Artifacts missing until a run succeeds via POST /api/refresh")
		} else {
			srv.SetStatus(*st)
		}
	}

	if *watchMode {
		w, err := watch.New(watch.Config{
			Paths: []string{cfg.DefinitionsPath, cfg.ManifestPath},
			OnChange: func(ctx context.Context, path string) {
				logger.Info().
					Str("event", "watch.regenerate").
					Str("path", path).
					Msg("definitions changed, regenerating")
				st, err := gen.Generate(ctx, runConfig(holder.Get(), history.TriggerWatch))
				if err != nil {
					logger.Error().
						Err(err).
						Str("event", "watch.generate_failed").
						Msg("regeneration failed")
					return
				}
				srv.SetStatus(*st)
			},
		})
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "watch.init_failed").
				Msg("failed to create definitions watcher")
		}
		if err := w.Start(ctx); err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "watch.start_failed").
				Msg("failed to start definitions watcher")
		}
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info().
			Str("event", "server.listening").
			Str("addr", cfg.Server.Listen).
			Msg("API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("api server: %w", err)
		}
	}()

	var srvErr error
	select {
	case srvErr = <-errChan:
		logger.Error().
			Err(srvErr).
			Str("event", "server.failed").
			Msg("server error, shutting down")
	case <-ctx.Done():
		logger.Info().
			Str("event", "shutdown.signal").
			Msg("shutdown signal received")
	}

	// Bounded shutdown that survives the already-cancelled parent.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpSrv.Close()
	}
	holder.Stop()
	if err := store.Close(); err != nil {
		logger.Error().Err(err).Msg("closing history store failed")
	}
	if err := renderCache.Close(); err != nil {
		logger.Error().Err(err).Msg("closing render cache failed")
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("telemetry shutdown failed")
	}

	if srvErr != nil {
		logger.Error().Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("server exiting")
}

// resolveConfigPath applies the config discovery order: an explicit
// --config path, then <dataDir>/config.yaml when present, else none.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(config.ParseString(config.EnvDataDir, config.DefaultDataDir))
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

// runConfig maps service configuration onto a single generation run.
func runConfig(cfg config.Config, trigger string) jobs.Config {
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
