// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/greysonlalonde/js-utilities/internal/log"
	"github.com/greysonlalonde/js-utilities/internal/watch"
)

// Holder hands out the current Config and swaps in new snapshots
// atomically. Reloads come from the config file watcher or from the
// refresh API.
type Holder struct {
	mu         sync.RWMutex
	current    Config
	loader     *Loader
	configPath string
	watcher    *watch.Watcher
	logger     zerolog.Logger

	listenerMu sync.RWMutex
	listeners  []chan<- Config
}

// NewHolder seeds a holder with the already-loaded initial config.
func NewHolder(initial Config, loader *Loader, configPath string) *Holder {
	return &Holder{
		current:    initial,
		loader:     loader,
		configPath: configPath,
		logger:     log.WithComponent("config"),
	}
}

// Get returns the current configuration snapshot.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload runs the loader again. On any error the running config stays
// in place. On success the new snapshot is swapped in, listeners are
// notified and field-level changes are logged.
func (h *Holder) Reload(_ context.Context) error {
	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("keeping current configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	for _, d := range diffConfigs(prev, next) {
		h.logger.Info().
			Str("event", "config.changed").
			Str("field", d.field).
			Str("old", d.old).
			Str("new", d.new).
			Msg("config field changed")
	}
	h.notify(next)

	h.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded")
	return nil
}

// StartWatcher begins watching the config file and reloads on change.
// Without a config file the daemon is ENV-only and this is a no-op.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("no config file, hot reload disabled")
		return nil
	}

	w, err := watch.New(watch.Config{
		Paths: []string{h.configPath},
		OnChange: func(ctx context.Context, _ string) {
			if err := h.Reload(ctx); err != nil {
				h.logger.Error().
					Err(err).
					Str("event", "config.auto_reload_failed").
					Msg("automatic config reload failed")
			}
		},
	})
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	h.watcher = w

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file")
	return nil
}

// Stop shuts the file watcher down, when one is running.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener adds a channel that receives every successfully
// reloaded Config. Sends are non-blocking; a full channel misses that
// update.
func (h *Holder) RegisterListener(ch chan<- Config) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg Config) {
	h.listenerMu.RLock()
	defer h.listenerMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("listener channel full, update dropped")
		}
	}
}

// change records one field difference between two configs, with values
// already formatted (and masked) for logging.
type change struct {
	field string
	old   string
	new   string
}

// diffConfigs lists the operator-visible fields that differ between
// prev and next.
func diffConfigs(prev, next Config) []change {
	var out []change
	add := func(field, o, n string) {
		if o != n {
			out = append(out, change{field: field, old: o, new: n})
		}
	}

	add("definitions", prev.DefinitionsPath, next.DefinitionsPath)
	add("manifest", prev.ManifestPath, next.ManifestPath)
	add("output", prev.OutputDir, next.OutputDir)
	add("workers", strconv.Itoa(prev.Workers), strconv.Itoa(next.Workers))
	add("server.listen", prev.Server.Listen, next.Server.Listen)
	add("server.apiToken", maskToken(prev.Server.APIToken), maskToken(next.Server.APIToken))
	add("pipeline.enabled", strconv.FormatBool(prev.Pipeline.Enabled), strconv.FormatBool(next.Pipeline.Enabled))
	add("cache.backend", prev.Cache.Backend, next.Cache.Backend)
	return out
}

// maskToken hides token values in logs while still showing whether a
// token is set at all.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	return "***redacted***"
}
