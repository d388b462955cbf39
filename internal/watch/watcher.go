// SPDX-License-Identifier: MIT

// Package watch fires a debounced callback when watched files change
// on disk. The daemon uses it to regenerate on definition and manifest
// edits and to hot reload its config file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/greysonlalonde/js-utilities/internal/log"
)

// DefaultDebounce coalesces rapid save bursts into a single trigger.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Paths are the files whose changes fire OnChange. Their parent
	// directories are registered with fsnotify so editors that replace
	// files via rename keep triggering after the inode changes.
	Paths []string

	// Debounce is the quiet window before OnChange fires. Zero means
	// DefaultDebounce.
	Debounce time.Duration

	// OnChange runs once per debounce window with the path that
	// changed last.
	OnChange func(ctx context.Context, path string)
}

// Watcher watches a fixed set of files and fires a debounced callback.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	logger  zerolog.Logger
	targets map[string]struct{}
	done    chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	started bool
}

// New validates cfg and prepares a watcher. Start must be called
// before any events are delivered.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("watch: no paths configured")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watch: OnChange must not be nil")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	targets := make(map[string]struct{}, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		targets[filepath.Clean(abs)] = struct{}{}
	}

	return &Watcher{
		cfg:     cfg,
		logger:  log.WithComponent("watch"),
		targets: targets,
		done:    make(chan struct{}),
	}, nil
}

// Start registers the parent directories with fsnotify and launches
// the event loop. The loop exits when ctx is cancelled or Close is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watch: already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}

	dirs := make(map[string]struct{}, len(w.targets))
	for target := range w.targets {
		dirs[filepath.Dir(target)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}

	w.fsw = fsw
	w.started = true

	w.logger.Info().
		Str("event", "watch.started").
		Int("paths", len(w.targets)).
		Dur("debounce", w.cfg.Debounce).
		Msg("watching for file changes")

	go func() {
		defer close(w.done)
		w.loop(ctx)
	}()
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			w.logger.Info().Str("event", "watch.stopped").Msg("watcher stopped")
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error().
				Err(err).
				Str("event", "watch.error").
				Msg("watcher error")
		}
	}
}

// handleEvent filters events down to the watched files and arms the
// debounce timer. Rename covers the editor backup dance where the
// original is moved aside before the replacement appears.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Clean(ev.Name)
	if _, ok := w.targets[name]; !ok {
		return
	}

	w.logger.Debug().
		Str("event", "watch.file_changed").
		Str("path", name).
		Str("op", ev.Op.String()).
		Msg("watched file changed")

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.cfg.OnChange(ctx, name)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Close stops the underlying fsnotify watcher, which drains the event
// loop and lets it exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}
