// SPDX-License-Identifier: MIT

// Package log owns the process-wide zerolog logger and the correlation
// fields (request ID, job ID, trace IDs) that tie log lines to the work
// that produced them.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the process logger. Zero values fall back to the
// LOG_LEVEL, LOG_SERVICE and VERSION environment variables, then to
// built-in defaults.
type Config struct {
	Level   string
	Output  io.Writer
	Service string
	Version string
}

var (
	initOnce sync.Once
	process  zerolog.Logger
)

// Configure builds the process logger. The first call wins; packages
// that log before main calls Configure get the environment defaults.
func Configure(cfg Config) {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		zerolog.SetGlobalLevel(resolveLevel(cfg.Level))

		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		process = zerolog.New(out).With().
			Timestamp().
			Str("service", pick(cfg.Service, os.Getenv("LOG_SERVICE"), "js-utilities")).
			Str("version", pick(cfg.Version, os.Getenv("VERSION"), "dev")).
			Logger()
	})
}

func resolveLevel(explicit string) zerolog.Level {
	for _, s := range []string{explicit, os.Getenv("LOG_LEVEL")} {
		if s == "" {
			continue
		}
		if lvl, err := zerolog.ParseLevel(strings.ToLower(s)); err == nil {
			return lvl
		}
	}
	return zerolog.InfoLevel
}

// pick returns the first non-empty string.
func pick(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func root() zerolog.Logger {
	Configure(Config{})
	return process
}

// WithComponent tags the process logger with a subsystem name. Every
// package logs through a component logger so output can be filtered.
func WithComponent(component string) zerolog.Logger {
	return root().With().Str("component", component).Logger()
}
