// SPDX-License-Identifier: MIT

// Package validation runs pre-flight checks so the daemon fails fast
// on a broken environment instead of limping into its first request.
package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/greysonlalonde/js-utilities/internal/config"
	"github.com/greysonlalonde/js-utilities/internal/fsutil"
	"github.com/greysonlalonde/js-utilities/internal/log"
)

// PerformStartupChecks validates the environment before the daemon
// starts serving: the data and output directories must be writable and
// the manifest and definitions files readable.
func PerformStartupChecks(cfg config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkWritableDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkWritableDir(logger, cfg.OutputDir); err != nil {
		return fmt.Errorf("output directory check failed: %w", err)
	}
	if err := checkInputFile(logger, "manifest", cfg.ManifestPath); err != nil {
		return err
	}
	if err := checkInputFile(logger, "definitions", cfg.DefinitionsPath); err != nil {
		return err
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

// checkWritableDir creates the directory when missing and probes write
// access with a throwaway file.
func checkWritableDir(logger zerolog.Logger, path string) error {
	if path == "" {
		return fmt.Errorf("directory path is empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	probe := filepath.Join(path, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(probe)

	logger.Info().Str("path", path).Msg("directory is writable")
	return nil
}

// checkInputFile verifies the path names an existing regular file.
// Content validation stays with the generation run; a watcher-managed
// file may legitimately be replaced at any moment.
func checkInputFile(logger zerolog.Logger, kind, path string) error {
	if path == "" {
		return fmt.Errorf("%s path is empty", kind)
	}
	if err := fsutil.IsRegularFile(path); err != nil {
		return fmt.Errorf("%s check failed: %s: %w", kind, path, err)
	}
	logger.Info().Str("path", path).Msgf("%s file present", kind)
	return nil
}
