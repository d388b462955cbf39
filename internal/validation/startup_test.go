// SPDX-License-Identifier: MIT

package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greysonlalonde/js-utilities/internal/config"
)

func validConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	manifestPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("[package]\n"), 0o644))
	defsPath := filepath.Join(dir, "components.yaml")
	require.NoError(t, os.WriteFile(defsPath, []byte("components: []\n"), 0o644))

	return config.Config{
		DataDir:         filepath.Join(dir, "data"),
		OutputDir:       filepath.Join(dir, "data", "src"),
		ManifestPath:    manifestPath,
		DefinitionsPath: defsPath,
	}
}

func TestStartupChecksPass(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, PerformStartupChecks(cfg))

	// Missing directories are created on the way through.
	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, cfg.OutputDir)
}

func TestStartupChecksMissingManifest(t *testing.T) {
	cfg := validConfig(t)
	cfg.ManifestPath = filepath.Join(t.TempDir(), "absent.toml")

	err := PerformStartupChecks(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest check failed")
}

func TestStartupChecksDefinitionsIsDirectory(t *testing.T) {
	cfg := validConfig(t)
	cfg.DefinitionsPath = t.TempDir()

	err := PerformStartupChecks(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestStartupChecksUnwritableDataDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	cfg := validConfig(t)
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o555))
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })
	cfg.DataDir = filepath.Join(parent, "data")

	err := PerformStartupChecks(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory check failed")
}

func TestStartupChecksEmptyPaths(t *testing.T) {
	err := PerformStartupChecks(config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory path is empty")
}
