// SPDX-License-Identifier: MIT

// Package jobs orchestrates generation runs: load the manifest and
// component definitions, render every component, write artifacts
// atomically, optionally run the QA toolchain, and record the run.
package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/greysonlalonde/js-utilities/internal/history"
)

// Config holds configuration for one generation run.
type Config struct {
	ManifestPath    string
	DefinitionsPath string
	OutputDir       string

	// StatusPath is where status.json is written. Empty means
	// OutputDir/status.json.
	StatusPath string

	// Workers bounds concurrent component rendering. Zero or negative
	// falls back to 1.
	Workers int

	// Pipeline runs the QA toolchain over OutputDir after rendering.
	Pipeline      bool
	PipelineTrace bool

	// CacheTTL is how long rendered sources stay cached. Zero means no
	// expiry.
	CacheTTL time.Duration

	// TriggeredBy tags the history record (cli, api, watch).
	TriggeredBy string

	// HistoryKeep caps the retained run records; older runs are pruned
	// after each recorded run. Zero keeps everything.
	HistoryKeep int
}

// Status represents the outcome of the most recent generation run.
type Status struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Components  int       `json:"components"`
	Files       int       `json:"files"`
	Skipped     int       `json:"skipped"`
	PipelineRan bool      `json:"pipeline_ran"`
	LastError   string    `json:"last_error,omitempty"`
}

// LoadStatus reads a previously written status.json.
func LoadStatus(path string) (*Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse status %s: %w", path, err)
	}
	return &st, nil
}

// workerCount clamps Config.Workers to at least one.
func workerCount(cfg Config) int {
	if cfg.Workers < 1 {
		return 1
	}
	return cfg.Workers
}

func validateConfig(cfg Config) error {
	if cfg.ManifestPath == "" {
		return fmt.Errorf("manifest path is empty")
	}
	if cfg.DefinitionsPath == "" {
		return fmt.Errorf("definitions path is empty")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("output dir is empty")
	}
	switch cfg.TriggeredBy {
	case "", history.TriggerCLI, history.TriggerAPI, history.TriggerWatch:
	default:
		return fmt.Errorf("unknown trigger %q", cfg.TriggeredBy)
	}
	return nil
}
