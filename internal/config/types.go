// SPDX-License-Identifier: MIT

// Package config loads service configuration with the precedence
// ENV > file > defaults. Config files are YAML and parsed strictly;
// unknown fields are rejected.
package config

import "time"

// Cache backend names accepted by CacheSettings.Backend.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
	CacheRedis  = "redis"
)

// Config is the fully resolved service configuration.
type Config struct {
	// DataDir is the root directory for all generated artifacts.
	DataDir string

	// DefinitionsPath points to the component definitions YAML file.
	DefinitionsPath string

	// ManifestPath points to the project manifest (project.toml).
	ManifestPath string

	// OutputDir is where rendered source files are written. Defaults
	// to <DataDir>/src.
	OutputDir string

	// Workers bounds concurrent component renders per run.
	Workers int

	Server    ServerSettings
	Pipeline  PipelineSettings
	Cache     CacheSettings
	History   HistorySettings
	Telemetry TelemetrySettings

	// Version is stamped from the binary at load time.
	Version string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Listen    string
	APIToken  string
	RateLimit int // requests per minute per client, 0 disables
}

// PipelineSettings configures the QA tool pipeline run after
// generation.
type PipelineSettings struct {
	Enabled bool
	Trace   bool
}

// CacheSettings configures the render cache.
type CacheSettings struct {
	Backend   string
	Path      string // badger directory, defaults to <DataDir>/cache
	RedisAddr string
	TTL       time.Duration
}

// HistorySettings configures the run history store.
type HistorySettings struct {
	Path string // sqlite file, defaults to <DataDir>/history.db
	Keep int    // runs retained after pruning, 0 keeps everything
}

// TelemetrySettings configures trace export. An empty endpoint
// disables export.
type TelemetrySettings struct {
	OTLPEndpoint string
	OTLPProtocol string  // "grpc" or "http"
	SampleRate   float64 // fraction of traces kept, 0 to 1
}

// FileConfig mirrors the YAML config file. Pointer fields distinguish
// "absent" from zero values during merge.
type FileConfig struct {
	DataDir     *string        `yaml:"dataDir"`
	Definitions *string        `yaml:"definitions"`
	Manifest    *string        `yaml:"manifest"`
	Output      *string        `yaml:"output"`
	Workers     *int           `yaml:"workers"`
	Server      *ServerFile    `yaml:"server"`
	Pipeline    *PipelineFile  `yaml:"pipeline"`
	Cache       *CacheFile     `yaml:"cache"`
	History     *HistoryFile   `yaml:"history"`
	Telemetry   *TelemetryFile `yaml:"telemetry"`
}

// ServerFile is the server block of the config file.
type ServerFile struct {
	Listen    *string `yaml:"listen"`
	APIToken  *string `yaml:"apiToken"`
	RateLimit *int    `yaml:"rateLimit"`
}

// PipelineFile is the pipeline block of the config file.
type PipelineFile struct {
	Enabled *bool `yaml:"enabled"`
	Trace   *bool `yaml:"trace"`
}

// CacheFile is the cache block of the config file.
type CacheFile struct {
	Backend   *string `yaml:"backend"`
	Path      *string `yaml:"path"`
	RedisAddr *string `yaml:"redisAddr"`
	TTL       *string `yaml:"ttl"` // Go duration string, e.g. "24h"
}

// HistoryFile is the history block of the config file.
type HistoryFile struct {
	Path *string `yaml:"path"`
	Keep *int    `yaml:"keep"`
}

// TelemetryFile is the telemetry block of the config file.
type TelemetryFile struct {
	OTLPEndpoint *string  `yaml:"otlpEndpoint"`
	OTLPProtocol *string  `yaml:"otlpProtocol"`
	SampleRate   *float64 `yaml:"sampleRate"`
}
