// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before file and environment merges.
const (
	DefaultDataDir      = "./data"
	DefaultDefinitions  = "components.yaml"
	DefaultManifest     = "project.toml"
	DefaultListen       = ":8080"
	DefaultRateLimit    = 60
	DefaultWorkers      = 4
	DefaultCacheTTL     = 24 * time.Hour
	DefaultRedisAddr    = "localhost:6379"
	DefaultHistoryKeep  = 200
	DefaultOTLPProtocol = "grpc"
	DefaultSampleRate   = 1.0
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (Config, error) {
	cfg := Config{}
	l.setDefaults(&cfg)

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	// DataDir must be absolute to keep derived paths unambiguous.
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	l.derivePaths(&cfg)

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setDefaults(cfg *Config) {
	cfg.DataDir = DefaultDataDir
	cfg.DefinitionsPath = DefaultDefinitions
	cfg.ManifestPath = DefaultManifest
	cfg.Workers = DefaultWorkers
	cfg.Server.Listen = DefaultListen
	cfg.Server.RateLimit = DefaultRateLimit
	cfg.Cache.Backend = CacheMemory
	cfg.Cache.RedisAddr = DefaultRedisAddr
	cfg.Cache.TTL = DefaultCacheTTL
	cfg.History.Keep = DefaultHistoryKeep
	cfg.Telemetry.OTLPProtocol = DefaultOTLPProtocol
	cfg.Telemetry.SampleRate = DefaultSampleRate
}

// derivePaths fills path fields that default relative to DataDir.
func (l *Loader) derivePaths(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.DataDir, "src")
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = filepath.Join(cfg.DataDir, "cache")
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(cfg.DataDir, "history.db")
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// mergeFileConfig applies file values over the defaults. Only fields
// present in the file are applied.
func mergeFileConfig(cfg *Config, file *FileConfig) error {
	if file.DataDir != nil {
		cfg.DataDir = *file.DataDir
	}
	if file.Definitions != nil {
		cfg.DefinitionsPath = *file.Definitions
	}
	if file.Manifest != nil {
		cfg.ManifestPath = *file.Manifest
	}
	if file.Output != nil {
		cfg.OutputDir = *file.Output
	}
	if file.Workers != nil {
		cfg.Workers = *file.Workers
	}

	if s := file.Server; s != nil {
		if s.Listen != nil {
			cfg.Server.Listen = *s.Listen
		}
		if s.APIToken != nil {
			cfg.Server.APIToken = *s.APIToken
		}
		if s.RateLimit != nil {
			cfg.Server.RateLimit = *s.RateLimit
		}
	}

	if p := file.Pipeline; p != nil {
		if p.Enabled != nil {
			cfg.Pipeline.Enabled = *p.Enabled
		}
		if p.Trace != nil {
			cfg.Pipeline.Trace = *p.Trace
		}
	}

	if c := file.Cache; c != nil {
		if c.Backend != nil {
			cfg.Cache.Backend = *c.Backend
		}
		if c.Path != nil {
			cfg.Cache.Path = *c.Path
		}
		if c.RedisAddr != nil {
			cfg.Cache.RedisAddr = *c.RedisAddr
		}
		if c.TTL != nil {
			ttl, err := time.ParseDuration(*c.TTL)
			if err != nil {
				return fmt.Errorf("cache.ttl: %w", err)
			}
			cfg.Cache.TTL = ttl
		}
	}

	if h := file.History; h != nil {
		if h.Path != nil {
			cfg.History.Path = *h.Path
		}
		if h.Keep != nil {
			cfg.History.Keep = *h.Keep
		}
	}

	if t := file.Telemetry; t != nil {
		if t.OTLPEndpoint != nil {
			cfg.Telemetry.OTLPEndpoint = *t.OTLPEndpoint
		}
		if t.OTLPProtocol != nil {
			cfg.Telemetry.OTLPProtocol = *t.OTLPProtocol
		}
		if t.SampleRate != nil {
			cfg.Telemetry.SampleRate = *t.SampleRate
		}
	}
	return nil
}

// mergeEnvConfig applies environment variables over file values.
func (l *Loader) mergeEnvConfig(cfg *Config) {
	cfg.DataDir = l.envString(EnvDataDir, cfg.DataDir)
	cfg.DefinitionsPath = l.envString(EnvDefinitions, cfg.DefinitionsPath)
	cfg.ManifestPath = l.envString(EnvManifest, cfg.ManifestPath)
	cfg.OutputDir = l.envString(EnvOutputDir, cfg.OutputDir)
	cfg.Workers = l.envInt(EnvWorkers, cfg.Workers)

	cfg.Server.Listen = l.envString(EnvListen, cfg.Server.Listen)
	cfg.Server.APIToken = l.envString(EnvAPIToken, cfg.Server.APIToken)
	cfg.Server.RateLimit = l.envInt(EnvRateLimit, cfg.Server.RateLimit)

	cfg.Pipeline.Enabled = l.envBool(EnvPipelineEnabled, cfg.Pipeline.Enabled)
	cfg.Pipeline.Trace = l.envBool(EnvPipelineTrace, cfg.Pipeline.Trace)

	cfg.Cache.Backend = l.envString(EnvCacheBackend, cfg.Cache.Backend)
	cfg.Cache.Path = l.envString(EnvCachePath, cfg.Cache.Path)
	cfg.Cache.RedisAddr = l.envString(EnvRedisAddr, cfg.Cache.RedisAddr)
	cfg.Cache.TTL = l.envDuration(EnvCacheTTL, cfg.Cache.TTL)

	cfg.History.Path = l.envString(EnvHistoryDB, cfg.History.Path)
	cfg.History.Keep = l.envInt(EnvHistoryKeep, cfg.History.Keep)

	cfg.Telemetry.OTLPEndpoint = l.envString(EnvOTLPEndpoint, cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.OTLPProtocol = l.envString(EnvOTLPProtocol, cfg.Telemetry.OTLPProtocol)
	cfg.Telemetry.SampleRate = l.envFloat(EnvOTLPSampleRate, cfg.Telemetry.SampleRate)
}
