// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
)

const maxWorkers = 64

// Validate checks a resolved configuration. It is called by the
// loader and again on every reload; a config that fails here is never
// applied.
func Validate(cfg Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if cfg.DefinitionsPath == "" {
		return fmt.Errorf("definitions path must not be empty")
	}
	if cfg.ManifestPath == "" {
		return fmt.Errorf("manifest path must not be empty")
	}

	if cfg.Workers < 1 || cfg.Workers > maxWorkers {
		return fmt.Errorf("workers must be between 1 and %d (got %d)", maxWorkers, cfg.Workers)
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("server.rateLimit must not be negative (got %d)", cfg.Server.RateLimit)
	}

	switch cfg.Cache.Backend {
	case CacheMemory:
	case CacheBadger:
		if cfg.Cache.Path == "" {
			return fmt.Errorf("cache.path required for the badger backend")
		}
	case CacheRedis:
		if strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
			return fmt.Errorf("cache.redisAddr required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (expected %s, %s or %s)",
			cfg.Cache.Backend, CacheMemory, CacheBadger, CacheRedis)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if cfg.History.Path == "" {
		return fmt.Errorf("history.path must not be empty")
	}
	if cfg.History.Keep < 0 {
		return fmt.Errorf("history.keep must not be negative (got %d)", cfg.History.Keep)
	}

	switch cfg.Telemetry.OTLPProtocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.otlpProtocol must be grpc or http (got %q)", cfg.Telemetry.OTLPProtocol)
	}
	if r := cfg.Telemetry.SampleRate; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sampleRate must be between 0 and 1 (got %g)", r)
	}
	return nil
}
