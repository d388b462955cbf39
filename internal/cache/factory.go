// SPDX-License-Identifier: MIT

package cache

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/greysonlalonde/js-utilities/internal/config"
	"github.com/greysonlalonde/js-utilities/internal/metrics"
)

// defaultSweepInterval is how often the in-memory backend evicts
// expired entries.
const defaultSweepInterval = 10 * time.Minute

// New builds the cache backend selected in settings. The returned cache
// reports hits and misses to Prometheus labeled with the backend name.
func New(settings config.CacheSettings, logger zerolog.Logger) (Cache, error) {
	backend := settings.Backend
	if backend == "" {
		backend = config.CacheMemory
	}

	var (
		c   Cache
		err error
	)
	switch backend {
	case config.CacheMemory:
		c = NewMemory(defaultSweepInterval)
	case config.CacheBadger:
		c, err = NewBadger(settings.Path, logger)
	case config.CacheRedis:
		c, err = NewRedis(settings.RedisAddr, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
	if err != nil {
		return nil, err
	}

	return &instrumented{Cache: c, backend: backend}, nil
}

// instrumented wraps a Cache and counts hits and misses per backend.
type instrumented struct {
	Cache
	backend string
}

func (c *instrumented) Get(key string) (string, bool) {
	source, ok := c.Cache.Get(key)
	if ok {
		metrics.CacheHitsTotal.WithLabelValues(c.backend).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(c.backend).Inc()
	}
	return source, ok
}
