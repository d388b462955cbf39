// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisDialTimeout = 5 * time.Second
	redisOpTimeout   = 2 * time.Second
)

// redisCache shares rendered source between daemon instances. Source
// text is stored as plain Redis strings with per-key TTLs.
type redisCache struct {
	client *redis.Client
	logger zerolog.Logger
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewRedis connects to the Redis server at addr and verifies the
// connection with a ping before returning.
func NewRedis(addr string, logger zerolog.Logger) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("event", "cache.open").
		Str("addr", addr).
		Msg("redis cache ready")
	return &redisCache{client: client, logger: logger}, nil
}

func (c *redisCache) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}

func (c *redisCache) Get(key string) (string, bool) {
	ctx, cancel := c.opCtx()
	defer cancel()

	source, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.hits.Add(1)
		return source, true
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
	}
	c.misses.Add(1)
	return "", false
}

func (c *redisCache) Set(key, source string, ttl time.Duration) {
	ctx, cancel := c.opCtx()
	defer cancel()

	if err := c.client.Set(ctx, key, source, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
		return
	}
	c.sets.Add(1)
}

func (c *redisCache) Delete(key string) {
	ctx, cancel := c.opCtx()
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

// Clear flushes the configured database, not just this cache's keys.
// The daemon is expected to own the database it points at.
func (c *redisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	if err := c.client.FlushDB(ctx).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("redis flush failed")
	}
}

func (c *redisCache) Stats() Stats {
	ctx, cancel := c.opCtx()
	defer cancel()

	entries, err := c.client.DBSize(ctx).Result()
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis dbsize failed")
		entries = 0
	}
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Entries: int(entries),
	}
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
