// SPDX-License-Identifier: MIT

// Package cache stores rendered component source keyed by definition
// content hash, so unchanged definitions skip the render step on the
// next run. Backends: in-memory, Badger (survives restarts), Redis
// (shared between instances).
package cache

import (
	"sync"
	"time"
)

// Cache is the render cache contract. Keys are content hashes, values
// are complete component source files.
type Cache interface {
	// Get returns the cached source for key, when present and fresh.
	Get(key string) (string, bool)
	// Set stores source under key. A ttl of zero or less pins the
	// entry forever.
	Set(key, source string, ttl time.Duration)
	// Delete drops one entry.
	Delete(key string)
	// Clear drops every entry.
	Clear()
	// Stats reports counters and the current entry count.
	Stats() Stats
	// Close releases backend resources.
	Close() error
}

// Stats carries cache counters. Entries is the live entry count at the
// time of the call.
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Entries   int
}

// memEntry holds one cached source. A zero expiresAt means pinned.
type memEntry struct {
	source    string
	expiresAt int64
}

func (e memEntry) expired(now int64) bool {
	return e.expiresAt != 0 && now > e.expiresAt
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	stats   Stats
	done    chan struct{}
	once    sync.Once
}

// NewMemory builds an in-memory cache. With a positive sweepInterval a
// background goroutine evicts expired entries; pass zero to rely on
// lazy expiry at Get time only.
func NewMemory(sweepInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]memEntry),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

func (c *memoryCache) Get(key string) (string, bool) {
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found || e.expired(now) {
		c.stats.Misses++
		return "", false
	}
	c.stats.Hits++
	return e.source, true
}

func (c *memoryCache) Set(key, source string, ttl time.Duration) {
	e := memEntry{source: source}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	c.stats.Sets++
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memEntry)
}

func (c *memoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.stats
	out.Entries = len(c.entries)
	return out
}

// Close stops the sweeper. Safe to call more than once.
func (c *memoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *memoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.done:
			return
		}
	}
}

func (c *memoryCache) evictExpired() {
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
	}
}

// Disabled returns a cache that stores nothing. Every Get is a miss.
func Disabled() Cache {
	return disabledCache{}
}

type disabledCache struct{}

func (disabledCache) Get(string) (string, bool)         { return "", false }
func (disabledCache) Set(string, string, time.Duration) {}
func (disabledCache) Delete(string)                     {}
func (disabledCache) Clear()                            {}
func (disabledCache) Stats() Stats                      { return Stats{} }
func (disabledCache) Close() error                      { return nil }
