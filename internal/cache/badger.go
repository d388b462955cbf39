// SPDX-License-Identifier: MIT

package cache

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// badgerCache keeps rendered source on disk, so warm entries survive a
// daemon restart or upgrade. Values are stored as raw bytes; Badger's
// own TTL handles expiry.
type badgerCache struct {
	db     *badger.DB
	logger zerolog.Logger
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewBadger opens (or creates) the Badger database at path.
func NewBadger(path string, logger zerolog.Logger) (Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger cache at %s: %w", path, err)
	}
	logger.Info().
		Str("event", "cache.open").
		Str("path", path).
		Msg("badger cache ready")
	return &badgerCache{db: db, logger: logger}, nil
}

func (c *badgerCache) Get(key string) (string, bool) {
	var source []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		source, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		c.hits.Add(1)
		return string(source), true
	case errors.Is(err, badger.ErrKeyNotFound):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("badger get failed")
	}
	c.misses.Add(1)
	return "", false
}

func (c *badgerCache) Set(key, source string, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), []byte(source))
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger set failed")
		return
	}
	c.sets.Add(1)
}

func (c *badgerCache) Delete(key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger delete failed")
	}
}

func (c *badgerCache) Clear() {
	if err := c.db.DropAll(); err != nil {
		c.logger.Warn().Err(err).Msg("badger drop failed")
	}
}

// Stats counts live keys with an iterator, so it is not free; callers
// on a request path should rate their calls accordingly.
func (c *badgerCache) Stats() Stats {
	entries := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			entries++
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("badger key scan failed")
	}
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Entries: entries,
	}
}

func (c *badgerCache) Close() error {
	return c.db.Close()
}
