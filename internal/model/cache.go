// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/uday68/mindhangar-sub001/internal/metrics"
)

// artifactKeyPrefix namespaces cache records in BadgerDB.
const artifactKeyPrefix = "artifact:"

// Cache is the durable, quota-aware artifact store. Repeat sessions hit the
// cache and skip the network download entirely.
//
// The cache is the only resource shared across process restarts: a fresh
// process reconstructs nothing beyond what Keys and Stats expose. Records are
// JSON-encoded CachedArtifact values keyed by artifact id; writes for a given
// id are last-writer-wins.
type Cache struct {
	db     *badger.DB
	quota  uint64
	logger zerolog.Logger
}

// NewCache creates a cache on top of an opened BadgerDB handle.
// quota is the storage budget used by Usage reporting; zero disables it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCache(db *badger.DB, quota uint64, logger zerolog.Logger) *Cache {
	return &Cache{
		db:     db,
		quota:  quota,
		logger: logger.With().Str("component", "model-cache").Logger(),
	}
}

// artifactKey builds the store key for an artifact id.
func artifactKey(id ArtifactID) []byte {
	return []byte(artifactKeyPrefix + string(id))
}

// Get returns the cached artifact for id, or nil on a miss. A hit rewrites
// the record with an updated LastAccessed and incremented AccessCount.
func (c *Cache) Get(id ArtifactID) *CachedArtifact {
	var record CachedArtifact
	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey(id))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}

		record.LastAccessed = time.Now()
		record.AccessCount++

		data, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		return txn.Set(artifactKey(id), data)
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheOpsTotal.WithLabelValues("get", "miss").Inc()
		return nil
	}
	if err != nil {
		// A broken record is treated as a miss; the loader re-fetches.
		c.logger.Warn().Err(err).Str("artifact", id.String()).Msg("cache read failed")
		metrics.CacheOpsTotal.WithLabelValues("get", "error").Inc()
		return nil
	}

	metrics.CacheOpsTotal.WithLabelValues("get", "hit").Inc()
	return &record
}

// Set persists an artifact, overwriting any existing record for the id.
// Caching is an optimization, not a correctness requirement: failures are
// logged and the artifact simply misses on the next lookup.
func (c *Cache) Set(id ArtifactID, artifact *Artifact) {
	record := CachedArtifact{
		Meta:         artifact.Meta,
		Data:         artifact.Data,
		CachedAt:     time.Now(),
		LastAccessed: time.Now(),
	}

	data, err := json.Marshal(&record)
	if err != nil {
		c.logger.Warn().Err(err).Str("artifact", id.String()).Msg("cache encode failed")
		metrics.CacheOpsTotal.WithLabelValues("set", "error").Inc()
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(artifactKey(id), data)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("artifact", id.String()).Msg("cache write failed")
		metrics.CacheOpsTotal.WithLabelValues("set", "error").Inc()
		return
	}

	metrics.CacheOpsTotal.WithLabelValues("set", "ok").Inc()
	c.publishSizeMetric()
}

// Delete removes the record for id. Missing records are not an error.
func (c *Cache) Delete(id ArtifactID) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(artifactKey(id))
	})
	if err != nil {
		metrics.CacheOpsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("delete cached artifact %q: %w", id, err)
	}
	metrics.CacheOpsTotal.WithLabelValues("delete", "ok").Inc()
	metrics.CacheEvictionsTotal.WithLabelValues("explicit").Inc()
	return nil
}

// Has reports whether a record exists for id.
func (c *Cache) Has(id ArtifactID) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(artifactKey(id))
		return err
	})
	return err == nil
}

// Keys returns the ids of all cached artifacts.
func (c *Cache) Keys() []ArtifactID {
	var keys []ArtifactID
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(artifactKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			keys = append(keys, ArtifactID(key[len(artifactKeyPrefix):]))
		}
		return nil
	})
	return keys
}

// cacheIndexEntry is the eviction bookkeeping for one record.
type cacheIndexEntry struct {
	id           ArtifactID
	size         uint64
	cachedAt     time.Time
	lastAccessed time.Time
}

// scan walks all records and returns their eviction bookkeeping.
func (c *Cache) scan() ([]cacheIndexEntry, error) {
	var entries []cacheIndexEntry
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(artifactKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record CachedArtifact
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			entries = append(entries, cacheIndexEntry{
				id:           record.Meta.ID,
				size:         uint64(len(record.Data)),
				cachedAt:     record.CachedAt,
				lastAccessed: record.LastAccessed,
			})
		}
		return nil
	})
	return entries, err
}

// Stats summarizes the cache contents.
func (c *Cache) Stats() CacheStats {
	entries, err := c.scan()
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache scan failed")
		return CacheStats{}
	}

	stats := CacheStats{TotalModels: len(entries)}
	for _, e := range entries {
		stats.TotalSize += e.size
		if stats.OldestCache.IsZero() || e.cachedAt.Before(stats.OldestCache) {
			stats.OldestCache = e.cachedAt
		}
		if e.cachedAt.After(stats.NewestCache) {
			stats.NewestCache = e.cachedAt
		}
	}
	return stats
}

// ClearOld deletes every record whose CachedAt is older than maxAge.
// Returns the number of records deleted.
func (c *Cache) ClearOld(maxAge time.Duration) int {
	entries, err := c.scan()
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache scan failed")
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, e := range entries {
		if e.cachedAt.Before(cutoff) {
			if err := c.deleteRaw(e.id); err != nil {
				c.logger.Warn().Err(err).Str("artifact", e.id.String()).Msg("age eviction failed")
				continue
			}
			metrics.CacheEvictionsTotal.WithLabelValues("age").Inc()
			deleted++
		}
	}

	if deleted > 0 {
		c.logger.Info().Int("deleted", deleted).Dur("max_age", maxAge).Msg("evicted aged cache records")
		c.publishSizeMetric()
	}
	return deleted
}

// ClearLRU evicts least-recently-used records until the payload total is at
// or below targetSize. Eviction order is ascending LastAccessed with the
// artifact id as tiebreaker, so identical access histories evict
// deterministically. Never removes more records than necessary.
func (c *Cache) ClearLRU(targetSize uint64) int {
	entries, err := c.scan()
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache scan failed")
		return 0
	}

	var total uint64
	for _, e := range entries {
		total += e.size
	}
	if total <= targetSize {
		return 0
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].lastAccessed.Equal(entries[j].lastAccessed) {
			return entries[i].lastAccessed.Before(entries[j].lastAccessed)
		}
		return entries[i].id < entries[j].id
	})

	deleted := 0
	for _, e := range entries {
		if total <= targetSize {
			break
		}
		if err := c.deleteRaw(e.id); err != nil {
			c.logger.Warn().Err(err).Str("artifact", e.id.String()).Msg("lru eviction failed")
			continue
		}
		total -= e.size
		metrics.CacheEvictionsTotal.WithLabelValues("lru").Inc()
		deleted++
	}

	if deleted > 0 {
		c.logger.Info().
			Int("deleted", deleted).
			Uint64("remaining_bytes", total).
			Uint64("target_bytes", targetSize).
			Msg("evicted lru cache records")
		c.publishSizeMetric()
	}
	return deleted
}

// ClearAll removes every cached record.
func (c *Cache) ClearAll() error {
	for _, id := range c.Keys() {
		if err := c.deleteRaw(id); err != nil {
			return err
		}
	}
	c.publishSizeMetric()
	return nil
}

// Usage reports storage consumption against the configured quota, sourced
// from BadgerDB's LSM and value-log accounting. Returns zeros when the store
// cannot report usage.
func (c *Cache) Usage() CacheUsage {
	if c.db == nil {
		return CacheUsage{}
	}

	lsm, vlog := c.db.Size()
	used := uint64(lsm + vlog)

	usage := CacheUsage{Used: used, Quota: c.quota}
	if c.quota > 0 {
		usage.Percentage = float64(used) / float64(c.quota) * 100
	}
	return usage
}

// deleteRaw removes a record without metrics side effects.
func (c *Cache) deleteRaw(id ArtifactID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(artifactKey(id))
	})
}

// publishSizeMetric refreshes the cache size gauge.
func (c *Cache) publishSizeMetric() {
	stats := c.Stats()
	metrics.CacheSizeBytes.Set(float64(stats.TotalSize))
}
