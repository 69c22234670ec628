// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// JanitorConfig configures the background maintenance task.
type JanitorConfig struct {
	// Interval between maintenance sweeps. Default: 10m.
	Interval time.Duration

	// UnloadAfter unloads in-memory artifacts idle longer than this.
	// Default: 30m.
	UnloadAfter time.Duration

	// CacheMaxAge deletes persisted records older than this.
	// Zero disables age-based eviction.
	CacheMaxAge time.Duration

	// CacheTargetBytes is the LRU eviction target for the persistent
	// cache. Zero disables size-based eviction.
	CacheTargetBytes uint64
}

// Janitor periodically relieves memory pressure (unloading idle artifacts)
// and reclaims cache storage (age and LRU eviction). It runs as an explicit
// supervised task with context-scoped shutdown, so maintenance never
// outlives the owning service.
type Janitor struct {
	manager *Manager
	cfg     JanitorConfig
	logger  zerolog.Logger
}

// NewJanitor creates a maintenance task over the given manager.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJanitor(manager *Manager, cfg JanitorConfig, logger zerolog.Logger) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.UnloadAfter <= 0 {
		cfg.UnloadAfter = 30 * time.Minute
	}

	return &Janitor{
		manager: manager,
		cfg:     cfg,
		logger:  logger.With().Str("component", "model-janitor").Logger(),
	}
}

// Serve implements suture.Service. It sweeps on the configured interval and
// returns when the context is canceled.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	j.logger.Info().Dur("interval", j.cfg.Interval).Msg("janitor started")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("janitor stopping")
			return ctx.Err()
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep runs one maintenance pass.
func (j *Janitor) Sweep() {
	unloaded := j.manager.CleanupUnused(j.cfg.UnloadAfter)

	cache := j.manager.Cache()
	if cache == nil {
		return
	}

	aged := 0
	if j.cfg.CacheMaxAge > 0 {
		aged = cache.ClearOld(j.cfg.CacheMaxAge)
	}

	evicted := 0
	if j.cfg.CacheTargetBytes > 0 {
		evicted = cache.ClearLRU(j.cfg.CacheTargetBytes)
	}

	if unloaded > 0 || aged > 0 || evicted > 0 {
		j.logger.Info().
			Int("unloaded", unloaded).
			Int("aged_out", aged).
			Int("lru_evicted", evicted).
			Msg("maintenance sweep complete")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (j *Janitor) String() string { return "model-janitor" }
