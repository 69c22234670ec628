// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/uday68/mindhangar-sub001/internal/metrics"
)

// preloadConcurrency bounds parallel loads during Preload.
const preloadConcurrency = 3

// ManagerConfig configures the lifecycle manager.
type ManagerConfig struct {
	// WaitTimeout bounds waits for an in-flight load. A load that neither
	// completes nor fails within the budget rejects the waiter with
	// ErrLoadTimeout instead of blocking forever. Default: 30s.
	WaitTimeout time.Duration
}

// LoadOptions tunes a single Load call. A nil pointer means defaults.
type LoadOptions struct {
	// DisableOfflineCache skips persisting the artifact after a
	// successful load.
	DisableOfflineCache bool
}

// inflightLoad is the shared result all coalesced waiters resolve to.
type inflightLoad struct {
	done     chan struct{}
	artifact *Artifact
	err      error
}

// Manager is the single source of truth for which artifacts are registered,
// loading, loaded, or failed. It mediates between the Loader and the Cache.
//
// Per-artifact state machine:
//
//	Unregistered -> Registered -> Loading -> {Loaded | Failed}
//	Loaded -> Unloaded -> Loading (reload)
//	Loaded -> Updating -> Loading (version bump)
//
// Failed is not terminal: a subsequent Load retries from scratch.
type Manager struct {
	mu       sync.Mutex
	registry map[ArtifactID]Metadata
	statuses map[ArtifactID]*Status
	loaded   map[ArtifactID]*Artifact
	inflight map[ArtifactID]*inflightLoad

	loader      *Loader
	cache       *Cache
	feed        *Feed
	waitTimeout time.Duration
	logger      zerolog.Logger
}

// NewManager creates a lifecycle manager. cache and feed may be nil, which
// disables offline caching and remote updates respectively.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(cfg ManagerConfig, loader *Loader, cache *Cache, feed *Feed, logger zerolog.Logger) *Manager {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 30 * time.Second
	}

	return &Manager{
		registry:    make(map[ArtifactID]Metadata),
		statuses:    make(map[ArtifactID]*Status),
		loaded:      make(map[ArtifactID]*Artifact),
		inflight:    make(map[ArtifactID]*inflightLoad),
		loader:      loader,
		cache:       cache,
		feed:        feed,
		waitTimeout: cfg.WaitTimeout,
		logger:      logger.With().Str("component", "model-manager").Logger(),
	}
}

// Register upserts metadata into the registry. Idempotent: re-registering an
// id replaces the descriptor, resets its status to unloaded, and drops any
// stale in-memory handle; it never creates a duplicate entry.
func (m *Manager) Register(meta Metadata) error {
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("register artifact: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.registry[meta.ID]
	m.registry[meta.ID] = meta
	m.statuses[meta.ID] = &Status{}
	if _, wasLoaded := m.loaded[meta.ID]; wasLoaded {
		delete(m.loaded, meta.ID)
		m.publishMemoryMetricsLocked()
	}

	m.logger.Info().
		Str("artifact", meta.ID.String()).
		Str("version", meta.Version).
		Bool("replaced", existed).
		Msg("artifact registered")
	return nil
}

// Load returns a ready artifact handle for id, loading it if necessary.
//
// Resolution order: in-memory handle, in-flight load (awaited, never
// duplicated), persistent cache, loader fetch. On success the handle is
// stored in memory and, unless opts disable it, persisted to the cache.
// On failure the status records the error and the error is returned.
func (m *Manager) Load(ctx context.Context, id ArtifactID, opts *LoadOptions) (*Artifact, error) {
	start := time.Now()

	m.mu.Lock()
	meta, ok := m.registry[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}

	if artifact, ok := m.loaded[id]; ok {
		m.statuses[id].LastUsed = time.Now()
		m.mu.Unlock()
		metrics.ModelLoadsTotal.WithLabelValues("memory_hit").Inc()
		return artifact, nil
	}

	if fl, ok := m.inflight[id]; ok {
		m.mu.Unlock()
		metrics.ModelLoadsTotal.WithLabelValues("coalesced").Inc()
		return m.await(ctx, fl)
	}

	fl := &inflightLoad{done: make(chan struct{})}
	m.inflight[id] = fl
	status := m.statuses[id]
	status.Loading = true
	status.Progress = 0
	status.Error = ""
	m.mu.Unlock()

	artifact, err := m.performLoad(ctx, meta, opts)
	m.settle(id, fl, artifact, err)

	if err != nil {
		metrics.ModelLoadsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.ModelLoadsTotal.WithLabelValues("success").Inc()
	metrics.ModelLoadDuration.Observe(time.Since(start).Seconds())
	return artifact, nil
}

// performLoad resolves the artifact from cache or loader.
func (m *Manager) performLoad(ctx context.Context, meta Metadata, opts *LoadOptions) (*Artifact, error) {
	if m.cache != nil {
		if cached := m.cache.Get(meta.ID); cached != nil {
			metrics.ModelLoadsTotal.WithLabelValues("cache_hit").Inc()
			m.logger.Debug().Str("artifact", meta.ID.String()).Msg("loaded from persistent cache")
			return &Artifact{
				Meta:     cached.Meta,
				Data:     cached.Data,
				LoadedAt: time.Now(),
			}, nil
		}
	}

	artifact, err := m.loader.Load(ctx, meta, func(fraction float64) {
		m.setProgress(meta.ID, fraction)
	})
	if err != nil {
		return nil, err
	}

	if m.cache != nil && (opts == nil || !opts.DisableOfflineCache) {
		m.cache.Set(meta.ID, artifact)
	}
	return artifact, nil
}

// settle records the outcome of a load and releases all coalesced waiters.
func (m *Manager) settle(id ArtifactID, fl *inflightLoad, artifact *Artifact, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fl.artifact = artifact
	fl.err = err
	delete(m.inflight, id)

	status, ok := m.statuses[id]
	if ok {
		status.Loading = false
		if err != nil {
			status.Progress = 0
			status.Error = err.Error()
		} else {
			status.Loaded = true
			status.Progress = 1
			status.Error = ""
			status.LastUsed = time.Now()
			status.MemoryBytes = uint64(len(artifact.Data))
		}
	}

	if err == nil {
		m.loaded[id] = artifact
		m.publishMemoryMetricsLocked()
	} else {
		m.logger.Error().Err(err).Str("artifact", id.String()).Msg("artifact load failed")
	}

	close(fl.done)
}

// await blocks until an in-flight load settles, the context is canceled, or
// the wait budget elapses.
func (m *Manager) await(ctx context.Context, fl *inflightLoad) (*Artifact, error) {
	timer := time.NewTimer(m.waitTimeout)
	defer timer.Stop()

	select {
	case <-fl.done:
		if fl.err != nil {
			return nil, fl.err
		}
		return fl.artifact, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrLoadTimeout
	}
}

// setProgress updates the fractional load progress for id.
func (m *Manager) setProgress(id ArtifactID, fraction float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status, ok := m.statuses[id]; ok {
		status.Progress = fraction
	}
}

// WaitForLoad waits for an artifact to become loaded. It resolves
// immediately when the handle is already in memory, awaits an in-flight
// load (bounded by the wait budget), and fails when no load is in progress.
func (m *Manager) WaitForLoad(ctx context.Context, id ArtifactID) (*Artifact, error) {
	m.mu.Lock()
	if artifact, ok := m.loaded[id]; ok {
		m.mu.Unlock()
		return artifact, nil
	}
	fl, ok := m.inflight[id]
	m.mu.Unlock()

	if !ok {
		if !m.isRegistered(id) {
			return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
		}
		return nil, fmt.Errorf("artifact %q: no load in progress", id)
	}
	return m.await(ctx, fl)
}

// Unload drops the in-memory handle only; the persistent cache record stays
// so the next Load skips the download. A no-op with a log when the artifact
// is not currently loaded.
func (m *Manager) Unload(id ArtifactID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.loaded[id]; !ok {
		m.logger.Debug().Str("artifact", id.String()).Msg("unload requested for artifact not in memory")
		return
	}

	delete(m.loaded, id)
	if status, ok := m.statuses[id]; ok {
		status.Loaded = false
		status.MemoryBytes = 0
	}
	m.publishMemoryMetricsLocked()

	m.logger.Info().Str("artifact", id.String()).Msg("artifact unloaded")
}

// Get returns the in-memory handle for id. Memory only, no I/O, never fails.
func (m *Manager) Get(id ArtifactID) (*Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	artifact, ok := m.loaded[id]
	if ok {
		m.statuses[id].LastUsed = time.Now()
	}
	return artifact, ok
}

// IsLoaded reports whether id has an in-memory handle.
func (m *Manager) IsLoaded(id ArtifactID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loaded[id]
	return ok
}

// StatusOf returns a copy of the lifecycle status for id.
func (m *Manager) StatusOf(id ArtifactID) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[id]
	if !ok {
		return Status{}, false
	}
	return *status, true
}

// MetadataOf returns the registered descriptor for id.
func (m *Manager) MetadataOf(id ArtifactID) (Metadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.registry[id]
	return meta, ok
}

// All returns descriptors for every registered artifact.
func (m *Manager) All() []Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]Metadata, 0, len(m.registry))
	for _, meta := range m.registry {
		all = append(all, meta)
	}
	return all
}

// LoadedIDs returns the ids of artifacts currently held in memory.
func (m *Manager) LoadedIDs() []ArtifactID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]ArtifactID, 0, len(m.loaded))
	for id := range m.loaded {
		ids = append(ids, id)
	}
	return ids
}

// CheckForUpdates fetches the latest registry feed and returns entries whose
// version differs from the locally registered one. Network absence degrades
// to "no updates available".
func (m *Manager) CheckForUpdates(ctx context.Context) []Metadata {
	if m.feed == nil {
		return nil
	}

	entries, err := m.feed.Fetch(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("registry feed unavailable, no updates")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var updates []Metadata
	for _, entry := range entries {
		local, ok := m.registry[entry.ID]
		if ok && local.Version != entry.Version {
			updates = append(updates, entry)
		}
	}
	return updates
}

// Update refreshes an artifact to its latest published version: unloads the
// handle, invalidates the cached record, re-registers the new descriptor,
// and reloads.
func (m *Manager) Update(ctx context.Context, id ArtifactID) (*Artifact, error) {
	if !m.isRegistered(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	if m.feed == nil {
		return nil, fmt.Errorf("artifact %q: no registry feed configured", id)
	}

	entries, err := m.feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest metadata: %w", err)
	}

	var latest *Metadata
	for i := range entries {
		if entries[i].ID == id {
			latest = &entries[i]
			break
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("artifact %q: not present in registry feed", id)
	}

	m.Unload(id)
	if m.cache != nil {
		if err := m.cache.Delete(id); err != nil {
			m.logger.Warn().Err(err).Str("artifact", id.String()).Msg("stale cache record not deleted")
		}
	}
	if err := m.Register(*latest); err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("artifact", id.String()).
		Str("version", latest.Version).
		Msg("artifact updated, reloading")
	return m.Load(ctx, id, nil)
}

// Preload loads the given artifacts in parallel, best effort. Individual
// failures are logged and never abort the batch.
func (m *Manager) Preload(ctx context.Context, ids []ArtifactID) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			if _, err := m.Load(ctx, id, nil); err != nil {
				m.logger.Warn().Err(err).Str("artifact", id.String()).Msg("preload failed")
			}
			return nil
		})
	}

	_ = g.Wait()
}

// CleanupUnused unloads (memory only) every loaded artifact whose LastUsed
// is older than maxAge. This is the memory-pressure relief valve, distinct
// from the cache's disk-space eviction. Returns the number unloaded.
func (m *Manager) CleanupUnused(maxAge time.Duration) int {
	m.mu.Lock()
	cutoff := time.Now().Add(-maxAge)
	var stale []ArtifactID
	for id := range m.loaded {
		if status, ok := m.statuses[id]; ok && status.LastUsed.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		m.Unload(id)
	}

	if len(stale) > 0 {
		m.logger.Info().Int("unloaded", len(stale)).Dur("max_age", maxAge).Msg("cleaned up unused artifacts")
	}
	return len(stale)
}

// Health returns a census over all registered artifact statuses.
func (m *Manager) Health() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	health := HealthStatus{Total: len(m.statuses)}
	for _, status := range m.statuses {
		switch {
		case status.Loading:
			health.Loading++
		case status.Error != "":
			health.Failed++
		default:
			health.Healthy++
		}
	}
	return health
}

// Memory approximates memory held by loaded artifacts by summing declared
// metadata sizes.
func (m *Manager) Memory() MemoryUsage {
	m.mu.Lock()
	defer m.mu.Unlock()

	usage := MemoryUsage{ByModel: make(map[ArtifactID]uint64, len(m.loaded))}
	for id := range m.loaded {
		size := m.registry[id].SizeBytes
		usage.ByModel[id] = size
		usage.TotalBytes += size
	}
	return usage
}

// Cache exposes the persistent cache for maintenance tasks. May be nil.
func (m *Manager) Cache() *Cache { return m.cache }

// isRegistered reports whether id exists in the registry.
func (m *Manager) isRegistered(id ArtifactID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.registry[id]
	return ok
}

// publishMemoryMetricsLocked refreshes memory gauges. Caller holds mu.
func (m *Manager) publishMemoryMetricsLocked() {
	metrics.ModelsLoaded.Set(float64(len(m.loaded)))

	var total uint64
	for id := range m.loaded {
		total += m.registry[id].SizeBytes
	}
	metrics.ModelMemoryBytes.Set(float64(total))
}
