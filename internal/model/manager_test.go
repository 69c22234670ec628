// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func testManager(t *testing.T, feed *Feed) *Manager {
	t.Helper()
	loader := NewLoader(LoaderConfig{Timeout: 5 * time.Second}, zerolog.Nop())
	return NewManager(ManagerConfig{WaitTimeout: 2 * time.Second}, loader, nil, feed, zerolog.Nop())
}

func testManagerWithCache(t *testing.T) *Manager {
	t.Helper()
	cache := testCache(t, 0)
	loader := NewLoader(LoaderConfig{Timeout: 5 * time.Second}, zerolog.Nop())
	return NewManager(ManagerConfig{WaitTimeout: 2 * time.Second}, loader, cache, nil, zerolog.Nop())
}

func localMeta(id ArtifactID) Metadata {
	return Metadata{
		ID:        id,
		Name:      "local artifact",
		Version:   "1.0.0",
		SizeBytes: 128,
		Format:    FormatGGUF,
	}
}

func TestManagerRegister(t *testing.T) {
	m := testManager(t, nil)

	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	meta, ok := m.MetadataOf("a")
	if !ok || meta.Version != "1.0.0" {
		t.Errorf("MetadataOf = %+v/%v", meta, ok)
	}
	status, ok := m.StatusOf("a")
	if !ok || status.Loaded || status.Loading {
		t.Errorf("fresh status = %+v/%v", status, ok)
	}

	// Invalid metadata is rejected.
	bad := localMeta("")
	if err := m.Register(bad); err == nil {
		t.Error("empty id should be rejected")
	}
	badFormat := localMeta("b")
	badFormat.Format = FormatUnknown
	if err := m.Register(badFormat); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unknown format error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestManagerRegisterReplacesAndResets(t *testing.T) {
	m := testManager(t, nil)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Load(context.Background(), "a", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.IsLoaded("a") {
		t.Fatal("artifact not loaded")
	}

	v2 := localMeta("a")
	v2.Version = "2.0.0"
	if err := m.Register(v2); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	if m.IsLoaded("a") {
		t.Error("re-registration should drop the stale handle")
	}
	status, _ := m.StatusOf("a")
	if status.Loaded {
		t.Error("status should reset on re-registration")
	}
	if len(m.All()) != 1 {
		t.Errorf("All() = %d entries, want 1 (no duplicates)", len(m.All()))
	}
}

func TestManagerLoadUnregistered(t *testing.T) {
	m := testManager(t, nil)
	_, err := m.Load(context.Background(), "ghost", nil)
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Load(ghost) error = %v, want ErrNotRegistered", err)
	}
}

func TestManagerLoadAndMemoryHit(t *testing.T) {
	m := testManager(t, nil)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	first, err := m.Load(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	status, _ := m.StatusOf("a")
	if !status.Loaded || status.Loading || status.Progress != 1 {
		t.Errorf("post-load status = %+v", status)
	}
	if status.MemoryBytes == 0 {
		t.Error("MemoryBytes not recorded")
	}

	// Second load resolves from memory and returns the same handle.
	second, err := m.Load(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if first != second {
		t.Error("memory hit should return the identical handle")
	}
}

func TestManagerLoadFailureAndRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered payload"))
	}))
	defer srv.Close()

	m := testManager(t, nil)
	meta := localMeta("flaky")
	meta.SourceURL = srv.URL
	if err := m.Register(meta); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := m.Load(context.Background(), "flaky", nil); err == nil {
		t.Fatal("expected load failure")
	}
	status, _ := m.StatusOf("flaky")
	if status.Loaded || status.Loading || status.Error == "" {
		t.Errorf("failed status = %+v", status)
	}

	health := m.Health()
	if health.Failed != 1 {
		t.Errorf("Health.Failed = %d, want 1", health.Failed)
	}

	// Failure is not terminal: the next load retries from scratch.
	fail.Store(false)
	artifact, err := m.Load(context.Background(), "flaky", nil)
	if err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if string(artifact.Data) != "recovered payload" {
		t.Errorf("retried payload = %q", artifact.Data)
	}
	status, _ = m.StatusOf("flaky")
	if !status.Loaded || status.Error != "" {
		t.Errorf("recovered status = %+v", status)
	}
}

func TestManagerUnloadKeepsCacheRecord(t *testing.T) {
	m := testManagerWithCache(t)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Load(context.Background(), "a", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	m.Unload("a")
	if m.IsLoaded("a") {
		t.Fatal("artifact still loaded after Unload")
	}
	if !m.Cache().Has("a") {
		t.Fatal("Unload must keep the persistent cache record")
	}

	// Reload resolves from the cache, not a fresh instantiation.
	if _, err := m.Load(context.Background(), "a", nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if record := m.Cache().Get("a"); record == nil || record.AccessCount < 1 {
		t.Error("cache record not consulted on reload")
	}
}

func TestManagerLoadOptionsDisableCache(t *testing.T) {
	m := testManagerWithCache(t)
	if err := m.Register(localMeta("nc")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := m.Load(context.Background(), "nc", &LoadOptions{DisableOfflineCache: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Cache().Has("nc") {
		t.Error("artifact persisted despite DisableOfflineCache")
	}
}

func TestManagerGet(t *testing.T) {
	m := testManager(t, nil)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, ok := m.Get("a"); ok {
		t.Error("Get should miss before load")
	}
	if _, err := m.Load(context.Background(), "a", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	artifact, ok := m.Get("a")
	if !ok || artifact == nil {
		t.Fatal("Get should hit after load")
	}
}

func TestManagerWaitForLoad(t *testing.T) {
	m := testManager(t, nil)

	if _, err := m.WaitForLoad(context.Background(), "ghost"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("WaitForLoad(ghost) = %v, want ErrNotRegistered", err)
	}

	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.WaitForLoad(context.Background(), "a"); err == nil {
		t.Error("WaitForLoad with no load in progress should fail")
	}

	if _, err := m.Load(context.Background(), "a", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	artifact, err := m.WaitForLoad(context.Background(), "a")
	if err != nil || artifact == nil {
		t.Errorf("WaitForLoad on loaded artifact = %v", err)
	}
}

func TestManagerWaitForLoadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte("slow payload"))
	}))
	defer srv.Close()
	defer close(release)

	loader := NewLoader(LoaderConfig{Timeout: time.Minute}, zerolog.Nop())
	m := NewManager(ManagerConfig{WaitTimeout: 50 * time.Millisecond}, loader, nil, nil, zerolog.Nop())

	meta := localMeta("slow")
	meta.SourceURL = srv.URL
	if err := m.Register(meta); err != nil {
		t.Fatalf("Register: %v", err)
	}

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = m.Load(context.Background(), "slow", nil)
	}()
	<-started
	// Let the load reach its in-flight state.
	deadline := time.Now().Add(time.Second)
	for {
		if status, _ := m.StatusOf("slow"); status.Loading {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("load never became in-flight")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err := m.WaitForLoad(context.Background(), "slow")
	if !errors.Is(err, ErrLoadTimeout) {
		t.Errorf("WaitForLoad = %v, want ErrLoadTimeout", err)
	}
}

func TestManagerCleanupUnused(t *testing.T) {
	m := testManager(t, nil)
	for _, id := range []ArtifactID{"fresh", "stale"} {
		if err := m.Register(localMeta(id)); err != nil {
			t.Fatalf("Register: %v", err)
		}
		if _, err := m.Load(context.Background(), id, nil); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}

	// Age one artifact's LastUsed past the cutoff.
	m.mu.Lock()
	m.statuses["stale"].LastUsed = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	unloaded := m.CleanupUnused(30 * time.Minute)
	if unloaded != 1 {
		t.Errorf("CleanupUnused = %d, want 1", unloaded)
	}
	if m.IsLoaded("stale") {
		t.Error("stale artifact still loaded")
	}
	if !m.IsLoaded("fresh") {
		t.Error("fresh artifact was unloaded")
	}
}

func TestManagerHealthAndMemory(t *testing.T) {
	m := testManager(t, nil)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Register(localMeta("b")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Load(context.Background(), "a", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	health := m.Health()
	if health.Total != 2 || health.Healthy != 2 || health.Failed != 0 {
		t.Errorf("health = %+v", health)
	}

	mem := m.Memory()
	if mem.TotalBytes != 128 {
		t.Errorf("TotalBytes = %d, want 128", mem.TotalBytes)
	}
	if mem.ByModel["a"] != 128 {
		t.Errorf("ByModel[a] = %d, want 128", mem.ByModel["a"])
	}
	if _, ok := mem.ByModel["b"]; ok {
		t.Error("unloaded artifact appears in memory usage")
	}

	ids := m.LoadedIDs()
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("LoadedIDs = %v", ids)
	}
}

func TestManagerPreloadBestEffort(t *testing.T) {
	m := testManager(t, nil)
	if err := m.Register(localMeta("ok")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// One registered, one unknown: the batch still completes.
	m.Preload(context.Background(), []ArtifactID{"ok", "ghost"})

	if !m.IsLoaded("ok") {
		t.Error("registered artifact not preloaded")
	}
	if m.IsLoaded("ghost") {
		t.Error("unknown artifact somehow loaded")
	}
}

func feedServer(t *testing.T, entries []Metadata) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			t.Errorf("encode feed: %v", err)
		}
	}))
}

func TestManagerCheckForUpdates(t *testing.T) {
	updated := localMeta("a")
	updated.Version = "2.0.0"
	same := localMeta("b")
	unknown := localMeta("c")
	srv := feedServer(t, []Metadata{updated, same, unknown})
	defer srv.Close()

	feed := NewFeed(FeedConfig{URL: srv.URL})
	m := testManager(t, feed)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Register(localMeta("b")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	updates := m.CheckForUpdates(context.Background())
	if len(updates) != 1 {
		t.Fatalf("updates = %v, want exactly the version bump for a", updates)
	}
	if updates[0].ID != "a" || updates[0].Version != "2.0.0" {
		t.Errorf("update = %+v", updates[0])
	}
}

func TestManagerCheckForUpdatesDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	feed := NewFeed(FeedConfig{URL: srv.URL})
	m := testManager(t, feed)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if updates := m.CheckForUpdates(context.Background()); updates != nil {
		t.Errorf("unreachable feed should yield no updates, got %v", updates)
	}

	// No feed configured at all behaves the same way.
	if updates := testManager(t, nil).CheckForUpdates(context.Background()); updates != nil {
		t.Errorf("nil feed should yield no updates, got %v", updates)
	}
}

func TestManagerUpdate(t *testing.T) {
	latest := localMeta("a")
	latest.Version = "2.0.0"
	srv := feedServer(t, []Metadata{latest})
	defer srv.Close()

	feed := NewFeed(FeedConfig{URL: srv.URL})
	m := testManager(t, feed)
	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Load(context.Background(), "a", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	artifact, err := m.Update(context.Background(), "a")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if artifact.Meta.Version != "2.0.0" {
		t.Errorf("updated version = %s, want 2.0.0", artifact.Meta.Version)
	}
	meta, _ := m.MetadataOf("a")
	if meta.Version != "2.0.0" {
		t.Errorf("registry version = %s, want 2.0.0", meta.Version)
	}
	if !m.IsLoaded("a") {
		t.Error("updated artifact should be loaded")
	}
}

func TestManagerUpdateErrors(t *testing.T) {
	m := testManager(t, nil)

	if _, err := m.Update(context.Background(), "ghost"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Update(ghost) = %v, want ErrNotRegistered", err)
	}

	if err := m.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Update(context.Background(), "a"); err == nil {
		t.Error("Update without a feed should fail")
	}

	// Feed that does not know the artifact.
	srv := feedServer(t, []Metadata{localMeta("other")})
	defer srv.Close()
	m2 := testManager(t, NewFeed(FeedConfig{URL: srv.URL}))
	if err := m2.Register(localMeta("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m2.Update(context.Background(), "a"); err == nil {
		t.Error("Update for artifact absent from the feed should fail")
	}
}
