// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewJanitorDefaults(t *testing.T) {
	j := NewJanitor(testManager(t, nil), JanitorConfig{}, zerolog.Nop())
	if j.cfg.Interval != 10*time.Minute {
		t.Errorf("Interval = %v, want 10m", j.cfg.Interval)
	}
	if j.cfg.UnloadAfter != 30*time.Minute {
		t.Errorf("UnloadAfter = %v, want 30m", j.cfg.UnloadAfter)
	}
	if j.String() != "model-janitor" {
		t.Errorf("String() = %q", j.String())
	}
}

func TestJanitorSweep(t *testing.T) {
	m := testManagerWithCache(t)
	if err := m.Register(localMeta("idle")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Load(context.Background(), "idle", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.mu.Lock()
	m.statuses["idle"].LastUsed = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	j := NewJanitor(m, JanitorConfig{UnloadAfter: 30 * time.Minute}, zerolog.Nop())
	j.Sweep()

	if m.IsLoaded("idle") {
		t.Error("idle artifact survived the sweep")
	}
	if !m.Cache().Has("idle") {
		t.Error("sweep without cache limits must not evict records")
	}
}

func TestJanitorSweepCacheEviction(t *testing.T) {
	m := testManagerWithCache(t)
	if err := m.Register(localMeta("old")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Load(context.Background(), "old", nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	j := NewJanitor(m, JanitorConfig{CacheMaxAge: time.Nanosecond}, zerolog.Nop())
	j.Sweep()

	if m.Cache().Has("old") {
		t.Error("aged record survived the sweep")
	}
}

func TestJanitorSweepNilCache(t *testing.T) {
	j := NewJanitor(testManager(t, nil), JanitorConfig{CacheMaxAge: time.Hour, CacheTargetBytes: 1}, zerolog.Nop())
	// Must not panic without a cache.
	j.Sweep()
}

func TestJanitorServeCancel(t *testing.T) {
	j := NewJanitor(testManager(t, nil), JanitorConfig{Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop on cancel")
	}
}
