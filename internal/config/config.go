// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

// Package config loads layered application configuration: built-in
// defaults, an optional YAML file, then environment variables, with each
// layer overriding the previous one.
package config

import (
	"fmt"
	"time"
)

// Config is the application configuration root.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
	Loader    LoaderConfig    `koanf:"loader"`
	Registry  RegistryConfig  `koanf:"registry"`
	Manager   ManagerConfig   `koanf:"manager"`
	Janitor   JanitorConfig   `koanf:"janitor"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// ReadTimeout bounds request reading.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response writing.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`

	// Caller adds file:line to log events.
	Caller bool `koanf:"caller"`
}

// CacheConfig holds persistent artifact cache settings.
type CacheConfig struct {
	// Dir is the on-disk cache directory.
	Dir string `koanf:"dir"`

	// QuotaBytes is the cache size quota.
	QuotaBytes uint64 `koanf:"quota_bytes"`

	// MaxAge evicts records not accessed within this window during sweeps.
	// Zero disables age-based sweeping.
	MaxAge time.Duration `koanf:"max_age"`

	// TargetBytes is the size the janitor reduces the cache to when it
	// exceeds the quota. Zero means 80% of QuotaBytes.
	TargetBytes uint64 `koanf:"target_bytes"`
}

// LoaderConfig holds artifact download settings.
type LoaderConfig struct {
	// Timeout bounds a single artifact download.
	Timeout time.Duration `koanf:"timeout"`

	// BandwidthBytesPerSec caps download throughput. Zero means unlimited.
	BandwidthBytesPerSec int `koanf:"bandwidth_bytes_per_sec"`
}

// RegistryConfig holds model registry feed settings.
type RegistryConfig struct {
	// FeedURL is the metadata feed endpoint. Empty disables feed fetches.
	FeedURL string `koanf:"feed_url"`

	// Timeout bounds a feed fetch.
	Timeout time.Duration `koanf:"timeout"`
}

// ManagerConfig holds lifecycle manager settings.
type ManagerConfig struct {
	// WaitTimeout is the default WaitForLoad deadline.
	WaitTimeout time.Duration `koanf:"wait_timeout"`
}

// JanitorConfig holds background maintenance settings.
type JanitorConfig struct {
	// Interval is the sweep period.
	Interval time.Duration `koanf:"interval"`

	// UnloadAfter unloads in-memory artifacts unused for this long.
	UnloadAfter time.Duration `koanf:"unload_after"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// HalfLife is the interaction decay half-life.
	HalfLife time.Duration `koanf:"half_life"`

	// ModelArtifact names the artifact backing the model signal.
	ModelArtifact string `koanf:"model_artifact"`

	// MaxCandidates caps catalog items scored per request.
	MaxCandidates int `koanf:"max_candidates"`

	// DefaultK is the default result count.
	DefaultK int `koanf:"default_k"`

	// MaxK caps the requested result count.
	MaxK int `koanf:"max_k"`

	// SnapshotDir is where interaction snapshots are stored.
	SnapshotDir string `koanf:"snapshot_dir"`

	// SnapshotInterval is how often the interaction matrix is persisted.
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	// SnapshotKeep bounds how many snapshot versions are retained.
	SnapshotKeep int `koanf:"snapshot_keep"`
}

// defaultConfig returns a Config with production defaults. These are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Cache: CacheConfig{
			Dir:         "/data/mindhangar/models",
			QuotaBytes:  2 << 30,
			MaxAge:      14 * 24 * time.Hour,
			TargetBytes: 0,
		},
		Loader: LoaderConfig{
			Timeout:              5 * time.Minute,
			BandwidthBytesPerSec: 0,
		},
		Registry: RegistryConfig{
			FeedURL: "",
			Timeout: 15 * time.Second,
		},
		Manager: ManagerConfig{
			WaitTimeout: 30 * time.Second,
		},
		Janitor: JanitorConfig{
			Interval:    10 * time.Minute,
			UnloadAfter: 30 * time.Minute,
		},
		Recommend: RecommendConfig{
			HalfLife:         7 * 24 * time.Hour,
			ModelArtifact:    "",
			MaxCandidates:    200,
			DefaultK:         10,
			MaxK:             50,
			SnapshotDir:      "/data/mindhangar/interactions",
			SnapshotInterval: 5 * time.Minute,
			SnapshotKeep:     3,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must not be empty")
	}
	if c.Cache.QuotaBytes == 0 {
		return fmt.Errorf("cache.quota_bytes must be positive")
	}
	if c.Cache.TargetBytes > c.Cache.QuotaBytes {
		return fmt.Errorf("cache.target_bytes must not exceed cache.quota_bytes")
	}
	if c.Loader.Timeout <= 0 {
		return fmt.Errorf("loader.timeout must be positive, got %v", c.Loader.Timeout)
	}
	if c.Loader.BandwidthBytesPerSec < 0 {
		return fmt.Errorf("loader.bandwidth_bytes_per_sec must be non-negative, got %d", c.Loader.BandwidthBytesPerSec)
	}
	if c.Manager.WaitTimeout <= 0 {
		return fmt.Errorf("manager.wait_timeout must be positive, got %v", c.Manager.WaitTimeout)
	}
	if c.Janitor.Interval <= 0 {
		return fmt.Errorf("janitor.interval must be positive, got %v", c.Janitor.Interval)
	}
	if c.Recommend.HalfLife <= 0 {
		return fmt.Errorf("recommend.half_life must be positive, got %v", c.Recommend.HalfLife)
	}
	if c.Recommend.DefaultK < 1 {
		return fmt.Errorf("recommend.default_k must be positive, got %d", c.Recommend.DefaultK)
	}
	if c.Recommend.SnapshotInterval <= 0 {
		return fmt.Errorf("recommend.snapshot_interval must be positive, got %v", c.Recommend.SnapshotInterval)
	}
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend.max_k must be >= recommend.default_k, got %d < %d", c.Recommend.MaxK, c.Recommend.DefaultK)
	}
	return nil
}

// CacheTarget returns the janitor's size target, defaulting to 80% of the
// quota when unset.
func (c *Config) CacheTarget() uint64 {
	if c.Cache.TargetBytes > 0 {
		return c.Cache.TargetBytes
	}
	return c.Cache.QuotaBytes / 5 * 4
}
