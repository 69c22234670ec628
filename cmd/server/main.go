// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

// Command server runs the model lifecycle manager and recommendation
// engine behind one HTTP API, under a suture supervision tree.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/uday68/mindhangar-sub001/internal/api"
	"github.com/uday68/mindhangar-sub001/internal/config"
	"github.com/uday68/mindhangar-sub001/internal/events"
	"github.com/uday68/mindhangar-sub001/internal/logging"
	"github.com/uday68/mindhangar-sub001/internal/model"
	"github.com/uday68/mindhangar-sub001/internal/recommend"
	"github.com/uday68/mindhangar-sub001/internal/recommend/snapshot"
	"github.com/uday68/mindhangar-sub001/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("cache_dir", cfg.Cache.Dir).
		Uint64("cache_quota_bytes", cfg.Cache.QuotaBytes).
		Msg("Starting MindHangar")

	// Persistent artifact cache storage.
	badgerOpts := badger.DefaultOptions(cfg.Cache.Dir).
		WithLogger(nil)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Cache.Dir).Msg("Failed to open cache store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache store")
		}
	}()

	cache := model.NewCache(db, cfg.Cache.QuotaBytes, logging.Logger())
	loader := model.NewLoader(model.LoaderConfig{
		Timeout:              cfg.Loader.Timeout,
		BandwidthBytesPerSec: cfg.Loader.BandwidthBytesPerSec,
	}, logging.Logger())
	feed := model.NewFeed(model.FeedConfig{
		URL:     cfg.Registry.FeedURL,
		Timeout: cfg.Registry.Timeout,
	})
	manager := model.NewManager(model.ManagerConfig{
		WaitTimeout: cfg.Manager.WaitTimeout,
	}, loader, cache, feed, logging.Logger())

	janitor := model.NewJanitor(manager, model.JanitorConfig{
		Interval:         cfg.Janitor.Interval,
		UnloadAfter:      cfg.Janitor.UnloadAfter,
		CacheMaxAge:      cfg.Cache.MaxAge,
		CacheTargetBytes: cfg.CacheTarget(),
	}, logging.Logger())

	// Recommendation engine over the in-memory catalog.
	recCfg := recommend.DefaultConfig()
	recCfg.HalfLife = cfg.Recommend.HalfLife
	recCfg.ModelArtifact = model.ArtifactID(cfg.Recommend.ModelArtifact)
	recCfg.Limits.MaxCandidates = cfg.Recommend.MaxCandidates
	recCfg.Limits.DefaultK = cfg.Recommend.DefaultK
	recCfg.Limits.MaxK = cfg.Recommend.MaxK

	catalog := recommend.NewMemoryCatalog()
	engine, err := recommend.NewEngine(recCfg, catalog, manager, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	// Interaction history survives restarts via periodic snapshots.
	snapStore, err := snapshot.NewStore(cfg.Recommend.SnapshotDir, cfg.Recommend.SnapshotKeep)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Recommend.SnapshotDir).Msg("Failed to open snapshot store")
	}
	if err := snapshot.RestoreLatest(snapStore, engine.Matrix(), logging.Logger()); err != nil {
		logging.Error().Err(err).Msg("Failed to restore interaction snapshot")
	}
	saver := snapshot.NewSaver(snapStore, engine.Matrix(), snapshot.SaverConfig{
		Interval: cfg.Recommend.SnapshotInterval,
	}, logging.Logger())

	bus, err := events.NewBus(events.DefaultConfig(), catalog, engine, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create catalog event bus")
	}

	server, err := api.NewServer(api.Config{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, manager, engine, bus, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create API server")
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddModelService(janitor)
	tree.AddEventsService(supervisor.NewBusService(bus))
	tree.AddEventsService(saver)
	tree.AddAPIService(server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := tree.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
		if err := <-errCh; err != nil && err != context.Canceled {
			logging.Error().Err(err).Msg("Supervisor tree exited with error")
		}
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop before timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
