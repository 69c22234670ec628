// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/uday68/mindhangar-sub001/internal/events"
	"github.com/uday68/mindhangar-sub001/internal/model"
	"github.com/uday68/mindhangar-sub001/internal/recommend"
)

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// ReadTimeout bounds request reading.
	ReadTimeout time.Duration

	// WriteTimeout bounds response writing.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the model lifecycle and recommendation API.
type Server struct {
	config  Config
	manager *model.Manager
	engine  *recommend.Engine
	bus     *events.Bus
	logger  zerolog.Logger
}

// NewServer creates the API server.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewServer(cfg Config, manager *model.Manager, engine *recommend.Engine, bus *events.Bus, logger zerolog.Logger) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("manager is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	return &Server{
		config:  cfg,
		manager: manager,
		engine:  engine,
		bus:     bus,
		logger:  logger.With().Str("component", "api").Logger(),
	}, nil
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/v1/health", s.handleHealth)

	r.Route("/api/v1/models", func(r chi.Router) {
		r.Get("/", s.handleListModels)
		r.Post("/", s.handleRegisterModel)
		r.Get("/memory", s.handleMemory)
		r.Get("/updates", s.handleCheckUpdates)
		r.Post("/preload", s.handlePreload)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetModel)
			r.Get("/status", s.handleModelStatus)
			r.Post("/load", s.handleLoadModel)
			r.Post("/unload", s.handleUnloadModel)
			r.Post("/update", s.handleUpdateModel)
		})
	})

	r.Route("/api/v1/cache", func(r chi.Router) {
		r.Get("/stats", s.handleCacheStats)
		r.Get("/usage", s.handleCacheUsage)
		r.Post("/clear", s.handleCacheClear)
		r.Post("/clear/old", s.handleCacheClearOld)
		r.Post("/clear/lru", s.handleCacheClearLRU)
	})

	r.Post("/api/v1/interactions", s.handleTrackInteraction)

	r.Route("/api/v1/content", func(r chi.Router) {
		r.Put("/", s.handleUpsertContent)
		r.Delete("/{id}", s.handleDeleteContent)
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Post("/next", s.handleRecommendNext)
		r.Get("/similar/{contentID}", s.handleRecommendSimilar)
		r.Post("/difficulty", s.handleRecommendDifficulty)
		r.Post("/exam", s.handleRecommendExam)
		r.Post("/gaps", s.handleRecommendGaps)
	})

	return r
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully. Designed to run under the supervision tree.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// String implements suture's service naming.
func (s *Server) String() string {
	return "http-server"
}
