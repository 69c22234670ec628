// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/uday68/mindhangar-sub001/internal/model"
)

// modelView is the combined metadata plus runtime status for one artifact.
type modelView struct {
	Metadata model.Metadata `json:"metadata"`
	Status   model.Status   `json:"status"`
}

// handleHealth returns the lifecycle health census.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, s.manager.Health())
}

// handleListModels returns all registered artifacts with their statuses.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	metas := s.manager.All()
	views := make([]modelView, 0, len(metas))
	for _, meta := range metas {
		status, _ := s.manager.StatusOf(meta.ID)
		views = append(views, modelView{Metadata: meta, Status: status})
	}
	respondList(w, r, http.StatusOK, views, len(views))
}

// handleRegisterModel registers or replaces artifact metadata.
func (s *Server) handleRegisterModel(w http.ResponseWriter, r *http.Request) {
	var meta model.Metadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid metadata payload")
		return
	}
	if err := s.manager.Register(meta); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	respondJSON(w, r, http.StatusCreated, meta)
}

// handleGetModel returns one artifact's metadata and status.
func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id := model.ArtifactID(chi.URLParam(r, "id"))
	meta, ok := s.manager.MetadataOf(id)
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "model not registered")
		return
	}
	status, _ := s.manager.StatusOf(id)
	respondJSON(w, r, http.StatusOK, modelView{Metadata: meta, Status: status})
}

// handleModelStatus returns one artifact's runtime status.
func (s *Server) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	id := model.ArtifactID(chi.URLParam(r, "id"))
	status, ok := s.manager.StatusOf(id)
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "model not registered")
		return
	}
	respondJSON(w, r, http.StatusOK, status)
}

// loadRequest tunes one load call.
type loadRequest struct {
	// Wait makes the call block until the load settles.
	Wait bool `json:"wait"`

	// DisableOfflineCache skips persisting the artifact after download.
	DisableOfflineCache bool `json:"disable_offline_cache"`
}

// handleLoadModel starts (or joins) a load. Without wait the call returns
// immediately with the in-flight status; with wait it blocks until the load
// settles or the wait timeout trips.
func (s *Server) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	id := model.ArtifactID(chi.URLParam(r, "id"))

	var req loadRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid load payload")
			return
		}
	}
	opts := &model.LoadOptions{DisableOfflineCache: req.DisableOfflineCache}

	if req.Wait {
		_, err := s.manager.Load(r.Context(), id, opts)
		switch {
		case errors.Is(err, model.ErrNotRegistered):
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "model not registered")
			return
		case errors.Is(err, model.ErrLoadTimeout):
			respondError(w, r, http.StatusGatewayTimeout, ErrCodeTimeout, "model load timed out")
			return
		case err != nil:
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		status, _ := s.manager.StatusOf(id)
		respondJSON(w, r, http.StatusOK, status)
		return
	}

	if _, ok := s.manager.MetadataOf(id); !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "model not registered")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.manager.Load(ctx, id, opts); err != nil {
			s.logger.Warn().Err(err).Str("model_id", string(id)).Msg("background load failed")
		}
	}()

	status, _ := s.manager.StatusOf(id)
	respondJSON(w, r, http.StatusAccepted, status)
}

// handleUnloadModel releases the in-memory handle.
func (s *Server) handleUnloadModel(w http.ResponseWriter, r *http.Request) {
	id := model.ArtifactID(chi.URLParam(r, "id"))
	if _, ok := s.manager.MetadataOf(id); !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "model not registered")
		return
	}
	s.manager.Unload(id)
	status, _ := s.manager.StatusOf(id)
	respondJSON(w, r, http.StatusOK, status)
}

// handleUpdateModel re-resolves an artifact from the registry feed and
// reloads it.
func (s *Server) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	id := model.ArtifactID(chi.URLParam(r, "id"))
	if _, err := s.manager.Update(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, model.ErrNotRegistered):
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "model not registered")
		default:
			respondError(w, r, http.StatusBadGateway, ErrCodeInternal, err.Error())
		}
		return
	}
	status, _ := s.manager.StatusOf(id)
	respondJSON(w, r, http.StatusOK, status)
}

// handleCheckUpdates reports registered artifacts whose feed version
// differs from the registered version.
func (s *Server) handleCheckUpdates(w http.ResponseWriter, r *http.Request) {
	updates := s.manager.CheckForUpdates(r.Context())
	respondList(w, r, http.StatusOK, updates, len(updates))
}

// preloadRequest names the artifacts to warm.
type preloadRequest struct {
	IDs []model.ArtifactID `json:"ids"`
}

// handlePreload warms a set of artifacts concurrently. Individual failures
// are logged, never fatal, so the response is always 202.
func (s *Server) handlePreload(w http.ResponseWriter, r *http.Request) {
	var req preloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid preload payload")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "ids must not be empty")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.manager.Preload(ctx, req.IDs)
	}()

	respondJSON(w, r, http.StatusAccepted, map[string]int{"requested": len(req.IDs)})
}

// handleMemory reports the memory footprint of loaded artifacts.
func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, s.manager.Memory())
}
