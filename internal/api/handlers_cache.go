// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// handleCacheStats returns persistent cache statistics.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, s.manager.Cache().Stats())
}

// handleCacheUsage returns cache footprint versus quota.
func (s *Server) handleCacheUsage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, s.manager.Cache().Usage())
}

// handleCacheClear drops every cached artifact.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Cache().ClearAll(); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"cleared": true})
}

// clearOldRequest bounds the age-based sweep.
type clearOldRequest struct {
	// MaxAgeHours evicts records not accessed within this window.
	MaxAgeHours int `json:"max_age_hours"`
}

// handleCacheClearOld evicts records older than the supplied age.
func (s *Server) handleCacheClearOld(w http.ResponseWriter, r *http.Request) {
	var req clearOldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MaxAgeHours <= 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "max_age_hours must be a positive integer")
		return
	}
	removed := s.manager.Cache().ClearOld(time.Duration(req.MaxAgeHours) * time.Hour)
	respondJSON(w, r, http.StatusOK, map[string]int{"removed": removed})
}

// clearLRURequest bounds the size-based sweep.
type clearLRURequest struct {
	// TargetBytes is the payload size the cache is reduced to.
	TargetBytes uint64 `json:"target_bytes"`
}

// handleCacheClearLRU evicts least-recently-accessed records until the
// cache fits the target size.
func (s *Server) handleCacheClearLRU(w http.ResponseWriter, r *http.Request) {
	var req clearLRURequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid clear payload")
		return
	}
	removed := s.manager.Cache().ClearLRU(req.TargetBytes)
	respondJSON(w, r, http.StatusOK, map[string]int{"removed": removed})
}
