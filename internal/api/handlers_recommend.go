// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/uday68/mindhangar-sub001/internal/recommend"
)

// handleTrackInteraction folds one interaction event into the matrix. The
// update is synchronous: recommendation calls made after the response see
// the new interaction.
func (s *Server) handleTrackInteraction(w http.ResponseWriter, r *http.Request) {
	var event recommend.InteractionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid interaction payload")
		return
	}
	if event.UserID == "" || event.ContentID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "user_id and content_id are required")
		return
	}
	s.engine.TrackInteraction(event)
	respondJSON(w, r, http.StatusAccepted, map[string]bool{"tracked": true})
}

// handleUpsertContent publishes a catalog upsert onto the event stream.
func (s *Server) handleUpsertContent(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeInternal, "catalog event stream is not running")
		return
	}
	var item recommend.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid content payload")
		return
	}
	if item.ID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "id is required")
		return
	}
	if err := s.bus.PublishUpsert(item); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	respondJSON(w, r, http.StatusAccepted, map[string]string{"id": string(item.ID)})
}

// handleDeleteContent publishes a catalog delete onto the event stream.
func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeInternal, "catalog event stream is not running")
		return
	}
	id := recommend.ContentID(chi.URLParam(r, "id"))
	if err := s.bus.PublishDelete(id); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	respondJSON(w, r, http.StatusAccepted, map[string]string{"id": string(id)})
}

// nextRequest asks for "what next" recommendations.
type nextRequest struct {
	Profile recommend.UserProfile `json:"profile"`
	K       int                   `json:"k,omitempty"`
}

func (s *Server) handleRecommendNext(w http.ResponseWriter, r *http.Request) {
	var req nextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Profile.UserID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "profile.user_id is required")
		return
	}
	recs := s.engine.RecommendNext(r.Context(), req.Profile, req.K)
	respondList(w, r, http.StatusOK, recs, len(recs))
}

func (s *Server) handleRecommendSimilar(w http.ResponseWriter, r *http.Request) {
	contentID := recommend.ContentID(chi.URLParam(r, "contentID"))
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "k must be a positive integer")
			return
		}
		k = parsed
	}
	recs := s.engine.RecommendSimilar(r.Context(), contentID, k)
	respondList(w, r, http.StatusOK, recs, len(recs))
}

// difficultyRequest asks for performance-tier recommendations.
type difficultyRequest struct {
	Profile      recommend.UserProfile `json:"profile"`
	Current      string                `json:"current_difficulty"`
	RecentScores []float64             `json:"recent_scores,omitempty"`
	K            int                   `json:"k,omitempty"`
}

func (s *Server) handleRecommendDifficulty(w http.ResponseWriter, r *http.Request) {
	var req difficultyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Profile.UserID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "profile.user_id is required")
		return
	}
	current := recommend.ParseDifficulty(req.Current)
	recs := s.engine.RecommendByDifficulty(r.Context(), req.Profile, current, req.RecentScores, req.K)
	respondList(w, r, http.StatusOK, recs, len(recs))
}

// examRequest asks for exam-preparation recommendations.
type examRequest struct {
	Profile recommend.UserProfile `json:"profile"`
	Plan    recommend.ExamPlan    `json:"plan"`
	K       int                   `json:"k,omitempty"`
}

func (s *Server) handleRecommendExam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Plan.Subject == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "plan.subject is required")
		return
	}
	recs := s.engine.RecommendForExam(r.Context(), req.Profile, req.Plan, req.K)
	respondList(w, r, http.StatusOK, recs, len(recs))
}

// gapsRequest asks for gap-filling recommendations.
type gapsRequest struct {
	Gaps []recommend.LearningGap `json:"gaps"`
	K    int                     `json:"k,omitempty"`
}

func (s *Server) handleRecommendGaps(w http.ResponseWriter, r *http.Request) {
	var req gapsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid gaps payload")
		return
	}
	recs := s.engine.RecommendForGaps(r.Context(), req.Gaps, req.K)
	respondList(w, r, http.StatusOK, recs, len(recs))
}
