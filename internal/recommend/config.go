// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"fmt"
	"time"

	"github.com/uday68/mindhangar-sub001/internal/model"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the blend weights of the three signals. The weights
	// are applied as-is; when a signal is absent its weight is simply not
	// spent, which bounds degraded scores below 1.0.
	Weights SignalWeights `json:"weights"`

	// HalfLife is the exponential decay half-life for interaction scores.
	// Default: 168h (seven days).
	HalfLife time.Duration `json:"half_life"`

	// SimilarityThreshold excludes content-based candidates scoring below
	// this value. Default: 0.5.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// Similarity defines the content-metadata similarity weights.
	Similarity SimilarityWeights `json:"similarity"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// ModelArtifact is the registry id of the artifact backing the
	// model-based signal. Empty disables the signal entirely.
	ModelArtifact model.ArtifactID `json:"model_artifact"`
}

// SignalWeights defines the blend weights of the three signals.
type SignalWeights struct {
	// Collaborative is the weight for decayed collaborative filtering.
	// Default: 0.4.
	Collaborative float64 `json:"collaborative"`

	// Content is the weight for content-metadata similarity.
	// Default: 0.3.
	Content float64 `json:"content"`

	// Model is the weight for the model-based signal.
	// Default: 0.3.
	Model float64 `json:"model"`
}

// SimilarityWeights defines the content-metadata similarity components.
type SimilarityWeights struct {
	// Subject is the weight for an exact subject match. Default: 0.4.
	Subject float64 `json:"subject"`

	// Topic is the weight for topic overlap. Default: 0.3.
	Topic float64 `json:"topic"`

	// Difficulty is the weight for matching tiers. Default: 0.2.
	Difficulty float64 `json:"difficulty"`

	// Tag is the multiplier for tag Jaccard similarity. Default: 0.1.
	Tag float64 `json:"tag"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// MaxCandidates is the maximum number of catalog items to score per
	// request. Default: 200.
	MaxCandidates int `json:"max_candidates"`

	// DefaultK is the default number of recommendations to return.
	// Default: 10.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value. Default: 50.
	MaxK int `json:"max_k"`

	// NeighborLimit caps the number of similar users considered by the
	// collaborative signal. Default: 25.
	NeighborLimit int `json:"neighbor_limit"`

	// HistoryLimit caps how many recent interactions seed the content and
	// model signals. Default: 20.
	HistoryLimit int `json:"history_limit"`

	// GapLimit is how many top-priority gaps gap-filling addresses.
	// Default: 3.
	GapLimit int `json:"gap_limit"`

	// PerGapLimit is the maximum items recommended per gap. Default: 2.
	PerGapLimit int `json:"per_gap_limit"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: SignalWeights{
			Collaborative: 0.4,
			Content:       0.3,
			Model:         0.3,
		},
		HalfLife:            7 * 24 * time.Hour,
		SimilarityThreshold: 0.5,
		Similarity: SimilarityWeights{
			Subject:    0.4,
			Topic:      0.3,
			Difficulty: 0.2,
			Tag:        0.1,
		},
		Limits: LimitsConfig{
			MaxCandidates: 200,
			DefaultK:      10,
			MaxK:          50,
			NeighborLimit: 25,
			HistoryLimit:  20,
			GapLimit:      3,
			PerGapLimit:   2,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"weights.collaborative": c.Weights.Collaborative,
		"weights.content":       c.Weights.Content,
		"weights.model":         c.Weights.Model,
		"similarity.subject":    c.Similarity.Subject,
		"similarity.topic":      c.Similarity.Topic,
		"similarity.difficulty": c.Similarity.Difficulty,
		"similarity.tag":        c.Similarity.Tag,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, w)
		}
	}
	if sum := c.Weights.Collaborative + c.Weights.Content + c.Weights.Model; sum > 1.0+1e-9 {
		return fmt.Errorf("signal weights must sum to at most 1.0, got %f", sum)
	}
	if c.HalfLife <= 0 {
		return fmt.Errorf("half_life must be positive, got %v", c.HalfLife)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0, 1], got %f", c.SimilarityThreshold)
	}
	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.NeighborLimit < 1 {
		return fmt.Errorf("limits.neighbor_limit must be positive, got %d", c.Limits.NeighborLimit)
	}
	if c.Limits.HistoryLimit < 1 {
		return fmt.Errorf("limits.history_limit must be positive, got %d", c.Limits.HistoryLimit)
	}
	if c.Limits.GapLimit < 1 {
		return fmt.Errorf("limits.gap_limit must be positive, got %d", c.Limits.GapLimit)
	}
	if c.Limits.PerGapLimit < 1 {
		return fmt.Errorf("limits.per_gap_limit must be positive, got %d", c.Limits.PerGapLimit)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
