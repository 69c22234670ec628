// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"math"
	"testing"
)

func defaultSimWeights() SimilarityWeights {
	return SimilarityWeights{Subject: 0.4, Topic: 0.3, Difficulty: 0.2, Tag: 0.1}
}

func TestContentSimilarity(t *testing.T) {
	w := defaultSimWeights()

	base := ContentItem{
		ID:         "a",
		Subject:    "mathematics",
		Topics:     []string{"algebra", "equations"},
		Difficulty: DifficultyMedium,
		Tags:       []string{"ncert", "class-10"},
	}

	tests := []struct {
		name  string
		other ContentItem
		want  float64
	}{
		{
			name: "identical metadata",
			other: ContentItem{
				ID:         "b",
				Subject:    "mathematics",
				Topics:     []string{"algebra"},
				Difficulty: DifficultyMedium,
				Tags:       []string{"ncert", "class-10"},
			},
			want: 1.0,
		},
		{
			name: "subject and difficulty only",
			other: ContentItem{
				ID:         "b",
				Subject:    "mathematics",
				Topics:     []string{"geometry"},
				Difficulty: DifficultyMedium,
			},
			want: 0.6,
		},
		{
			name: "nothing in common",
			other: ContentItem{
				ID:         "b",
				Subject:    "physics",
				Topics:     []string{"optics"},
				Difficulty: DifficultyHard,
				Tags:       []string{"jee"},
			},
			want: 0.0,
		},
		{
			name: "half tag jaccard",
			other: ContentItem{
				ID:         "b",
				Subject:    "physics",
				Topics:     []string{"optics"},
				Difficulty: DifficultyHard,
				Tags:       []string{"ncert", "class-12", "jee"},
			},
			// Intersection 1, union 4.
			want: 0.1 * 0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contentSimilarity(w, base, tt.other)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("contentSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestContentSimilarityEmptySubject(t *testing.T) {
	w := defaultSimWeights()
	a := ContentItem{ID: "a", Difficulty: DifficultyHard}
	b := ContentItem{ID: "b", Difficulty: DifficultyHard}

	// Two empty subjects must not count as a subject match.
	got := contentSimilarity(w, a, b)
	if math.Abs(got-w.Difficulty) > 1e-9 {
		t.Errorf("similarity = %f, want %f (difficulty only)", got, w.Difficulty)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"one empty", []string{"x"}, nil, 0},
		{"identical", []string{"x", "y"}, []string{"y", "x"}, 1},
		{"disjoint", []string{"x"}, []string{"y"}, 0},
		{"partial", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"duplicates ignored", []string{"x", "x", "y"}, []string{"y", "y"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("jaccard(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"dimension mismatch", []float64{1, 2}, []float64{1}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosine = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSimilarityCache(t *testing.T) {
	c := newSimilarityCache()

	if _, ok := c.get("a", "b"); ok {
		t.Error("empty cache should miss")
	}

	c.put("a", "b", 0.7)

	// Lookups are order-independent.
	if v, ok := c.get("b", "a"); !ok || v != 0.7 {
		t.Errorf("get(b, a) = %f/%v, want 0.7/true", v, ok)
	}

	c.put("a", "c", 0.4)
	c.put("b", "c", 0.2)
	if c.len() != 3 {
		t.Errorf("len = %d, want 3", c.len())
	}

	c.invalidate("a")
	if _, ok := c.get("a", "b"); ok {
		t.Error("pair (a, b) should be invalidated")
	}
	if _, ok := c.get("a", "c"); ok {
		t.Error("pair (a, c) should be invalidated")
	}
	if v, ok := c.get("b", "c"); !ok || v != 0.2 {
		t.Error("pair (b, c) should survive invalidation of a")
	}
}
