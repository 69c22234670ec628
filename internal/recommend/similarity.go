// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"math"
	"sync"
)

// similarityCache memoizes pairwise content similarity. Entries are keyed
// by the ordered pair of content ids so (a, b) and (b, a) share one entry.
// Tracking an interaction or updating a catalog item invalidates every pair
// touching that content id.
type similarityCache struct {
	mu      sync.RWMutex
	entries map[ContentID]map[ContentID]float64
}

func newSimilarityCache() *similarityCache {
	return &similarityCache{entries: make(map[ContentID]map[ContentID]float64)}
}

// orderPair returns the pair in canonical order.
func orderPair(a, b ContentID) (ContentID, ContentID) {
	if b < a {
		return b, a
	}
	return a, b
}

func (c *similarityCache) get(a, b ContentID) (float64, bool) {
	lo, hi := orderPair(a, b)
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[lo][hi]
	return v, ok
}

func (c *similarityCache) put(a, b ContentID, v float64) {
	lo, hi := orderPair(a, b)
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.entries[lo]
	if !ok {
		row = make(map[ContentID]float64)
		c.entries[lo] = row
	}
	row[hi] = v
}

// invalidate drops every cached pair involving id.
func (c *similarityCache) invalidate(id ContentID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	for _, row := range c.entries {
		delete(row, id)
	}
}

func (c *similarityCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, row := range c.entries {
		n += len(row)
	}
	return n
}

// contentSimilarity computes the weighted metadata similarity of two items:
// subject match, topic overlap, matching difficulty tier, and tag Jaccard
// similarity, each scaled by its configured weight. The result falls in
// [0, 1] when the weights sum to at most 1.
func contentSimilarity(w SimilarityWeights, a, b ContentItem) float64 {
	s := 0.0
	if a.Subject != "" && a.Subject == b.Subject {
		s += w.Subject
	}
	if anyOverlap(a.Topics, b.Topics) {
		s += w.Topic
	}
	if a.Difficulty == b.Difficulty {
		s += w.Difficulty
	}
	s += w.Tag * jaccard(a.Tags, b.Tags)
	return s
}

// anyOverlap reports whether the two slices share at least one element.
func anyOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// jaccard computes |a ∩ b| / |a ∪ b|. Two empty sets yield zero.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// cosine computes the cosine similarity of two vectors, or zero when either
// is empty, zero-length, or the dimensions differ.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
