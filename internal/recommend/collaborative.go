// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"math"
	"sort"
	"time"
)

// neighbor is one similar user for the collaborative signal.
type neighbor struct {
	id  UserID
	sim float64
}

// collaborativeScores computes user-based collaborative scores for the
// candidate set. Similar users are found by cosine similarity over decayed
// interaction vectors; a candidate's score is the similarity-weighted mean
// of those users' decayed scores for it, clamped to [0, 1]. Candidates no
// neighbor has touched are absent from the result.
func collaborativeScores(m *Matrix, user UserID, candidates []ContentItem, now time.Time, neighborLimit int) map[ContentID]float64 {
	target := m.UserScores(user, now)
	if len(target) == 0 {
		return nil
	}

	var neighbors []neighbor
	for _, other := range m.Users() {
		if other == user {
			continue
		}
		sim := mapCosine(target, m.UserScores(other, now))
		if sim > 0 {
			neighbors = append(neighbors, neighbor{id: other, sim: sim})
		}
	}
	if len(neighbors) == 0 {
		return nil
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].sim != neighbors[j].sim {
			return neighbors[i].sim > neighbors[j].sim
		}
		return neighbors[i].id < neighbors[j].id
	})
	if neighborLimit > 0 && len(neighbors) > neighborLimit {
		neighbors = neighbors[:neighborLimit]
	}

	neighborScores := make(map[UserID]map[ContentID]float64, len(neighbors))
	for _, n := range neighbors {
		neighborScores[n.id] = m.UserScores(n.id, now)
	}

	out := make(map[ContentID]float64)
	for _, c := range candidates {
		var num, den float64
		for _, n := range neighbors {
			score, ok := neighborScores[n.id][c.ID]
			if !ok {
				continue
			}
			num += n.sim * score
			den += n.sim
		}
		if den == 0 {
			continue
		}
		out[c.ID] = clamp01(num / den)
	}
	return out
}

// mapCosine computes cosine similarity over sparse score vectors.
func mapCosine(a, b map[ContentID]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for id, va := range a {
		na += va * va
		if vb, ok := b[id]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		nb += vb * vb
	}
	if na == 0 || nb == 0 || dot == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim < 0 {
		return 0
	}
	return sim
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
