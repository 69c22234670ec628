// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/uday68/mindhangar-sub001/internal/metrics"
)

// Engine produces ranked, explained recommendations. It is safe for
// concurrent use.
//
// All Recommend methods share the same failure contract: an unreachable
// catalog or an empty candidate pool produces an empty result, never an
// error. Failures are logged and surfaced through metrics instead.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	matrix   *Matrix
	catalog  Catalog
	models   ModelProvider
	simCache *similarityCache

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, catalog Catalog, models ModelProvider, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		matrix:   NewMatrix(cfg.HalfLife),
		catalog:  catalog,
		models:   models,
		simCache: newSimilarityCache(),
		now:      time.Now,
	}, nil
}

// Matrix exposes the interaction matrix, mainly for tests and diagnostics.
func (e *Engine) Matrix() *Matrix {
	return e.matrix
}

// TrackInteraction records one interaction event. The update is visible to
// any recommendation call that starts after this returns. Cached similarity
// entries for the affected content id are invalidated.
func (e *Engine) TrackInteraction(event InteractionEvent) {
	if event.ActionName != "" {
		event.Action = ParseAction(event.ActionName)
	}
	e.matrix.Track(event)
	e.simCache.invalidate(event.ContentID)

	metrics.InteractionsTrackedTotal.WithLabelValues(event.Action.String()).Inc()
	e.logger.Debug().
		Str("user_id", string(event.UserID)).
		Str("content_id", string(event.ContentID)).
		Str("action", event.Action.String()).
		Msg("interaction tracked")
}

// InvalidateContent drops cached similarity entries for a catalog item.
// Called by the catalog event consumer when an item is created or updated.
func (e *Engine) InvalidateContent(id ContentID) {
	e.simCache.invalidate(id)
}

// RecommendNext returns general "what next" recommendations for a learner.
// Learners with interaction history get the full hybrid blend; learners
// without any history fall back to popularity weighted by profile overlap.
func (e *Engine) RecommendNext(ctx context.Context, profile UserProfile, k int) []Recommendation {
	timer := prometheus.NewTimer(metrics.RecommendationDuration.WithLabelValues(string(RecNextContent)))
	defer timer.ObserveDuration()

	k = e.clampK(k)
	candidates, ok := e.candidates(ctx, QueryFilter{Subjects: profile.Subjects, Limit: e.config.Limits.MaxCandidates})
	if !ok {
		return e.finish(RecNextContent, nil)
	}
	candidates = excludeSeen(candidates, e.matrix.Seen(profile.UserID))

	if !e.matrix.HasHistory(profile.UserID) {
		return e.finish(RecNextContent, e.coldStart(profile, candidates, k))
	}

	now := e.now()
	collab := collaborativeScores(e.matrix, profile.UserID, candidates, now, e.config.Limits.NeighborLimit)
	content := e.contentScores(ctx, profile.UserID, candidates, now)
	modelSig := e.modelScores(ctx, profile.UserID, candidates, now)

	recs := e.blend(candidates, collab, content, modelSig, RecNextContent)
	return e.finish(RecNextContent, topK(recs, k))
}

// RecommendSimilar returns items similar to a reference item, ranked by
// content-metadata similarity. Items below the similarity threshold are
// excluded entirely.
func (e *Engine) RecommendSimilar(ctx context.Context, contentID ContentID, k int) []Recommendation {
	timer := prometheus.NewTimer(metrics.RecommendationDuration.WithLabelValues(string(RecSimilarContent)))
	defer timer.ObserveDuration()

	k = e.clampK(k)
	ref, err := e.catalog.Get(ctx, contentID)
	if err != nil {
		e.logger.Warn().Err(err).Str("content_id", string(contentID)).Msg("similar: reference lookup failed")
		return e.finish(RecSimilarContent, nil)
	}

	candidates, ok := e.candidates(ctx, QueryFilter{Limit: e.config.Limits.MaxCandidates})
	if !ok {
		return e.finish(RecSimilarContent, nil)
	}

	var recs []Recommendation
	for _, c := range candidates {
		if c.ID == ref.ID {
			continue
		}
		sim := e.pairSimilarity(ref, c)
		if sim < e.config.SimilarityThreshold {
			continue
		}
		recs = append(recs, Recommendation{
			Content: c,
			Score:   sim,
			Type:    RecSimilarContent,
			Reasoning: Reasoning{
				Primary: fmt.Sprintf("Similar to %q", ref.Title),
				Factors: []Factor{{Name: "content_similarity", Weight: 1.0, Score: sim}},
			},
			Confidence: sim,
		})
	}
	return e.finish(RecSimilarContent, topK(recs, k))
}

// RecommendByDifficulty returns recommendations at a difficulty tier
// derived from recent performance: average score of 85 or higher raises the
// tier, below 60 lowers it, anything else keeps the current tier.
func (e *Engine) RecommendByDifficulty(ctx context.Context, profile UserProfile, current Difficulty, recentScores []float64, k int) []Recommendation {
	timer := prometheus.NewTimer(metrics.RecommendationDuration.WithLabelValues(string(RecDifficultyAdjusted)))
	defer timer.ObserveDuration()

	k = e.clampK(k)
	target := adjustDifficulty(current, recentScores)

	candidates, ok := e.candidates(ctx, QueryFilter{
		Subjects:   profile.Subjects,
		Difficulty: &target,
		Limit:      e.config.Limits.MaxCandidates,
	})
	if !ok {
		return e.finish(RecDifficultyAdjusted, nil)
	}
	candidates = excludeSeen(candidates, e.matrix.Seen(profile.UserID))

	primary := fmt.Sprintf("Matched to your current level (%s)", target)
	switch {
	case target > current:
		primary = fmt.Sprintf("Stepping up to %s based on recent scores", target)
	case target < current:
		primary = fmt.Sprintf("Easing back to %s to rebuild confidence", target)
	}

	now := e.now()
	content := e.contentScores(ctx, profile.UserID, candidates, now)

	var recs []Recommendation
	for _, c := range candidates {
		score := 0.4 * c.Popularity
		factors := []Factor{{Name: "popularity", Weight: 0.4, Score: c.Popularity}}
		if sim, okSim := content[c.ID]; okSim {
			score += 0.6 * sim
			factors = append(factors, Factor{Name: "content_similarity", Weight: 0.6, Score: sim})
		}
		recs = append(recs, Recommendation{
			Content:    c,
			Score:      clamp01(score),
			Type:       RecDifficultyAdjusted,
			Reasoning:  Reasoning{Primary: primary, Factors: factors},
			Confidence: 0.6,
		})
	}
	return e.finish(RecDifficultyAdjusted, topK(recs, k))
}

// RecommendForExam returns exam-preparation recommendations for a subject.
// Every candidate starts at a base score; covering a topic the learner has
// not seen adds 0.3, and fitting within the per-item time budget adds 0.2.
func (e *Engine) RecommendForExam(ctx context.Context, profile UserProfile, plan ExamPlan, k int) []Recommendation {
	timer := prometheus.NewTimer(metrics.RecommendationDuration.WithLabelValues(string(RecExamPreparation)))
	defer timer.ObserveDuration()

	k = e.clampK(k)
	candidates, ok := e.candidates(ctx, QueryFilter{Subjects: []string{plan.Subject}, Limit: e.config.Limits.MaxCandidates})
	if !ok {
		return e.finish(RecExamPreparation, nil)
	}

	seenTopics := e.seenTopics(ctx, profile.UserID)

	var recs []Recommendation
	for _, c := range candidates {
		score := 0.5
		factors := []Factor{{Name: "exam_subject", Weight: 0.5, Score: 1.0}}

		if hasUnseenTopic(c.Topics, seenTopics) {
			score += 0.3
			factors = append(factors, Factor{Name: "uncovered_topic", Weight: 0.3, Score: 1.0})
		}
		if plan.TimeBudgetMin > 0 && c.DurationMin > 0 && c.DurationMin <= plan.TimeBudgetMin {
			score += 0.2
			factors = append(factors, Factor{Name: "fits_time_budget", Weight: 0.2, Score: 1.0})
		}

		recs = append(recs, Recommendation{
			Content:    c,
			Score:      clamp01(score),
			Type:       RecExamPreparation,
			Reasoning:  Reasoning{Primary: fmt.Sprintf("Targets your %s exam", plan.Subject), Factors: factors},
			Confidence: 0.7,
		})
	}
	return e.finish(RecExamPreparation, topK(recs, k))
}

// RecommendForGaps returns recommendations addressing externally supplied
// learning gaps. Only the top-priority gaps are considered and each gap
// contributes at most a few items, so one severe gap cannot crowd out the
// rest of the list.
func (e *Engine) RecommendForGaps(ctx context.Context, gaps []LearningGap, k int) []Recommendation {
	timer := prometheus.NewTimer(metrics.RecommendationDuration.WithLabelValues(string(RecGapFilling)))
	defer timer.ObserveDuration()

	k = e.clampK(k)
	if len(gaps) == 0 {
		return e.finish(RecGapFilling, nil)
	}

	ordered := make([]LearningGap, len(gaps))
	copy(ordered, gaps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	if len(ordered) > e.config.Limits.GapLimit {
		ordered = ordered[:e.config.Limits.GapLimit]
	}

	var recs []Recommendation
	used := make(map[ContentID]struct{})
	for _, gap := range ordered {
		filter := QueryFilter{Topics: []string{gap.Topic}, Limit: e.config.Limits.MaxCandidates}
		if gap.Subject != "" {
			filter.Subjects = []string{gap.Subject}
		}
		items, ok := e.candidates(ctx, filter)
		if !ok {
			continue
		}

		score := gapScore(gap)
		added := 0
		for _, c := range items {
			if added >= e.config.Limits.PerGapLimit {
				break
			}
			if _, dup := used[c.ID]; dup {
				continue
			}
			used[c.ID] = struct{}{}
			added++
			recs = append(recs, Recommendation{
				Content: c,
				Score:   score,
				Type:    RecGapFilling,
				Reasoning: Reasoning{
					Primary: fmt.Sprintf("Addresses your gap in %s", gap.Topic),
					Factors: []Factor{
						{Name: "gap_severity", Weight: 0.5, Score: gap.Severity},
						{Name: "gap_relevance", Weight: 0.3, Score: gap.Relevance},
						{Name: "difficulty_fit", Weight: 0.2, Score: gap.DifficultyFit},
					},
				},
				Confidence: 0.8,
			})
		}
	}
	return e.finish(RecGapFilling, topK(recs, k))
}

// gapScore combines a gap's severity, relevance, and difficulty fit with a
// 0.5/0.3/0.2 split, attenuated by its numeric priority so priority 1 gaps
// outrank priority 2 and 3 at equal severity.
func gapScore(gap LearningGap) float64 {
	p := gap.Priority
	if p < 1 {
		p = 1
	}
	base := 0.5*clamp01(gap.Severity) + 0.3*clamp01(gap.Relevance) + 0.2*clamp01(gap.DifficultyFit)
	return clamp01(base / float64(p))
}

// adjustDifficulty derives the target tier from recent performance scores.
func adjustDifficulty(current Difficulty, recentScores []float64) Difficulty {
	if len(recentScores) == 0 {
		return current
	}
	var sum float64
	for _, s := range recentScores {
		sum += s
	}
	avg := sum / float64(len(recentScores))
	switch {
	case avg >= 85:
		return current.Raise()
	case avg < 60:
		return current.Lower()
	default:
		return current
	}
}

// candidates queries the catalog; failures are logged and reported as an
// absent candidate pool.
func (e *Engine) candidates(ctx context.Context, filter QueryFilter) ([]ContentItem, bool) {
	items, err := e.catalog.Query(ctx, filter)
	if err != nil {
		e.logger.Warn().Err(err).Msg("catalog query failed")
		return nil, false
	}
	return items, true
}

// coldStart ranks candidates by popularity weighted by profile overlap.
func (e *Engine) coldStart(profile UserProfile, candidates []ContentItem, k int) []Recommendation {
	var recs []Recommendation
	for _, c := range candidates {
		affinity := profileAffinity(profile, c)
		recs = append(recs, Recommendation{
			Content: c,
			Score:   clamp01(c.Popularity * affinity),
			Type:    RecNextContent,
			Reasoning: Reasoning{
				Primary: "Popular with learners like you",
				Factors: []Factor{
					{Name: "popularity", Weight: 1.0, Score: c.Popularity},
					{Name: "profile_overlap", Weight: 1.0, Score: affinity},
				},
			},
			Confidence: 0.3,
		})
	}
	return topK(recs, k)
}

// profileAffinity measures how well a catalog item overlaps a profile.
// A baseline keeps items outside the profile's stated subjects visible at
// reduced weight.
func profileAffinity(profile UserProfile, c ContentItem) float64 {
	aff := 0.4
	for _, s := range profile.Subjects {
		if s == c.Subject {
			aff += 0.4
			break
		}
	}
	interests := append(append([]string{}, profile.Interests...), profile.Weaknesses...)
	if anyOverlap(interests, c.Topics) || anyOverlap(interests, c.Tags) {
		aff += 0.2
	}
	return clamp01(aff)
}

// contentScores computes content-similarity scores for candidates against
// the learner's recent history. A candidate's score is its best similarity
// to any positively scored history item; scores below the threshold are
// omitted.
func (e *Engine) contentScores(ctx context.Context, user UserID, candidates []ContentItem, now time.Time) map[ContentID]float64 {
	history := e.matrix.RecentHistory(user, now, e.config.Limits.HistoryLimit)
	if len(history) == 0 {
		return nil
	}

	var refs []ContentItem
	for _, h := range history {
		if h.Score <= 0 {
			continue
		}
		item, err := e.catalog.Get(ctx, h.ID)
		if err != nil {
			continue
		}
		refs = append(refs, item)
	}
	if len(refs) == 0 {
		return nil
	}

	out := make(map[ContentID]float64)
	for _, c := range candidates {
		best := 0.0
		for _, ref := range refs {
			if sim := e.pairSimilarity(ref, c); sim > best {
				best = sim
			}
		}
		if best >= e.config.SimilarityThreshold {
			out[c.ID] = best
		}
	}
	return out
}

// modelScores computes the optional model-based signal. The signal exists
// only while the configured artifact is loaded in memory; otherwise the
// result is nil and the blend degrades without redistributing the weight.
func (e *Engine) modelScores(ctx context.Context, user UserID, candidates []ContentItem, now time.Time) map[ContentID]float64 {
	if e.config.ModelArtifact == "" || e.models == nil {
		return nil
	}
	if _, loaded := e.models.Get(e.config.ModelArtifact); !loaded {
		return nil
	}

	emb := e.userEmbedding(ctx, user, now)
	if len(emb) == 0 {
		return nil
	}

	out := make(map[ContentID]float64)
	for _, c := range candidates {
		if len(c.Embedding) != len(emb) {
			continue
		}
		// Map cosine in [-1, 1] onto [0, 1].
		out[c.ID] = clamp01((cosine(emb, c.Embedding) + 1) / 2)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// userEmbedding builds a learner vector as the decay-weighted mean of the
// embeddings of recently interacted items.
func (e *Engine) userEmbedding(ctx context.Context, user UserID, now time.Time) []float64 {
	history := e.matrix.RecentHistory(user, now, e.config.Limits.HistoryLimit)

	var emb []float64
	var total float64
	for _, h := range history {
		if h.Score <= 0 {
			continue
		}
		item, err := e.catalog.Get(ctx, h.ID)
		if err != nil || len(item.Embedding) == 0 {
			continue
		}
		if emb == nil {
			emb = make([]float64, len(item.Embedding))
		}
		if len(item.Embedding) != len(emb) {
			continue
		}
		for i, v := range item.Embedding {
			emb[i] += h.Score * v
		}
		total += h.Score
	}
	if total == 0 {
		return nil
	}
	for i := range emb {
		emb[i] /= total
	}
	return emb
}

// blend combines the three signal maps with the configured weights. A
// missing signal contributes nothing and its weight is not redistributed,
// so scores computed without the model signal are bounded by the remaining
// weights.
func (e *Engine) blend(candidates []ContentItem, collab, content, modelSig map[ContentID]float64, typ RecType) []Recommendation {
	w := e.config.Weights

	var recs []Recommendation
	for _, c := range candidates {
		var score, confidence float64
		var factors []Factor

		if v, ok := collab[c.ID]; ok {
			score += w.Collaborative * v
			confidence += w.Collaborative
			factors = append(factors, Factor{Name: "collaborative", Weight: w.Collaborative, Score: v})
		}
		if v, ok := content[c.ID]; ok {
			score += w.Content * v
			confidence += w.Content
			factors = append(factors, Factor{Name: "content_similarity", Weight: w.Content, Score: v})
		}
		if v, ok := modelSig[c.ID]; ok {
			score += w.Model * v
			confidence += w.Model
			factors = append(factors, Factor{Name: "model", Weight: w.Model, Score: v})
		}
		if len(factors) == 0 {
			continue
		}

		recs = append(recs, Recommendation{
			Content:    c,
			Score:      clamp01(score),
			Type:       typ,
			Reasoning:  Reasoning{Primary: primaryReason(factors), Factors: factors},
			Confidence: clamp01(confidence),
		})
	}
	return recs
}

// primaryReason picks a sentence for the strongest weighted factor.
func primaryReason(factors []Factor) string {
	best := factors[0]
	for _, f := range factors[1:] {
		if f.Weight*f.Score > best.Weight*best.Score {
			best = f
		}
	}
	switch best.Name {
	case "collaborative":
		return "Learners with similar activity engaged with this"
	case "model":
		return "Matches your learning pattern"
	default:
		return "Similar to content you engaged with"
	}
}

// pairSimilarity returns the memoized metadata similarity of two items.
func (e *Engine) pairSimilarity(a, b ContentItem) float64 {
	if v, ok := e.simCache.get(a.ID, b.ID); ok {
		return v
	}
	v := contentSimilarity(e.config.Similarity, a, b)
	e.simCache.put(a.ID, b.ID, v)
	return v
}

// seenTopics collects the topics of every item the user interacted with.
func (e *Engine) seenTopics(ctx context.Context, user UserID) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range e.matrix.Seen(user) {
		item, err := e.catalog.Get(ctx, id)
		if err != nil {
			continue
		}
		for _, t := range item.Topics {
			out[t] = struct{}{}
		}
	}
	return out
}

func hasUnseenTopic(topics []string, seen map[string]struct{}) bool {
	for _, t := range topics {
		if _, ok := seen[t]; !ok {
			return true
		}
	}
	return false
}

// excludeSeen drops candidates the user has already interacted with.
func excludeSeen(candidates []ContentItem, seen map[ContentID]struct{}) []ContentItem {
	if len(seen) == 0 {
		return candidates
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		if _, ok := seen[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// topK sorts descending by score with content id as the deterministic
// tiebreaker, returning at most k results.
func topK(recs []Recommendation, k int) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Content.ID < recs[j].Content.ID
	})
	if k > 0 && len(recs) > k {
		recs = recs[:k]
	}
	return recs
}

// clampK normalizes a requested result count against configured limits.
func (e *Engine) clampK(k int) int {
	if k <= 0 {
		return e.config.Limits.DefaultK
	}
	if k > e.config.Limits.MaxK {
		return e.config.Limits.MaxK
	}
	return k
}

// finish records result metrics and guarantees a non-nil slice.
func (e *Engine) finish(typ RecType, recs []Recommendation) []Recommendation {
	if recs == nil {
		recs = []Recommendation{}
	}
	metrics.RecommendationsReturned.WithLabelValues(string(typ)).Observe(float64(len(recs)))
	return recs
}
