// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/uday68/mindhangar-sub001/internal/model"
)

// UserID identifies a learner.
type UserID string

// ContentID identifies a catalog item.
type ContentID string

// Action classifies an interaction event.
type Action int

const (
	// ActionView indicates the content was opened.
	ActionView Action = iota
	// ActionComplete indicates the content was finished.
	ActionComplete
	// ActionLike indicates the learner marked the content positively.
	ActionLike
	// ActionBookmark indicates the learner saved the content for later.
	ActionBookmark
	// ActionSkip indicates the learner dismissed the content.
	ActionSkip
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionLike:
		return "like"
	case ActionBookmark:
		return "bookmark"
	case ActionSkip:
		return "skip"
	default:
		return "view"
	}
}

// ParseAction converts a wire name to an Action. Unknown names map to view,
// the weakest positive signal.
func ParseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete":
		return ActionComplete
	case "like":
		return ActionLike
	case "bookmark":
		return ActionBookmark
	case "skip":
		return ActionSkip
	default:
		return ActionView
	}
}

// RawScore returns the base contribution of the action to the interaction
// matrix, before temporal decay and explicit-score scaling.
func (a Action) RawScore() float64 {
	switch a {
	case ActionComplete:
		return 1.0
	case ActionLike:
		return 0.8
	case ActionBookmark:
		return 0.7
	case ActionSkip:
		return -0.3
	default:
		return 0.5
	}
}

// InteractionEvent is one user-content interaction.
type InteractionEvent struct {
	// UserID is the learner who interacted.
	UserID UserID `json:"user_id"`

	// ContentID is the content interacted with.
	ContentID ContentID `json:"content_id"`

	// Action classifies the interaction.
	Action Action `json:"-"`

	// ActionName is the wire form of Action.
	ActionName string `json:"action"`

	// Score is an optional explicit score in [0, 100]. When present, the
	// action's raw score is scaled by Score/100.
	Score *float64 `json:"score,omitempty"`

	// TimeSpentSec is how long the learner engaged with the content.
	TimeSpentSec int `json:"time_spent_sec,omitempty"`

	// Timestamp is when the interaction occurred. Zero means now.
	Timestamp time.Time `json:"timestamp"`
}

// Difficulty is a content difficulty tier.
type Difficulty int

const (
	// DifficultyEasy is the lowest tier.
	DifficultyEasy Difficulty = iota
	// DifficultyMedium is the middle tier.
	DifficultyMedium
	// DifficultyHard is the highest tier.
	DifficultyHard
)

// String returns the wire name of the difficulty tier.
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyHard:
		return "hard"
	default:
		return "medium"
	}
}

// ParseDifficulty converts a wire name to a Difficulty.
// Unknown names map to medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "beginner":
		return DifficultyEasy
	case "hard", "advanced":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Raise returns the next tier up, capped at hard.
func (d Difficulty) Raise() Difficulty {
	if d >= DifficultyHard {
		return DifficultyHard
	}
	return d + 1
}

// Lower returns the next tier down, capped at easy.
func (d Difficulty) Lower() Difficulty {
	if d <= DifficultyEasy {
		return DifficultyEasy
	}
	return d - 1
}

// ContentItem is a catalog entry. The recommender treats catalog content as
// read-only; mutations come from the catalog event stream.
type ContentItem struct {
	// ID is the unique content identifier.
	ID ContentID `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Subject is the curriculum subject (e.g. "mathematics").
	Subject string `json:"subject"`

	// Topics are topic tags within the subject.
	Topics []string `json:"topics,omitempty"`

	// Difficulty is the content tier.
	Difficulty Difficulty `json:"difficulty"`

	// ContentType is the media kind (video, quiz, article).
	ContentType string `json:"content_type,omitempty"`

	// DurationMin is the expected engagement time in minutes.
	DurationMin int `json:"duration_min,omitempty"`

	// Embedding is an optional learned content vector used by the
	// model-based signal.
	Embedding []float64 `json:"embedding,omitempty"`

	// Tags are free-form labels.
	Tags []string `json:"tags,omitempty"`

	// Popularity is a catalog-computed popularity score in [0, 1].
	Popularity float64 `json:"popularity"`
}

// RecType tags the recommendation intent that produced a result.
type RecType string

const (
	// RecNextContent is the general "what next" intent.
	RecNextContent RecType = "next_content"
	// RecSimilarContent is the "more like this" intent.
	RecSimilarContent RecType = "similar_content"
	// RecDifficultyAdjusted targets a performance-derived difficulty tier.
	RecDifficultyAdjusted RecType = "difficulty_adjusted"
	// RecExamPreparation favors uncovered topics within a time budget.
	RecExamPreparation RecType = "exam_preparation"
	// RecGapFilling addresses externally supplied learning gaps.
	RecGapFilling RecType = "gap_filling"
)

// Factor is one weighted contribution to a recommendation score.
type Factor struct {
	// Name identifies the signal or rule (e.g. "collaborative").
	Name string `json:"name"`

	// Weight is the blend weight applied to the signal.
	Weight float64 `json:"weight"`

	// Score is the signal's raw score before weighting.
	Score float64 `json:"score"`
}

// Reasoning explains a recommendation.
type Reasoning struct {
	// Primary is a single human-readable sentence.
	Primary string `json:"primary"`

	// Factors lists the weighted contributions behind the score.
	Factors []Factor `json:"factors,omitempty"`
}

// Recommendation is one ranked, explained result. Recommendations are
// produced on demand and never persisted.
type Recommendation struct {
	// Content is the recommended catalog item.
	Content ContentItem `json:"content"`

	// Score is the blended score in [0, 1].
	Score float64 `json:"score"`

	// Reasoning explains how the score was assembled.
	Reasoning Reasoning `json:"reasoning"`

	// Type tags the producing intent.
	Type RecType `json:"type"`

	// Confidence reflects how much signal backed the score.
	Confidence float64 `json:"confidence"`
}

// UserProfile is learner context supplied by an external collaborator.
// The recommender never stores or mutates profiles.
type UserProfile struct {
	UserID        UserID   `json:"user_id"`
	Grade         int      `json:"grade,omitempty"`
	Board         string   `json:"board,omitempty"`
	Subjects      []string `json:"subjects,omitempty"`
	LearningStyle string   `json:"learning_style,omitempty"`
	Strengths     []string `json:"strengths,omitempty"`
	Weaknesses    []string `json:"weaknesses,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	Goals         []string `json:"goals,omitempty"`
	StudyTimeMin  int      `json:"study_time_min,omitempty"`
}

// LearningGap is an externally computed knowledge gap, already
// priority-ordered by the supplier (1 = most urgent).
type LearningGap struct {
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Priority int    `json:"priority"`

	// Severity, Relevance, and DifficultyFit grade the gap in [0, 1].
	Severity      float64 `json:"severity"`
	Relevance     float64 `json:"relevance"`
	DifficultyFit float64 `json:"difficulty_fit"`
}

// ExamPlan describes an upcoming exam for exam-preparation requests.
type ExamPlan struct {
	// Subject is the exam subject.
	Subject string `json:"subject"`

	// TimeBudgetMin is the study time available per content item.
	TimeBudgetMin int `json:"time_budget_min"`
}

// QueryFilter narrows a catalog query.
type QueryFilter struct {
	// Subjects restricts results to these subjects. Empty means all.
	Subjects []string

	// Topics restricts results to items sharing at least one topic.
	Topics []string

	// Difficulty restricts results to one tier.
	Difficulty *Difficulty

	// MaxDurationMin excludes items longer than this. Zero means no cap.
	MaxDurationMin int

	// Limit caps the result count. Zero means the catalog default.
	Limit int
}

// Catalog is the external content catalog query interface.
type Catalog interface {
	// Query returns items matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]ContentItem, error)

	// Get returns a single item by id.
	Get(ctx context.Context, id ContentID) (ContentItem, error)
}

// ModelProvider exposes read-only access to loaded model artifacts.
// Satisfied by *model.Manager.
type ModelProvider interface {
	// Get returns the in-memory handle for id, if loaded.
	Get(id model.ArtifactID) (*model.Artifact, bool)
}
