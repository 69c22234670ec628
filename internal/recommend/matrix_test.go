// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"math"
	"testing"
	"time"
)

func TestMatrixTrackAndScore(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatrix(7 * 24 * time.Hour)

	m.Track(InteractionEvent{
		UserID:    "u1",
		ContentID: "c1",
		Action:    ActionComplete,
		Timestamp: now,
	})

	got := m.Score("u1", "c1", now)
	if got != 1.0 {
		t.Errorf("fresh complete score = %f, want 1.0", got)
	}

	if m.Score("u2", "c1", now) != 0 {
		t.Error("unknown user should score 0")
	}
	if m.Score("u1", "c9", now) != 0 {
		t.Error("unknown content should score 0")
	}
}

func TestMatrixActionRawScores(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		action Action
		want   float64
	}{
		{ActionComplete, 1.0},
		{ActionLike, 0.8},
		{ActionBookmark, 0.7},
		{ActionView, 0.5},
		{ActionSkip, -0.3},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			m := NewMatrix(7 * 24 * time.Hour)
			m.Track(InteractionEvent{UserID: "u1", ContentID: "c1", Action: tt.action, Timestamp: now})
			if got := m.Score("u1", "c1", now); got != tt.want {
				t.Errorf("score = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMatrixExplicitScoreScaling(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatrix(7 * 24 * time.Hour)

	score := 50.0
	m.Track(InteractionEvent{
		UserID:    "u1",
		ContentID: "c1",
		Action:    ActionComplete,
		Score:     &score,
		Timestamp: now,
	})

	if got := m.Score("u1", "c1", now); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("scaled score = %f, want 0.5", got)
	}

	// Out-of-range explicit scores are clamped into [0, 100].
	over := 250.0
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c2", Action: ActionLike, Score: &over, Timestamp: now})
	if got := m.Score("u1", "c2", now); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("clamped score = %f, want 0.8", got)
	}
}

func TestMatrixDecay(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	halfLife := 7 * 24 * time.Hour
	m := NewMatrix(halfLife)

	m.Track(InteractionEvent{UserID: "u1", ContentID: "c1", Action: ActionComplete, Timestamp: start})

	// After exactly one half-life the score falls to 1/e of raw.
	got := m.Score("u1", "c1", start.Add(halfLife))
	want := math.Exp(-1)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("score after one half-life = %f, want %f", got, want)
	}

	// Older interactions always score strictly lower.
	day := m.Score("u1", "c1", start.Add(24*time.Hour))
	week := m.Score("u1", "c1", start.Add(7*24*time.Hour))
	month := m.Score("u1", "c1", start.Add(30*24*time.Hour))
	if !(day > week && week > month) {
		t.Errorf("decay not monotonic: day=%f week=%f month=%f", day, week, month)
	}

	// Future timestamps are treated as age zero, not amplified.
	if got := m.Score("u1", "c1", start.Add(-time.Hour)); got != 1.0 {
		t.Errorf("future-dated score = %f, want 1.0", got)
	}
}

func TestMatrixOverwriteSemantics(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatrix(7 * 24 * time.Hour)

	m.Track(InteractionEvent{UserID: "u1", ContentID: "c1", Action: ActionView, Timestamp: now.Add(-time.Hour)})
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c1", Action: ActionComplete, Timestamp: now})

	// The complete replaces the view; scores never accumulate per pair.
	if got := m.Score("u1", "c1", now); got != 1.0 {
		t.Errorf("score after overwrite = %f, want 1.0", got)
	}
	if got := m.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}
}

func TestMatrixRecentHistoryOrder(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatrix(7 * 24 * time.Hour)

	m.Track(InteractionEvent{UserID: "u1", ContentID: "c-old", Action: ActionView, Timestamp: now.Add(-3 * time.Hour)})
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c-new", Action: ActionView, Timestamp: now.Add(-time.Hour)})
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c-b", Action: ActionView, Timestamp: now.Add(-2 * time.Hour)})
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c-a", Action: ActionView, Timestamp: now.Add(-2 * time.Hour)})

	items := m.RecentHistory("u1", now, 0)
	wantOrder := []ContentID{"c-new", "c-a", "c-b", "c-old"}
	if len(items) != len(wantOrder) {
		t.Fatalf("history length = %d, want %d", len(items), len(wantOrder))
	}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Errorf("history[%d] = %s, want %s", i, items[i].ID, want)
		}
	}

	limited := m.RecentHistory("u1", now, 2)
	if len(limited) != 2 || limited[0].ID != "c-new" || limited[1].ID != "c-a" {
		t.Errorf("limited history = %v", limited)
	}
}

func TestMatrixSeenAndHasHistory(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatrix(7 * 24 * time.Hour)

	if m.HasHistory("u1") {
		t.Error("empty matrix should report no history")
	}

	m.Track(InteractionEvent{UserID: "u1", ContentID: "c1", Action: ActionView, Timestamp: now})
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c2", Action: ActionSkip, Timestamp: now})

	if !m.HasHistory("u1") {
		t.Error("HasHistory = false after tracking")
	}

	seen := m.Seen("u1")
	if len(seen) != 2 {
		t.Fatalf("Seen size = %d, want 2", len(seen))
	}
	if _, ok := seen["c2"]; !ok {
		t.Error("skip interaction missing from Seen set")
	}
}

func TestMatrixExportRestoreRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatrix(7 * 24 * time.Hour)

	m.Track(InteractionEvent{UserID: "u2", ContentID: "c1", Action: ActionLike, Timestamp: now.Add(-time.Hour)})
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c2", Action: ActionComplete, Timestamp: now})
	m.Track(InteractionEvent{UserID: "u1", ContentID: "c1", Action: ActionView, Timestamp: now})

	records := m.Export()
	if len(records) != 3 {
		t.Fatalf("export length = %d, want 3", len(records))
	}
	// Export order is user id then content id.
	if records[0].UserID != "u1" || records[0].ContentID != "c1" {
		t.Errorf("records[0] = %s/%s, want u1/c1", records[0].UserID, records[0].ContentID)
	}
	if records[2].UserID != "u2" {
		t.Errorf("records[2].UserID = %s, want u2", records[2].UserID)
	}

	restored := NewMatrix(7 * 24 * time.Hour)
	restored.Restore(records)

	if restored.Len() != 3 {
		t.Fatalf("restored Len = %d, want 3", restored.Len())
	}
	for _, r := range records {
		orig := m.Score(r.UserID, r.ContentID, now)
		got := restored.Score(r.UserID, r.ContentID, now)
		if orig != got {
			t.Errorf("score %s/%s = %f after restore, want %f", r.UserID, r.ContentID, got, orig)
		}
	}
}

func TestMatrixRestoreReplacesState(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatrix(7 * 24 * time.Hour)
	m.Track(InteractionEvent{UserID: "u1", ContentID: "stale", Action: ActionView, Timestamp: now})

	m.Restore([]InteractionRecord{{UserID: "u2", ContentID: "c1", Raw: 0.8, Timestamp: now}})

	if m.Score("u1", "stale", now) != 0 {
		t.Error("restore should discard previous entries")
	}
	if got := m.Score("u2", "c1", now); got != 0.8 {
		t.Errorf("restored score = %f, want 0.8", got)
	}
}
