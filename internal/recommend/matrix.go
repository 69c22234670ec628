// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"math"
	"sort"
	"sync"
	"time"
)

// matrixEntry is one stored interaction. Only the raw pre-decay score and
// the timestamp are kept; decay is applied on read so the matrix never
// needs a background refresh.
type matrixEntry struct {
	raw float64
	ts  time.Time
}

// Matrix is the in-memory user-content interaction matrix.
//
// Writes are last-write-wins per (user, content) pair: a new interaction
// with the same pair replaces the previous entry rather than accumulating.
// Reads apply exponential decay relative to the caller's notion of now:
//
//	score(t) = raw * exp(-age / halfLife)
//
// so an interaction's contribution falls to 1/e of its raw score after one
// half-life period.
type Matrix struct {
	mu       sync.RWMutex
	users    map[UserID]map[ContentID]matrixEntry
	halfLife time.Duration
}

// NewMatrix creates an empty interaction matrix with the given half-life.
func NewMatrix(halfLife time.Duration) *Matrix {
	if halfLife <= 0 {
		halfLife = 7 * 24 * time.Hour
	}
	return &Matrix{
		users:    make(map[UserID]map[ContentID]matrixEntry),
		halfLife: halfLife,
	}
}

// Track records one interaction, replacing any previous entry for the same
// (user, content) pair. The entry's raw score is the action's base score,
// scaled by event.Score/100 when an explicit score is present.
func (m *Matrix) Track(event InteractionEvent) {
	raw := event.Action.RawScore()
	if event.Score != nil {
		s := *event.Score
		if s < 0 {
			s = 0
		}
		if s > 100 {
			s = 100
		}
		raw *= s / 100
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.users[event.UserID]
	if !ok {
		row = make(map[ContentID]matrixEntry)
		m.users[event.UserID] = row
	}
	row[event.ContentID] = matrixEntry{raw: raw, ts: ts}
}

// decay returns the decayed value of e at now. Future timestamps are
// treated as age zero.
func (m *Matrix) decay(e matrixEntry, now time.Time) float64 {
	age := now.Sub(e.ts)
	if age <= 0 {
		return e.raw
	}
	return e.raw * math.Exp(-float64(age)/float64(m.halfLife))
}

// Score returns the decayed score for one (user, content) pair, or zero
// when no interaction exists.
func (m *Matrix) Score(user UserID, content ContentID, now time.Time) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.users[user][content]
	if !ok {
		return 0
	}
	return m.decay(e, now)
}

// UserScores returns all decayed scores for a user. The returned map is a
// copy and safe to mutate.
func (m *Matrix) UserScores(user UserID, now time.Time) map[ContentID]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row := m.users[user]
	out := make(map[ContentID]float64, len(row))
	for id, e := range row {
		out[id] = m.decay(e, now)
	}
	return out
}

// HasHistory reports whether the user has any recorded interactions.
func (m *Matrix) HasHistory(user UserID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[user]) > 0
}

// Users returns all user ids with at least one interaction, in no
// particular order.
func (m *Matrix) Users() []UserID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]UserID, 0, len(m.users))
	for u := range m.users {
		out = append(out, u)
	}
	return out
}

// historyItem pairs a content id with its interaction recency.
type historyItem struct {
	ID    ContentID
	Score float64
	TS    time.Time
}

// RecentHistory returns up to limit interactions for the user, most recent
// first, with decayed scores. Ties on timestamp break by content id so the
// order is deterministic.
func (m *Matrix) RecentHistory(user UserID, now time.Time, limit int) []historyItem {
	m.mu.RLock()
	row := m.users[user]
	items := make([]historyItem, 0, len(row))
	for id, e := range row {
		items = append(items, historyItem{ID: id, Score: m.decay(e, now), TS: e.ts})
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].TS.Equal(items[j].TS) {
			return items[i].TS.After(items[j].TS)
		}
		return items[i].ID < items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Seen returns the set of content ids the user has interacted with.
func (m *Matrix) Seen(user UserID) map[ContentID]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row := m.users[user]
	out := make(map[ContentID]struct{}, len(row))
	for id := range row {
		out[id] = struct{}{}
	}
	return out
}

// InteractionRecord is one matrix entry in exportable form.
type InteractionRecord struct {
	UserID    UserID
	ContentID ContentID
	Raw       float64
	Timestamp time.Time
}

// Export returns every stored interaction with its raw (undecayed) score.
// Records are ordered by user id then content id so exports are stable.
func (m *Matrix) Export() []InteractionRecord {
	m.mu.RLock()
	out := make([]InteractionRecord, 0, len(m.users))
	for user, row := range m.users {
		for content, e := range row {
			out = append(out, InteractionRecord{
				UserID:    user,
				ContentID: content,
				Raw:       e.raw,
				Timestamp: e.ts,
			})
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ContentID < out[j].ContentID
	})
	return out
}

// Restore replaces the matrix contents with the given records. Existing
// entries are discarded. Intended for rebuilding state on startup.
func (m *Matrix) Restore(records []InteractionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[UserID]map[ContentID]matrixEntry, len(records))
	for _, r := range records {
		row, ok := m.users[r.UserID]
		if !ok {
			row = make(map[ContentID]matrixEntry)
			m.users[r.UserID] = row
		}
		row[r.ContentID] = matrixEntry{raw: r.Raw, ts: r.Timestamp}
	}
}

// Len returns how many (user, content) entries the matrix holds.
func (m *Matrix) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, row := range m.users {
		n += len(row)
	}
	return n
}
