// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"context"
	"errors"
	"testing"
)

func seedCatalog(t *testing.T) *MemoryCatalog {
	t.Helper()
	c := NewMemoryCatalog()
	c.Upsert(ContentItem{ID: "algebra-1", Subject: "mathematics", Topics: []string{"algebra"}, Difficulty: DifficultyEasy, DurationMin: 15, Popularity: 0.9})
	c.Upsert(ContentItem{ID: "algebra-2", Subject: "mathematics", Topics: []string{"algebra"}, Difficulty: DifficultyMedium, DurationMin: 30, Popularity: 0.7})
	c.Upsert(ContentItem{ID: "optics-1", Subject: "physics", Topics: []string{"optics"}, Difficulty: DifficultyMedium, DurationMin: 45, Popularity: 0.8})
	c.Upsert(ContentItem{ID: "optics-2", Subject: "physics", Topics: []string{"optics", "waves"}, Difficulty: DifficultyHard, DurationMin: 60, Popularity: 0.7})
	return c
}

func TestMemoryCatalogGet(t *testing.T) {
	c := seedCatalog(t)
	ctx := context.Background()

	item, err := c.Get(ctx, "algebra-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if item.Subject != "mathematics" {
		t.Errorf("item.Subject = %s, want mathematics", item.Subject)
	}

	_, err = c.Get(ctx, "missing")
	if !errors.Is(err, ErrContentNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrContentNotFound", err)
	}
}

func TestMemoryCatalogQueryOrdering(t *testing.T) {
	c := seedCatalog(t)

	items, err := c.Query(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	// Descending popularity with id as tiebreaker.
	wantOrder := []ContentID{"algebra-1", "optics-1", "algebra-2", "optics-2"}
	if len(items) != len(wantOrder) {
		t.Fatalf("got %d items, want %d", len(items), len(wantOrder))
	}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestMemoryCatalogQueryFilters(t *testing.T) {
	c := seedCatalog(t)
	ctx := context.Background()
	medium := DifficultyMedium

	tests := []struct {
		name   string
		filter QueryFilter
		want   []ContentID
	}{
		{"by subject", QueryFilter{Subjects: []string{"physics"}}, []ContentID{"optics-1", "optics-2"}},
		{"by topic", QueryFilter{Topics: []string{"waves"}}, []ContentID{"optics-2"}},
		{"by difficulty", QueryFilter{Difficulty: &medium}, []ContentID{"optics-1", "algebra-2"}},
		{"by duration", QueryFilter{MaxDurationMin: 30}, []ContentID{"algebra-1", "algebra-2"}},
		{"with limit", QueryFilter{Limit: 2}, []ContentID{"algebra-1", "optics-1"}},
		{"no match", QueryFilter{Subjects: []string{"chemistry"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := c.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query returned error: %v", err)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(items), len(tt.want))
			}
			for i, want := range tt.want {
				if items[i].ID != want {
					t.Errorf("items[%d] = %s, want %s", i, items[i].ID, want)
				}
			}
		})
	}
}

func TestMemoryCatalogUpsertDelete(t *testing.T) {
	c := NewMemoryCatalog()
	ctx := context.Background()

	c.Upsert(ContentItem{ID: "c1", Title: "first"})
	c.Upsert(ContentItem{ID: "c1", Title: "second"})
	if c.Len() != 1 {
		t.Errorf("Len = %d after double upsert, want 1", c.Len())
	}
	item, err := c.Get(ctx, "c1")
	if err != nil || item.Title != "second" {
		t.Errorf("Get after upsert = %q/%v, want second", item.Title, err)
	}

	c.Delete("c1")
	c.Delete("c1") // deleting an absent id is a no-op
	if c.Len() != 0 {
		t.Errorf("Len = %d after delete, want 0", c.Len())
	}
}
