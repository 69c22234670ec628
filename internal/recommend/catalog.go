// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ErrContentNotFound is returned by catalog lookups for unknown ids.
var ErrContentNotFound = fmt.Errorf("content not found")

// MemoryCatalog is an in-memory Catalog fed by the catalog event stream.
// It is safe for concurrent use.
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[ContentID]ContentItem
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{items: make(map[ContentID]ContentItem)}
}

// Upsert inserts or replaces a catalog item.
func (c *MemoryCatalog) Upsert(item ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
}

// Delete removes a catalog item. Removing an unknown id is a no-op.
func (c *MemoryCatalog) Delete(id ContentID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// Len returns the number of items in the catalog.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns a single item by id.
func (c *MemoryCatalog) Get(_ context.Context, id ContentID) (ContentItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return ContentItem{}, fmt.Errorf("%w: %s", ErrContentNotFound, id)
	}
	return item, nil
}

// Query returns items matching the filter, ordered by descending
// popularity with id as the tiebreaker so results are deterministic.
func (c *MemoryCatalog) Query(_ context.Context, filter QueryFilter) ([]ContentItem, error) {
	c.mu.RLock()
	out := make([]ContentItem, 0, len(c.items))
	for _, item := range c.items {
		if matchesFilter(item, filter) {
			out = append(out, item)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesFilter(item ContentItem, filter QueryFilter) bool {
	if len(filter.Subjects) > 0 {
		found := false
		for _, s := range filter.Subjects {
			if s == item.Subject {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Topics) > 0 && !anyOverlap(filter.Topics, item.Topics) {
		return false
	}
	if filter.Difficulty != nil && item.Difficulty != *filter.Difficulty {
		return false
	}
	if filter.MaxDurationMin > 0 && item.DurationMin > filter.MaxDurationMin {
		return false
	}
	return true
}
