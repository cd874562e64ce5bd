package api

import (
	"sync"

	"github.com/hotspot-prioritizer/hotspot/internal/store"
)

// ReportCache is a thread-safe LRU cache of recently read reports. Votes
// replace the cached entry with the re-scored report.
type ReportCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]store.Report
	order   []string // oldest first
}

// NewReportCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 256.
func NewReportCache(maxSize int) *ReportCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &ReportCache{
		maxSize: maxSize,
		entries: make(map[string]store.Report),
	}
}

// Get returns a copy of the cached report, or nil if not found.
func (c *ReportCache) Get(id string) *store.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.entries[id]
	if !ok {
		return nil
	}

	c.moveToEnd(id)
	return &r
}

// Put adds a report to the cache, evicting the oldest if full. A copy
// older than the cached one is ignored, so a read that raced a vote cannot
// overwrite the re-scored report.
func (c *ReportCache) Put(r *store.Report) {
	if r == nil || r.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[r.ID]; ok {
		if !existing.UpdatedAt.After(r.UpdatedAt) {
			c.entries[r.ID] = *r
		}
		c.moveToEnd(r.ID)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[r.ID] = *r
	c.order = append(c.order, r.ID)
}

// Purge drops every entry. Used after a bulk rescore.
func (c *ReportCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]store.Report)
	c.order = nil
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ReportCache) moveToEnd(id string) {
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, id)
			return
		}
	}
}
