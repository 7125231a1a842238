package journal

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/models"
)

// MetaCache holds entry summaries behind a single whole-cache freshness
// window: one lastRefreshed timestamp covers the entire map, so staleness
// is an all-or-nothing decision and readers always see a consistent
// snapshot. Individual mutations keep entries in sync between rescans but
// never extend the window.
type MetaCache struct {
	mu            sync.RWMutex
	entries       map[uuid.UUID]models.Entry
	lastRefreshed time.Time
	maxEntries    int // 0 = unlimited
}

// NewMetaCache creates an empty cache. maxEntries caps Insert (0 disables
// the cap); the cache starts stale until the first Replace.
func NewMetaCache(maxEntries int) *MetaCache {
	return &MetaCache{
		entries:    make(map[uuid.UUID]models.Entry),
		maxEntries: maxEntries,
	}
}

// Valid reports whether the cache as a whole is still fresh at now.
func (c *MetaCache) Valid(now time.Time, ttl time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.lastRefreshed.IsZero() && now.Sub(c.lastRefreshed) < ttl
}

// Get returns the cached summary for id.
func (c *MetaCache) Get(id uuid.UUID) (models.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Insert adds a newly created entry. It fails when the id is already cached
// or the capacity cap is reached; the caller rolls the creation back.
func (c *MetaCache) Insert(e models.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[e.ID]; exists {
		return fmt.Errorf("metacache: id %s already cached", e.ID)
	}
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		return fmt.Errorf("metacache: capacity %d reached", c.maxEntries)
	}
	c.entries[e.ID] = e
	return nil
}

// Update replaces the summary of an entry that already went through Insert
// or Replace. Unlike Insert it cannot fail: saves of pre-existing entries
// are never rolled back over a cache problem.
func (c *MetaCache) Update(e models.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.ID] = e
}

// Evict removes id from the cache.
func (c *MetaCache) Evict(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Replace swaps the whole map in one atomic step and stamps the freshness
// window. Readers never observe a partially rebuilt cache. The Welcome flag
// is process-local state that a directory scan cannot recover, so it is
// carried over from the outgoing map for ids present in both.
func (c *MetaCache) Replace(entries map[uuid.UUID]models.Entry, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range entries {
		if old, ok := c.entries[id]; ok && old.Welcome {
			e.Welcome = true
			entries[id] = e
		}
	}
	c.entries = entries
	c.lastRefreshed = now
}

// Snapshot copies all cached summaries, unordered.
func (c *MetaCache) Snapshot() []models.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// Len returns the number of cached summaries.
func (c *MetaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
