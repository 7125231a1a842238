package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type contentRecord struct {
	text     string
	cachedAt time.Time
}

// ContentCache holds full entry text with an independent freshness window
// per entry. Content only changes through the repository, so records live
// longer than the metadata window.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]contentRecord
}

// NewContentCache creates an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[uuid.UUID]contentRecord)}
}

// Get returns the cached text for id if its record is younger than ttl.
func (c *ContentCache) Get(id uuid.UUID, now time.Time, ttl time.Duration) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[id]
	if !ok || now.Sub(rec.cachedAt) >= ttl {
		return "", false
	}
	return rec.text, true
}

// Put stores text for id stamped at now.
func (c *ContentCache) Put(id uuid.UUID, text string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = contentRecord{text: text, cachedAt: now}
}

// Evict removes id from the cache.
func (c *ContentCache) Evict(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of cached texts.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
