package journal

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
)

// SaveCoordinator enforces single-writer-per-entry. A second save attempted
// while one is in flight fails with ErrSaveInProgress; it is never queued.
type SaveCoordinator struct {
	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// NewSaveCoordinator creates an empty coordinator.
func NewSaveCoordinator() *SaveCoordinator {
	return &SaveCoordinator{inflight: make(map[uuid.UUID]struct{})}
}

// Begin marks id as being written and returns a release function. The
// release is idempotent and must run on every exit path of the enclosing
// save, so defer it immediately.
func (c *SaveCoordinator) Begin(id uuid.UUID) (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.inflight[id]; held {
		return nil, fmt.Errorf("journal: entry %s: %w", id, apperr.ErrSaveInProgress)
	}
	c.inflight[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.inflight, id)
			c.mu.Unlock()
		})
	}, nil
}

// InFlight reports whether a save of id is currently active.
func (c *SaveCoordinator) InFlight(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, held := c.inflight[id]
	return held
}
