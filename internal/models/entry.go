// Package models defines the domain types for Laguz.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sentinel is the fixed two-character marker every entry's content begins
// with. It separates the (invisible) session start from the written text and
// is restored by the constraint validator whenever a client drops it.
const Sentinel = "\n\n"

// Entry is the metadata record for one persisted freewriting session.
// Content is stored separately, keyed by ID.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Preview    string    `json:"preview"`
	WordCount  int       `json:"word_count"`
	Welcome    bool      `json:"welcome"`
}

// FileInfo is a lightweight stat record returned by storage listings.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
