// Package entryservice coordinates the journal core, the search index, and
// handoff prompt construction for the HTTP and MCP surfaces.
package entryservice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/constraint"
	"github.com/starford/laguz/internal/handoff"
	"github.com/starford/laguz/internal/index"
	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/models"
)

// EntryDetail is the full representation of an entry.
type EntryDetail struct {
	models.Entry
	Content string `json:"content"`
}

// Service coordinates journal and index operations.
type Service struct {
	repo  *journal.Repository
	db    index.EntryIndex
	check *constraint.Validator
}

// NewService creates a new entry service.
func NewService(repo *journal.Repository, db index.EntryIndex, check *constraint.Validator) *Service {
	return &Service{repo: repo, db: db, check: check}
}

// Create starts a new entry holding only the content sentinel. welcome marks
// the tutorial entry written on first launch.
func (s *Service) Create(ctx context.Context, welcome bool) (*EntryDetail, error) {
	var (
		e   models.Entry
		err error
	)
	if welcome {
		e, err = s.repo.CreateWelcome(ctx)
	} else {
		e, err = s.repo.Create(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := s.indexEntry(e, models.Sentinel); err != nil {
		return nil, err
	}
	return &EntryDetail{Entry: e, Content: models.Sentinel}, nil
}

// Get returns one entry with its full content.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*EntryDetail, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := s.repo.LoadContent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EntryDetail{Entry: e, Content: content}, nil
}

// Save replaces an entry's content and synchronously reindexes it.
func (s *Service) Save(ctx context.Context, id uuid.UUID, content string) (*EntryDetail, error) {
	e, err := s.repo.SaveContent(ctx, id, content)
	if err != nil {
		return nil, err
	}
	if err := s.indexEntry(e, content); err != nil {
		return nil, err
	}
	return &EntryDetail{Entry: e, Content: content}, nil
}

// Delete removes an entry from the journal and the index.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.db.DeleteEntry(id.String())
}

// List returns entry metadata, newest first.
func (s *Service) List(ctx context.Context) ([]models.Entry, error) {
	return s.repo.List(ctx)
}

// Exists reports whether the entry is stored.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Keystroke evaluates a proposed edit against the forward-only rules. The
// entry must exist; the decision itself is stateless, so the caller supplies
// the previously accepted text.
func (s *Service) Keystroke(ctx context.Context, id uuid.UUID, previous, proposed string, cursor int) (constraint.Decision, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return constraint.Decision{}, err
	}
	if !ok {
		return constraint.Decision{}, fmt.Errorf("entryservice: keystroke for %s: %w", id, apperr.ErrEntryNotFound)
	}
	return s.check.Evaluate(previous, proposed, cursor), nil
}

// Handoff builds the AI handoff prompt for an entry.
func (s *Service) Handoff(ctx context.Context, id uuid.UUID, style handoff.Style) (string, error) {
	content, err := s.repo.LoadContent(ctx, id)
	if err != nil {
		return "", err
	}
	return handoff.BuildPrompt(style, content), nil
}

func (s *Service) indexEntry(e models.Entry, content string) error {
	data := []byte(content)
	return s.db.UpsertEntry(index.EntryRow{
		ID:        e.ID.String(),
		Filename:  e.Filename,
		Preview:   e.Preview,
		WordCount: e.WordCount,
		Checksum:  sha256sum(data),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.ModifiedAt,
	}, content)
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
