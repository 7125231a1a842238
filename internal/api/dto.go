package api

import (
	"github.com/starford/laguz/internal/entryservice"
	"github.com/starford/laguz/internal/models"
)

// CreateEntryRequest is the (optional) request body for creating an entry.
type CreateEntryRequest struct {
	Welcome bool `json:"welcome" example:"false"`
}

// SaveContentRequest is the request body for replacing an entry's content.
type SaveContentRequest struct {
	Content string `json:"content" example:"\n\nToday I wrote..." validate:"required"`
}

// KeystrokeRequest carries one proposed edit for validation. The client owns
// the previously accepted text and sends it along with each proposal.
type KeystrokeRequest struct {
	Previous string `json:"previous" example:"\n\nHello"`
	Proposed string `json:"proposed" example:"\n\nHello world" validate:"required"`
	Cursor   int    `json:"cursor" example:"13"`
}

// KeystrokeResponse is the validator's decision on one proposed edit.
type KeystrokeResponse struct {
	Outcome   string `json:"outcome" example:"accepted" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Cursor    int    `json:"cursor" example:"13" validate:"required"`
	Feedback  bool   `json:"feedback" example:"false"`
	SoftLimit bool   `json:"soft_limit" example:"false"`
}

// EntryDetail is the full entry response type (aliased from the domain layer).
type EntryDetail = entryservice.EntryDetail

// EntryListResponse wraps entry listings.
type EntryListResponse struct {
	Entries []models.Entry `json:"entries" validate:"required"`
	Total   int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID       string `json:"id" validate:"required"`
	Filename string `json:"filename" validate:"required"`
	Snippet  string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// HandoffResponse carries a built AI handoff prompt.
type HandoffResponse struct {
	Style  string `json:"style" example:"reflect" validate:"required"`
	Prompt string `json:"prompt" validate:"required"`
}
