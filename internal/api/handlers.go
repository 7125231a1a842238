package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/entryservice"
	"github.com/starford/laguz/internal/handoff"
)

// Handler holds API route handlers.
type Handler struct {
	svc *entryservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *entryservice.Service) *Handler {
	return &Handler{svc: svc}
}

// entryID parses the {id} route parameter.
func entryID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List all entries, newest first
//	@Tags			entries
//	@Produce		json
//	@Success		200	{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("list entries failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// CreateEntry handles POST /api/entries.
//
//	@Summary		Create a new entry (empty body for a regular entry)
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateEntryRequest	false	"Options"
//	@Success		201		{object}	EntryDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	entry, err := h.svc.Create(r.Context(), req.Welcome)
	if err != nil {
		slog.Error("create entry failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetEntry handles GET /api/entries/{id}.
//
//	@Summary		Get one entry with its full content
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		string	true	"Entry id (UUID)"
//	@Success		200	{object}	EntryDetail
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	entry, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrEntryNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get entry failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HeadEntry handles HEAD /api/entries/{id}.
//
//	@Summary		Probe whether an entry exists
//	@Tags			entries
//	@Param			id	path	string	true	"Entry id (UUID)"
//	@Success		200	"Entry exists"
//	@Failure		404	"No such entry"
//	@Security		BearerAuth
//	@Router			/entries/{id} [head]
func (h *Handler) HeadEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ok, err := h.svc.Exists(r.Context(), id)
	if err != nil {
		slog.Error("head entry failed", slog.String("id", id.String()), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SaveContent handles PUT /api/entries/{id}/content.
//
//	@Summary		Replace an entry's content
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Entry id (UUID)"
//	@Param			body	body		SaveContentRequest	true	"New content"
//	@Success		200		{object}	EntryDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse	"A save for this entry is already in flight"
//	@Security		BearerAuth
//	@Router			/entries/{id}/content [put]
func (h *Handler) SaveContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	var req SaveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	entry, err := h.svc.Save(r.Context(), id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrEntryNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrSaveInProgress):
			writeJSON(w, http.StatusConflict, errorBody("save already in progress"))
		default:
			slog.Error("save content failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/entries/{id}.
//
//	@Summary		Delete an entry
//	@Tags			entries
//	@Param			id	path	string	true	"Entry id (UUID)"
//	@Success		204	"Entry deleted"
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrEntryNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("delete entry failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Keystroke handles POST /api/entries/{id}/keystroke.
//
// Constraint violations are ordinary decisions, not errors: the response is
// always 200 for a well-formed request on an existing entry.
//
//	@Summary		Validate one proposed edit against the forward-only rules
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Entry id (UUID)"
//	@Param			body	body		KeystrokeRequest	true	"Proposed edit"
//	@Success		200		{object}	KeystrokeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id}/keystroke [post]
func (h *Handler) Keystroke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	var req KeystrokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	d, err := h.svc.Keystroke(r.Context(), id, req.Previous, req.Proposed, req.Cursor)
	if err != nil {
		if errors.Is(err, apperr.ErrEntryNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("keystroke failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, KeystrokeResponse{
		Outcome:   d.Outcome.String(),
		Text:      d.Text,
		Cursor:    d.Cursor,
		Feedback:  d.Feedback,
		SoftLimit: d.SoftLimit,
	})
}

// Handoff handles GET /api/entries/{id}/handoff.
//
//	@Summary		Build the AI handoff prompt for an entry
//	@Tags			handoff
//	@Produce		json
//	@Param			id		path		string	true	"Entry id (UUID)"
//	@Param			style	query		string	false	"Prompt style"	Enums(reflect, summarize)
//	@Success		200		{object}	HandoffResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id}/handoff [get]
func (h *Handler) Handoff(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	style, err := handoff.ParseStyle(r.URL.Query().Get("style"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown handoff style"))
		return
	}
	prompt, err := h.svc.Handoff(r.Context(), id, style)
	if err != nil {
		if errors.Is(err, apperr.ErrEntryNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("handoff failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, HandoffResponse{Style: string(style), Prompt: prompt})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across entry content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i] = SearchResult{ID: res.ID, Filename: res.Filename, Snippet: res.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}
