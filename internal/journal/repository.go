// Package journal owns entry persistence: a flat directory of entry files
// fronted by a metadata cache, a content cache, and per-entry save locking.
//
// Storage is the source of truth at all times. Every mutation reaches disk
// before the caches are touched, so the caches can lag behind the directory
// but never lead it; a crash between the two steps is healed by the next
// rescan.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/storage"
)

// Cache freshness defaults. The metadata window widens while an external
// signal reports the journal is being actively monitored (a connected UI),
// and shrinks when nobody is watching. Content lives longer because no
// external mutation path is modeled.
const (
	DefaultMetaTTLActive = 5 * time.Minute
	DefaultMetaTTLIdle   = 30 * time.Second
	DefaultContentTTL    = 15 * time.Minute
)

// Options tune a Repository. Zero values fall back to the defaults above.
type Options struct {
	MetaTTLActive time.Duration
	MetaTTLIdle   time.Duration
	ContentTTL    time.Duration
	// MaxEntries caps the metadata cache (0 = unlimited). Hitting the cap
	// fails entry creation.
	MaxEntries int
	Logger     *slog.Logger
}

// Repository is the entry persistence layer. It is safe for concurrent use;
// writers are serialized per entry id and the metadata map is only ever
// rebuilt through a whole-map swap.
type Repository struct {
	store   storage.Provider
	meta    *MetaCache
	content *ContentCache
	saves   *SaveCoordinator
	rescan  singleflight.Group
	active  atomic.Bool
	logger  *slog.Logger

	metaTTLActive time.Duration
	metaTTLIdle   time.Duration
	contentTTL    time.Duration
}

// NewRepository creates a Repository over store.
func NewRepository(store storage.Provider, opts Options) *Repository {
	if opts.MetaTTLActive <= 0 {
		opts.MetaTTLActive = DefaultMetaTTLActive
	}
	if opts.MetaTTLIdle <= 0 {
		opts.MetaTTLIdle = DefaultMetaTTLIdle
	}
	if opts.ContentTTL <= 0 {
		opts.ContentTTL = DefaultContentTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Repository{
		store:         store,
		meta:          NewMetaCache(opts.MaxEntries),
		content:       NewContentCache(),
		saves:         NewSaveCoordinator(),
		logger:        opts.Logger,
		metaTTLActive: opts.MetaTTLActive,
		metaTTLIdle:   opts.MetaTTLIdle,
		contentTTL:    opts.ContentTTL,
	}
}

// SetActiveMonitoring feeds the external activity signal that selects the
// metadata TTL. Wiring calls this explicitly; the repository registers no
// listeners of its own.
func (r *Repository) SetActiveMonitoring(active bool) {
	r.active.Store(active)
}

func (r *Repository) metaTTL() time.Duration {
	if r.active.Load() {
		return r.metaTTLActive
	}
	return r.metaTTLIdle
}

// Create persists a new entry holding only the content sentinel and returns
// its metadata.
func (r *Repository) Create(ctx context.Context) (models.Entry, error) {
	return r.create(ctx, false)
}

// CreateWelcome is Create with the process-local welcome flag set; used for
// the tutorial entry written on a first launch.
func (r *Repository) CreateWelcome(ctx context.Context) (models.Entry, error) {
	return r.create(ctx, true)
}

func (r *Repository) create(_ context.Context, welcome bool) (models.Entry, error) {
	id := uuid.New()
	createdAt := NewTimestamp(time.Now())
	name := EncodeFilename(id, createdAt)

	exists, err := r.store.Exists(name)
	if err != nil {
		return models.Entry{}, fmt.Errorf("journal: probe %s: %w: %w", name, apperr.ErrIO, err)
	}
	if exists {
		return models.Entry{}, fmt.Errorf("journal: create %s: %w", name, apperr.ErrDuplicateEntry)
	}
	if err := r.store.Write(name, []byte(models.Sentinel)); err != nil {
		return models.Entry{}, fmt.Errorf("journal: create %s: %w: %w", name, apperr.ErrIO, err)
	}

	e := models.Entry{
		ID:         id,
		Filename:   name,
		CreatedAt:  createdAt,
		ModifiedAt: createdAt,
		Preview:    DerivePreview(models.Sentinel),
		WordCount:  DeriveWordCount(models.Sentinel),
		Welcome:    welcome,
	}
	if err := r.meta.Insert(e); err != nil {
		// Creation-only rollback: the file was written this call, so delete
		// it rather than leave an orphan with no cache record. Saves of
		// pre-existing entries are never rolled back this way.
		if derr := r.store.Delete(name); derr != nil {
			r.logger.Warn("journal: rollback of orphan entry file failed",
				slog.String("filename", name),
				slog.String("error", derr.Error()))
		}
		return models.Entry{}, fmt.Errorf("journal: register %s: %w", id, err)
	}
	r.content.Put(id, models.Sentinel, time.Now())
	return e, nil
}

// Get returns the metadata for one entry, cache-first.
func (r *Repository) Get(_ context.Context, id uuid.UUID) (models.Entry, error) {
	return r.resolve(id)
}

// LoadContent returns the full text of an entry, content-cache first.
func (r *Repository) LoadContent(_ context.Context, id uuid.UUID) (string, error) {
	if text, ok := r.content.Get(id, time.Now(), r.contentTTL); ok {
		return text, nil
	}

	e, err := r.resolve(id)
	if err != nil {
		return "", err
	}
	data, err := r.store.Read(e.Filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// The file vanished underneath a stale cache record.
			r.meta.Evict(id)
			r.content.Evict(id)
			return "", fmt.Errorf("journal: content of %s: %w", id, apperr.ErrEntryNotFound)
		}
		return "", fmt.Errorf("journal: read %s: %w: %w", e.Filename, apperr.ErrIO, err)
	}
	text := string(data)
	r.content.Put(id, text, time.Now())
	return text, nil
}

// SaveContent atomically replaces the entry's text and refreshes its
// derived metadata. A save already in flight for the same id fails fast
// with ErrSaveInProgress. Caches are updated only after the write durably
// succeeded; the save lock is released on every exit path.
func (r *Repository) SaveContent(_ context.Context, id uuid.UUID, text string) (models.Entry, error) {
	release, err := r.saves.Begin(id)
	if err != nil {
		return models.Entry{}, err
	}
	defer release()

	e, err := r.resolve(id)
	if err != nil {
		return models.Entry{}, err
	}

	if err := r.store.Write(e.Filename, []byte(text)); err != nil {
		return models.Entry{}, fmt.Errorf("journal: write %s: %w: %w", e.Filename, apperr.ErrIO, err)
	}

	now := time.Now()
	e.Preview = DerivePreview(text)
	e.WordCount = DeriveWordCount(text)
	e.ModifiedAt = now
	r.meta.Update(e)
	r.content.Put(id, text, now)
	return e, nil
}

// Delete removes the entry file and evicts it from both caches.
func (r *Repository) Delete(_ context.Context, id uuid.UUID) error {
	e, err := r.resolve(id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(e.Filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.meta.Evict(id)
			r.content.Evict(id)
			return fmt.Errorf("journal: delete %s: %w", id, apperr.ErrEntryNotFound)
		}
		return fmt.Errorf("journal: delete %s: %w: %w", e.Filename, apperr.ErrIO, err)
	}
	r.meta.Evict(id)
	r.content.Evict(id)
	return nil
}

// List returns all entries sorted by creation time, newest first. A valid
// metadata cache answers directly; otherwise the directory is rescanned and
// the cache replaced wholesale.
func (r *Repository) List(_ context.Context) ([]models.Entry, error) {
	if !r.meta.Valid(time.Now(), r.metaTTL()) {
		if err := r.rescanAll(); err != nil {
			return nil, err
		}
	}
	entries := r.meta.Snapshot()
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].Filename > entries[j].Filename
	})
	return entries, nil
}

// Exists reports whether id resolves to a stored entry, rescanning once
// before answering false.
func (r *Repository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.meta.Get(id); ok {
		return true, nil
	}
	if err := r.rescanAll(); err != nil {
		return false, err
	}
	_, ok := r.meta.Get(id)
	return ok, nil
}

// resolve looks up entry metadata, forcing one rescan before giving up.
func (r *Repository) resolve(id uuid.UUID) (models.Entry, error) {
	if e, ok := r.meta.Get(id); ok {
		return e, nil
	}
	if err := r.rescanAll(); err != nil {
		return models.Entry{}, err
	}
	if e, ok := r.meta.Get(id); ok {
		return e, nil
	}
	return models.Entry{}, fmt.Errorf("journal: entry %s: %w", id, apperr.ErrEntryNotFound)
}

// rescanAll rebuilds the metadata cache from the directory. Concurrent
// callers share a single scan via singleflight. One malformed or unreadable
// file is logged and skipped; it never aborts the listing. File bytes are
// already in hand during the scan, so the content cache is filled
// opportunistically.
func (r *Repository) rescanAll() error {
	_, err, _ := r.rescan.Do("rescan", func() (any, error) {
		infos, err := r.store.List(FileExt)
		if err != nil {
			return nil, fmt.Errorf("journal: scan: %w: %w", apperr.ErrIO, err)
		}

		fresh := make(map[uuid.UUID]models.Entry, len(infos))
		for _, info := range infos {
			id, createdAt, err := DecodeFilename(info.Name)
			if err != nil {
				r.logger.Warn("journal: skipping malformed entry file",
					slog.String("filename", info.Name),
					slog.String("error", err.Error()))
				continue
			}
			if _, dup := fresh[id]; dup {
				r.logger.Warn("journal: skipping duplicate entry id",
					slog.String("filename", info.Name),
					slog.String("id", id.String()))
				continue
			}
			data, err := r.store.Read(info.Name)
			if err != nil {
				r.logger.Warn("journal: skipping unreadable entry file",
					slog.String("filename", info.Name),
					slog.String("error", err.Error()))
				continue
			}
			text := string(data)
			fresh[id] = models.Entry{
				ID:         id,
				Filename:   info.Name,
				CreatedAt:  createdAt,
				ModifiedAt: info.ModTime,
				Preview:    DerivePreview(text),
				WordCount:  DeriveWordCount(text),
			}
			r.content.Put(id, text, time.Now())
		}
		r.meta.Replace(fresh, time.Now())
		return nil, nil
	})
	return err
}
