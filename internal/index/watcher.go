package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, id, filename string)

// Watch starts an fsnotify watcher on the journal directory and processes
// file change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// The journal directory is flat, so only the root is watched. Rename events
// trigger a debounced reconciliation pass that removes stale index rows and
// picks up files whose events were missed. The watcher feeds the index and
// event stream only; entry caches refresh on their own schedule.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcileAfterRename(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, journal.FileExt) {
				continue
			}
			id, _, decErr := journal.DecodeFilename(name)
			if decErr != nil {
				// Editors drop temp and swap files in the directory;
				// only canonical entry names reach the index.
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("file", name), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexEntry(db, name, data, time.Now()); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("file", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("file", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, id.String(), name)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteEntry(id.String()); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("file", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("file", name))
				if cb != nil {
					cb("deleted", id.String(), name)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within the watched dir). We delete the old row
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				if delErr := db.DeleteEntry(id.String()); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("file", name), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("file", name))
					if cb != nil {
						cb("deleted", id.String(), name)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileAfterRename does a lightweight sync using batch lookups:
// finds index rows without a corresponding file on disk and removes them,
// and (re)indexes on-disk files whose content no longer matches the index.
func reconcileAfterRename(db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) {
	stored, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	infos, err := store.List(journal.FileExt)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		id, _, decErr := journal.DecodeFilename(fi.Name)
		if decErr != nil {
			continue
		}
		disk[id.String()] = struct{}{}

		data, readErr := store.Read(fi.Name)
		if readErr != nil {
			continue
		}
		if stored[id.String()] == checksumOf(data) {
			continue
		}
		if idxErr := indexEntry(db, fi.Name, data, fi.ModTime); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("file", fi.Name))
			if cb != nil {
				cb("created", id.String(), fi.Name)
			}
		}
	}

	for id := range stored {
		if _, ok := disk[id]; !ok {
			if delErr := db.DeleteEntry(id); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("id", id))
				if cb != nil {
					cb("deleted", id, "")
				}
			}
		}
	}
}
