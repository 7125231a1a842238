package index

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/storage"
)

// Sync walks the journal directory and brings the index up to date:
//   - new/changed entries are read and upserted
//   - entries removed from disk are deleted from the index
//
// Files whose names do not decode are skipped; they are invisible to the
// journal and must stay invisible to search.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List(journal.FileExt)
	if err != nil {
		return err
	}

	stored, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		id, _, decErr := journal.DecodeFilename(fi.Name)
		if decErr != nil {
			logger.Warn("sync: skipping unrecognized file", slog.String("file", fi.Name))
			continue
		}
		disk[id.String()] = struct{}{}

		data, readErr := store.Read(fi.Name)
		if readErr != nil {
			logger.Warn("sync: read failed", slog.String("file", fi.Name), slog.String("error", readErr.Error()))
			continue
		}
		if stored[id.String()] == checksumOf(data) {
			continue
		}
		if idxErr := indexEntry(db, fi.Name, data, fi.ModTime); idxErr != nil {
			logger.Warn("sync: index failed", slog.String("file", fi.Name), slog.String("error", idxErr.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("file", fi.Name))
		}
	}

	// Remove stale rows.
	for id := range stored {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteEntry(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}

// indexEntry derives row fields from the filename and body and upserts them.
func indexEntry(db *DB, filename string, data []byte, modTime time.Time) error {
	id, createdAt, err := journal.DecodeFilename(filename)
	if err != nil {
		return err
	}
	body := string(data)

	row := EntryRow{
		ID:        id.String(),
		Filename:  filename,
		Preview:   journal.DerivePreview(body),
		WordCount: journal.DeriveWordCount(body),
		Checksum:  checksumOf(data),
		CreatedAt: createdAt,
		UpdatedAt: modTime,
	}
	return db.UpsertEntry(row, body)
}

// checksumOf returns the hex-encoded SHA-256 digest of data.
func checksumOf(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
