// Package testutil provides shared test helpers for setting up journals and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/laguz/internal/constraint"
	"github.com/starford/laguz/internal/entryservice"
	"github.com/starford/laguz/internal/index"
	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "laguz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestJournal creates a temporary journal directory with a storage.Provider.
func TestJournal(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestService wires an entry service over the given store, backed by a fresh
// temporary index. A nil store gets a fresh temporary journal.
func TestService(t *testing.T, store storage.Provider) *entryservice.Service {
	t.Helper()
	if store == nil {
		_, store = TestJournal(t)
	}
	repo := journal.NewRepository(store, journal.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return entryservice.NewService(repo, TestDB(t), constraint.New(constraint.Limits{}))
}
