package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/storage"
)

func newTestRepo(t *testing.T, opts Options) (*Repository, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewRepository(fs, opts), fs
}

// countingStore counts storage reads to observe cache behavior.
type countingStore struct {
	storage.Provider
	reads atomic.Int32
}

func (s *countingStore) Read(name string) ([]byte, error) {
	s.reads.Add(1)
	return s.Provider.Read(name)
}

// blockingStore holds every Write until gate closes, signalling entry on
// the started channel first.
type blockingStore struct {
	storage.Provider
	started chan struct{}
	gate    chan struct{}
}

func (s *blockingStore) Write(name string, content []byte) error {
	s.started <- struct{}{}
	<-s.gate
	return s.Provider.Write(name, content)
}

func TestCreateWritesSentinelOnlyFile(t *testing.T) {
	repo, fs := newTestRepo(t, Options{})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.WordCount != 0 || e.Preview != "" {
		t.Errorf("fresh entry derived fields: count=%d preview=%q", e.WordCount, e.Preview)
	}
	if !e.ModifiedAt.Equal(e.CreatedAt) {
		t.Error("fresh entry should have modifiedAt == createdAt")
	}

	data, err := fs.Read(e.Filename)
	if err != nil {
		t.Fatalf("read created file: %v", err)
	}
	if string(data) != "\n\n" {
		t.Errorf("initial content = %q, want sentinel only", data)
	}

	id, createdAt, err := DecodeFilename(e.Filename)
	if err != nil {
		t.Fatalf("created filename does not decode: %v", err)
	}
	if id != e.ID || !createdAt.Equal(e.CreatedAt) {
		t.Error("filename does not round-trip the entry identity")
	}
}

func TestSaveThenLoadReturnsExactContent(t *testing.T) {
	repo, _ := newTestRepo(t, Options{})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	contents := []string{
		"\n\nHello",
		"\n\nHello world, with\nnewlines\nand trailing space ",
		"\n\nunicode: é — 表意文字",
	}
	for _, want := range contents {
		updated, err := repo.SaveContent(ctx, e.ID, want)
		if err != nil {
			t.Fatalf("SaveContent(%q): %v", want, err)
		}
		got, err := repo.LoadContent(ctx, e.ID)
		if err != nil {
			t.Fatalf("LoadContent: %v", err)
		}
		if got != want {
			t.Errorf("LoadContent = %q, want %q", got, want)
		}
		if updated.WordCount != DeriveWordCount(want) || updated.Preview != DerivePreview(want) {
			t.Errorf("derived fields not recomputed: %+v", updated)
		}
	}
}

func TestDeleteEntry(t *testing.T) {
	repo, _ := newTestRepo(t, Options{})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	ok, err := repo.Exists(ctx, e.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("entry should not exist after delete")
	}
	if _, err := repo.LoadContent(ctx, e.ID); !errors.Is(err, apperr.ErrEntryNotFound) {
		t.Errorf("LoadContent after delete = %v, want ErrEntryNotFound", err)
	}
	if err := repo.Delete(ctx, e.ID); !errors.Is(err, apperr.ErrEntryNotFound) {
		t.Errorf("second Delete = %v, want ErrEntryNotFound", err)
	}
}

func TestUnknownIDFailsAfterForcedRescan(t *testing.T) {
	repo, _ := newTestRepo(t, Options{})
	ctx := context.Background()

	if _, err := repo.LoadContent(ctx, uuid.New()); !errors.Is(err, apperr.ErrEntryNotFound) {
		t.Errorf("LoadContent = %v, want ErrEntryNotFound", err)
	}
	if _, err := repo.SaveContent(ctx, uuid.New(), "\n\nx"); !errors.Is(err, apperr.ErrEntryNotFound) {
		t.Errorf("SaveContent = %v, want ErrEntryNotFound", err)
	}
}

func TestSecondSaveRejectedWhileFirstInFlight(t *testing.T) {
	repo, fs := newTestRepo(t, Options{})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	blocked := &blockingStore{
		Provider: fs,
		started:  make(chan struct{}),
		gate:     make(chan struct{}),
	}
	repo.store = blocked

	firstDone := make(chan error, 1)
	go func() {
		_, err := repo.SaveContent(ctx, e.ID, "\n\nfirst writer")
		firstDone <- err
	}()

	<-blocked.started // first save now holds the lock inside Write

	if _, err := repo.SaveContent(ctx, e.ID, "\n\nsecond writer"); !errors.Is(err, apperr.ErrSaveInProgress) {
		t.Errorf("concurrent save = %v, want ErrSaveInProgress", err)
	}

	close(blocked.gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first save: %v", err)
	}
	repo.store = fs

	// The lock must be free again.
	if _, err := repo.SaveContent(ctx, e.ID, "\n\nthird"); err != nil {
		t.Errorf("save after release: %v", err)
	}
	got, _ := repo.LoadContent(ctx, e.ID)
	if got != "\n\nthird" {
		t.Errorf("content = %q", got)
	}
}

func TestSaveLockReleasedOnWriteFailure(t *testing.T) {
	repo, fs := newTestRepo(t, Options{})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	repo.store = failingWriteStore{fs}
	if _, err := repo.SaveContent(ctx, e.ID, "\n\ndoomed"); !errors.Is(err, apperr.ErrIO) {
		t.Fatalf("save = %v, want ErrIO", err)
	}
	if repo.saves.InFlight(e.ID) {
		t.Error("save lock leaked on the failure path")
	}

	repo.store = fs
	if _, err := repo.SaveContent(ctx, e.ID, "\n\nrecovered"); err != nil {
		t.Errorf("save after failure: %v", err)
	}
}

type failingWriteStore struct{ storage.Provider }

func (failingWriteStore) Write(string, []byte) error {
	return errors.New("disk full")
}

func TestConcurrentCreatesAllListed(t *testing.T) {
	repo, _ := newTestRepo(t, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Create(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Create: %v", err)
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List len = %d, want 3", len(entries))
	}
	ids := map[uuid.UUID]bool{}
	names := map[string]bool{}
	for _, e := range entries {
		if ids[e.ID] || names[e.Filename] {
			t.Errorf("duplicate id or filename: %s %s", e.ID, e.Filename)
		}
		ids[e.ID] = true
		names[e.Filename] = true
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Error("entries not sorted newest-first")
		}
	}
}

func TestListSortsNewestFirstAcrossRescan(t *testing.T) {
	repo, fs := newTestRepo(t, Options{})
	ctx := context.Background()

	times := []time.Time{
		time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local),
		time.Date(2025, 1, 3, 9, 0, 0, 0, time.Local),
		time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local),
	}
	for _, ts := range times {
		name := EncodeFilename(uuid.New(), ts)
		if err := fs.Write(name, []byte("\n\nbody")); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	want := []int{3, 2, 1}
	for i, e := range entries {
		if e.CreatedAt.Day() != want[i] {
			t.Errorf("position %d has day %d, want %d", i, e.CreatedAt.Day(), want[i])
		}
	}
}

func TestRescanSkipsMalformedFiles(t *testing.T) {
	repo, fs := newTestRepo(t, Options{})
	ctx := context.Background()

	good, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("not-an-entry.md", []byte("junk")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("[not-a-uuid]-[2025-01-01-00-00-00].md", []byte("junk")); err != nil {
		t.Fatal(err)
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List should tolerate malformed files: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != good.ID {
		t.Errorf("entries = %+v, want only the good one", entries)
	}
}

func TestCreateRollsBackFileOnCacheFailure(t *testing.T) {
	repo, fs := newTestRepo(t, Options{MaxEntries: 1})
	ctx := context.Background()

	if _, err := repo.Create(ctx); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := repo.Create(ctx); err == nil {
		t.Fatal("second Create should fail at the capacity cap")
	}

	// The orphan file must be gone: exactly one entry file remains.
	infos, err := fs.List(FileExt)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Errorf("journal dir holds %d files, want 1 (rollback failed)", len(infos))
	}
}

func TestMetaCacheIdleTTLExpires(t *testing.T) {
	repo, fs := newTestRepo(t, Options{MetaTTLIdle: 75 * time.Millisecond})
	ctx := context.Background()

	if _, err := repo.List(ctx); err != nil { // stamps freshness
		t.Fatal(err)
	}

	// A file appears behind the repository's back.
	name := EncodeFilename(uuid.New(), NewTimestamp(time.Now()))
	if err := fs.Write(name, []byte("\n\nexternal")); err != nil {
		t.Fatal(err)
	}

	entries, _ := repo.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("external file visible before TTL expiry: %d entries", len(entries))
	}

	time.Sleep(150 * time.Millisecond)
	entries, _ = repo.List(ctx)
	if len(entries) != 1 {
		t.Errorf("external file still invisible after TTL expiry: %d entries", len(entries))
	}
}

func TestActiveMonitoringWidensMetaTTL(t *testing.T) {
	repo, fs := newTestRepo(t, Options{
		MetaTTLIdle:   20 * time.Millisecond,
		MetaTTLActive: time.Hour,
	})
	ctx := context.Background()
	repo.SetActiveMonitoring(true)

	if _, err := repo.List(ctx); err != nil {
		t.Fatal(err)
	}
	name := EncodeFilename(uuid.New(), NewTimestamp(time.Now()))
	if err := fs.Write(name, []byte("\n\nexternal")); err != nil {
		t.Fatal(err)
	}

	time.Sleep(40 * time.Millisecond)
	entries, _ := repo.List(ctx)
	if len(entries) != 0 {
		t.Error("active-monitoring TTL should keep the cache valid past the idle window")
	}

	repo.SetActiveMonitoring(false)
	entries, _ = repo.List(ctx)
	if len(entries) != 1 {
		t.Error("dropping the signal should shrink the window and force a rescan")
	}
}

func TestReadYourWritesWithoutRescan(t *testing.T) {
	repo, fs := newTestRepo(t, Options{}) // default 30s idle TTL; no expiry during test
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.List(ctx); err != nil { // stamps freshness
		t.Fatal(err)
	}

	if _, err := repo.SaveContent(ctx, e.ID, "\n\nfresh words here"); err != nil {
		t.Fatal(err)
	}
	// An external file must stay invisible (no rescan happened)...
	if err := fs.Write(EncodeFilename(uuid.New(), NewTimestamp(time.Now())), []byte("\n\nghost")); err != nil {
		t.Fatal(err)
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1 (cache should still be valid)", len(entries))
	}
	// ...while the save is already reflected.
	if entries[0].WordCount != 3 || entries[0].Preview != "fresh words here" {
		t.Errorf("read-your-writes violated: %+v", entries[0])
	}
}

func TestContentCacheServesRepeatLoads(t *testing.T) {
	repo, fs := newTestRepo(t, Options{ContentTTL: 60 * time.Millisecond})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counting := &countingStore{Provider: fs}
	repo.store = counting

	if _, err := repo.SaveContent(ctx, e.ID, "\n\ncached text"); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := repo.LoadContent(ctx, e.ID); err != nil {
			t.Fatal(err)
		}
	}
	if n := counting.reads.Load(); n != 0 {
		t.Errorf("storage reads = %d, want 0 (save populated the cache)", n)
	}

	time.Sleep(120 * time.Millisecond)
	if _, err := repo.LoadContent(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if n := counting.reads.Load(); n != 1 {
		t.Errorf("storage reads after expiry = %d, want 1", n)
	}
}

func TestLoadContentHealsVanishedFile(t *testing.T) {
	repo, fs := newTestRepo(t, Options{ContentTTL: time.Nanosecond})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete(e.Filename); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.LoadContent(ctx, e.ID); !errors.Is(err, apperr.ErrEntryNotFound) {
		t.Fatalf("LoadContent = %v, want ErrEntryNotFound", err)
	}
	if _, ok := repo.meta.Get(e.ID); ok {
		t.Error("vanished entry still in metadata cache")
	}
}

func TestWelcomeFlagCarriedAcrossRescan(t *testing.T) {
	repo, _ := newTestRepo(t, Options{MetaTTLIdle: time.Nanosecond})
	ctx := context.Background()

	w, err := repo.CreateWelcome(ctx)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// TTL is effectively zero, so this List rescans from disk.
	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	byID := map[uuid.UUID]bool{}
	for _, e := range entries {
		byID[e.ID] = e.Welcome
	}
	if !byID[w.ID] {
		t.Error("welcome flag lost across rescan")
	}
	if byID[plain.ID] {
		t.Error("plain entry gained the welcome flag")
	}
}

func TestRescanPopulatesContentCache(t *testing.T) {
	repo, fs := newTestRepo(t, Options{})
	ctx := context.Background()

	name := EncodeFilename(uuid.New(), NewTimestamp(time.Now()))
	if err := fs.Write(name, []byte("\n\nscanned body")); err != nil {
		t.Fatal(err)
	}

	counting := &countingStore{Provider: fs}
	repo.store = counting

	entries, err := repo.List(ctx) // rescan reads the file once
	if err != nil || len(entries) != 1 {
		t.Fatalf("List: %v (%d entries)", err, len(entries))
	}
	scanReads := counting.reads.Load()

	if text, err := repo.LoadContent(ctx, entries[0].ID); err != nil || text != "\n\nscanned body" {
		t.Fatalf("LoadContent = %q, %v", text, err)
	}
	if counting.reads.Load() != scanReads {
		t.Error("LoadContent went to storage although the rescan had the bytes in hand")
	}
}

func TestPreviewDerivationOnSave(t *testing.T) {
	repo, _ := newTestRepo(t, Options{})
	ctx := context.Background()

	e, err := repo.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	long := "\n\n" + strings.Repeat("word ", 20)
	updated, err := repo.SaveContent(ctx, e.ID, long)
	if err != nil {
		t.Fatal(err)
	}
	if updated.WordCount != 20 {
		t.Errorf("WordCount = %d, want 20", updated.WordCount)
	}
	if !strings.HasSuffix(updated.Preview, "...") {
		t.Errorf("long preview should end with ellipsis marker: %q", updated.Preview)
	}
}
