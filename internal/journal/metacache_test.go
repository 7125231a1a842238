package journal

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/models"
)

func metaEntry(welcome bool) models.Entry {
	id := uuid.New()
	ts := NewTimestamp(time.Now())
	return models.Entry{
		ID:        id,
		Filename:  EncodeFilename(id, ts),
		CreatedAt: ts,
		Welcome:   welcome,
	}
}

func TestMetaCacheStartsStale(t *testing.T) {
	c := NewMetaCache(0)
	if c.Valid(time.Now(), time.Hour) {
		t.Error("empty cache must be stale until the first Replace")
	}
}

func TestMetaCacheValidityWindow(t *testing.T) {
	c := NewMetaCache(0)
	now := time.Now()
	c.Replace(map[uuid.UUID]models.Entry{}, now)

	if !c.Valid(now.Add(10*time.Millisecond), time.Second) {
		t.Error("cache should be valid inside the window")
	}
	if c.Valid(now.Add(2*time.Second), time.Second) {
		t.Error("cache should be stale outside the window")
	}
}

func TestMetaCacheInsertRejectsDuplicate(t *testing.T) {
	c := NewMetaCache(0)
	e := metaEntry(false)
	if err := c.Insert(e); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := c.Insert(e); err == nil {
		t.Error("duplicate Insert should fail")
	}
}

func TestMetaCacheInsertRespectsCapacity(t *testing.T) {
	c := NewMetaCache(1)
	if err := c.Insert(metaEntry(false)); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := c.Insert(metaEntry(false)); err == nil {
		t.Error("Insert past capacity should fail")
	}
}

func TestMetaCacheUpdateAndEvict(t *testing.T) {
	c := NewMetaCache(0)
	e := metaEntry(false)
	if err := c.Insert(e); err != nil {
		t.Fatal(err)
	}

	e.Preview = "changed"
	c.Update(e)
	got, ok := c.Get(e.ID)
	if !ok || got.Preview != "changed" {
		t.Errorf("Update not visible: %+v ok=%v", got, ok)
	}

	c.Evict(e.ID)
	if _, ok := c.Get(e.ID); ok {
		t.Error("entry should be evicted")
	}
}

func TestMetaCacheMutationsDoNotRefreshWindow(t *testing.T) {
	c := NewMetaCache(0)
	if err := c.Insert(metaEntry(false)); err != nil {
		t.Fatal(err)
	}
	if c.Valid(time.Now(), time.Hour) {
		t.Error("Insert must not stamp freshness; only Replace does")
	}
}

func TestMetaCacheReplaceCarriesWelcomeFlag(t *testing.T) {
	c := NewMetaCache(0)
	w := metaEntry(true)
	plain := metaEntry(false)
	if err := c.Insert(w); err != nil {
		t.Fatal(err)
	}
	if err := c.Insert(plain); err != nil {
		t.Fatal(err)
	}

	// A rescan rebuilds entries from disk, where the flag does not exist.
	rescanned := map[uuid.UUID]models.Entry{}
	for _, e := range []models.Entry{w, plain} {
		e.Welcome = false
		rescanned[e.ID] = e
	}
	c.Replace(rescanned, time.Now())

	got, ok := c.Get(w.ID)
	if !ok || !got.Welcome {
		t.Error("welcome flag lost across Replace")
	}
	got, ok = c.Get(plain.ID)
	if !ok || got.Welcome {
		t.Error("plain entry gained a welcome flag")
	}
}

func TestMetaCacheReplaceSwapsWholeMap(t *testing.T) {
	c := NewMetaCache(0)
	old := metaEntry(false)
	if err := c.Insert(old); err != nil {
		t.Fatal(err)
	}

	fresh := metaEntry(false)
	c.Replace(map[uuid.UUID]models.Entry{fresh.ID: fresh}, time.Now())

	if _, ok := c.Get(old.ID); ok {
		t.Error("stale entry survived a whole-map swap")
	}
	if _, ok := c.Get(fresh.ID); !ok {
		t.Error("fresh entry missing after swap")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
