package journal

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
)

func TestEncodeFilenameFormat(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2025, 3, 9, 14, 30, 5, 0, time.Local)

	got := EncodeFilename(id, ts)
	want := "[6ba7b810-9dad-11d1-80b4-00c04fd430c8]-[2025-03-09-14-30-05].md"
	if got != want {
		t.Errorf("EncodeFilename = %q, want %q", got, want)
	}
}

func TestFilenameRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local),
		NewTimestamp(time.Now()),
	}
	for _, ts := range cases {
		id := uuid.New()
		name := EncodeFilename(id, ts)
		gotID, gotTS, err := DecodeFilename(name)
		if err != nil {
			t.Fatalf("DecodeFilename(%q): %v", name, err)
		}
		if gotID != id {
			t.Errorf("id = %s, want %s", gotID, id)
		}
		if !gotTS.Equal(ts) {
			t.Errorf("timestamp = %v, want %v", gotTS, ts)
		}
	}
}

func TestNewTimestampDropsSubsecond(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 6, 1, 10, 20, 30, 123456789, time.Local))
	if ts.Nanosecond() != 0 {
		t.Errorf("expected zero nanoseconds, got %d", ts.Nanosecond())
	}
}

func TestDecodeFilenameRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"notes.md",
		"entry.txt",
		"[6ba7b810-9dad-11d1-80b4-00c04fd430c8].md",                            // no timestamp token
		"[2025-03-09-14-30-05].md",                                             // no id token
		"[6ba7b810-9dad-11d1-80b4-00c04fd430c8]-[2025-03-09].md",               // short timestamp
		"[6ba7b810-9dad-11d1-80b4-00c04fd430c8]-[2025-13-40-99-99-99].md",      // unparseable timestamp
		"[6ba7b810-9dad-11d1-80b4-00c04fd430c8]-[2025-03-09-14-30-05].txt",     // wrong extension
		"[zzzzzzzz-9dad-11d1-80b4-00c04fd430c8]-[2025-03-09-14-30-05].md",      // bad id
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8-2025-03-09-14-30-05.md",          // no brackets
	}
	for _, name := range cases {
		if _, _, err := DecodeFilename(name); !errors.Is(err, apperr.ErrInvalidEntryFormat) {
			t.Errorf("DecodeFilename(%q) = %v, want ErrInvalidEntryFormat", name, err)
		}
	}
}

func TestDecodeFilenameErrorNamesFile(t *testing.T) {
	_, _, err := DecodeFilename("junk.md")
	if err == nil || !strings.Contains(err.Error(), "junk.md") {
		t.Errorf("error should name the offending file, got %v", err)
	}
}
