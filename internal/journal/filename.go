package journal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
)

// FileExt is the extension every entry file carries on disk.
const FileExt = ".md"

// timeLayout renders entry timestamps at second granularity in local time.
// The on-disk format has no zone or sub-second field, so CreatedAt values
// are truncated to the second before encoding (see NewTimestamp).
const timeLayout = "2006-01-02-15-04-05"

var (
	uuidToken = regexp.MustCompile(`\[([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})\]`)
	timeToken = regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2})\]`)
)

// NewTimestamp normalizes t to the granularity the filename codec can
// represent. Encoding a non-normalized timestamp loses precision and breaks
// the round-trip guarantee.
func NewTimestamp(t time.Time) time.Time {
	return t.In(time.Local).Truncate(time.Second)
}

// EncodeFilename builds the canonical entry filename for (id, createdAt):
//
//	[<uuid>]-[<yyyy-MM-dd-HH-mm-ss>].md
//
// The format is an external compatibility contract and must not change.
func EncodeFilename(id uuid.UUID, createdAt time.Time) string {
	return fmt.Sprintf("[%s]-[%s]%s", id, createdAt.In(time.Local).Format(timeLayout), FileExt)
}

// DecodeFilename recovers the exact (id, createdAt) pair a filename was
// built from. Any name that does not match both bracketed tokens, or whose
// timestamp does not parse, fails with ErrInvalidEntryFormat.
func DecodeFilename(name string) (uuid.UUID, time.Time, error) {
	if !strings.HasSuffix(name, FileExt) {
		return uuid.Nil, time.Time{}, fmt.Errorf("journal: filename %q: missing %s extension: %w", name, FileExt, apperr.ErrInvalidEntryFormat)
	}
	um := uuidToken.FindStringSubmatch(name)
	if um == nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("journal: filename %q: no id token: %w", name, apperr.ErrInvalidEntryFormat)
	}
	tm := timeToken.FindStringSubmatch(name)
	if tm == nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("journal: filename %q: no timestamp token: %w", name, apperr.ErrInvalidEntryFormat)
	}
	id, err := uuid.Parse(um[1])
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("journal: filename %q: bad id: %w", name, apperr.ErrInvalidEntryFormat)
	}
	createdAt, err := time.ParseInLocation(timeLayout, tm[1], time.Local)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("journal: filename %q: bad timestamp: %w", name, apperr.ErrInvalidEntryFormat)
	}
	return id, createdAt, nil
}
