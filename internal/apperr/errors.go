// Package apperr defines the error taxonomy shared across Laguz subsystems.
//
// Repository failures surface as these sentinels so callers can branch with
// errors.Is regardless of wrapping depth. I/O failures keep their cause:
// wrap with both ErrIO and the underlying error using multi-%w, e.g.
//
//	fmt.Errorf("journal: write %s: %w: %w", name, apperr.ErrIO, err)
package apperr

import "errors"

var (
	// ErrEntryNotFound reports a lookup of an id with no backing entry,
	// even after a forced rescan of the journal directory.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidEntryFormat reports a filename that does not decode to an
	// (id, created-at) pair.
	ErrInvalidEntryFormat = errors.New("invalid entry format")

	// ErrDuplicateEntry reports a create that collided with an existing file.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrSaveInProgress reports a save attempted while another save of the
	// same entry is still in flight. Callers retry or abandon; they are
	// never queued.
	ErrSaveInProgress = errors.New("save in progress")

	// ErrIO marks storage failures. The underlying cause is wrapped
	// alongside it.
	ErrIO = errors.New("i/o failure")
)
