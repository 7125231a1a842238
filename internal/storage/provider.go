// Package storage defines the journal directory file-system abstraction.
package storage

import "github.com/starford/laguz/internal/models"

// Provider is the interface for journal file operations. The journal is a
// single flat directory; names never contain path separators.
type Provider interface {
	// List returns stat records for every regular file in the journal
	// directory whose name carries the given extension (e.g. ".md").
	List(ext string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Write atomically replaces the named file with content.
	Write(name string, content []byte) error
	// Delete removes the named file.
	Delete(name string) error
	// Exists reports whether the named file is present.
	Exists(name string) (bool, error)
}
