// Package storage owns the on-disk layout of a notekeep root and the note body files.
package storage

// Provider is the content store for note bodies.
type Provider interface {
	// ReadBody returns the body of note id, or "" when no body file exists yet.
	ReadBody(id string) (string, error)
	// WriteBody replaces the body of note id.
	WriteBody(id, text string) error
	// BodyExists reports whether note id has a body file on disk.
	BodyExists(id string) (bool, error)
	// DeleteBody removes the body file of note id. A missing file is not an error.
	DeleteBody(id string) error
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
