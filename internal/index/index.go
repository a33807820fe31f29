// Package index loads and persists the single metadata index of a notekeep root.
package index

import "github.com/starford/notekeep/internal/models"

// NoteIndex defines the interface for index persistence.
// Consumers should depend on this interface rather than the concrete *Store type
// to facilitate testing with fakes.
type NoteIndex interface {
	Load() (*models.IndexFile, error)
	Save(idx *models.IndexFile) error
	Exists() (bool, error)
}

// Verify *Store satisfies NoteIndex at compile time.
var _ NoteIndex = (*Store)(nil)
