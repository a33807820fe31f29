package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/storage"
)

// Store reads and writes meta/index.json.
type Store struct {
	fs *storage.FS
}

// NewStore creates an index store on top of a storage root.
func NewStore(fs *storage.FS) *Store {
	return &Store{fs: fs}
}

func indexRel() string {
	return storage.MetaRel(storage.IndexFile)
}

// Exists reports whether the index file has been written.
func (s *Store) Exists() (bool, error) {
	return s.fs.Exists(indexRel())
}

// Load parses the index. A missing file yields an empty index; malformed
// content is an error, never a silent default.
func (s *Store) Load() (*models.IndexFile, error) {
	data, err := s.fs.ReadFile(indexRel())
	if errors.Is(err, fs.ErrNotExist) {
		return &models.IndexFile{Notes: []models.NoteMeta{}, Notebooks: []models.Notebook{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: load: %w", err)
	}

	var idx models.IndexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("index: parse: %w: %w", apperr.ErrSerialization, err)
	}
	if idx.Notes == nil && !hasKey(data, "notes") {
		return nil, fmt.Errorf("index: parse: %w: missing \"notes\"", apperr.ErrSerialization)
	}
	Normalize(&idx)
	return &idx, nil
}

// Save normalizes idx and replaces the index file atomically.
func (s *Store) Save(idx *models.IndexFile) error {
	if err := checkUnique(idx); err != nil {
		return err
	}
	Normalize(idx)
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("index: encode: %w: %w", apperr.ErrSerialization, err)
	}
	if err := s.fs.WriteAtomic(indexRel(), data); err != nil {
		return fmt.Errorf("index: store: %w", err)
	}
	return nil
}

// Normalize fills missing collections and enforces the set invariants:
// tags and links_to sorted and unique, links_to never holding the note's own id.
func Normalize(idx *models.IndexFile) {
	if idx.Notes == nil {
		idx.Notes = []models.NoteMeta{}
	}
	if idx.Notebooks == nil {
		idx.Notebooks = []models.Notebook{}
	}
	for i := range idx.Notes {
		n := &idx.Notes[i]
		if n.Images == nil {
			n.Images = []models.ImageRef{}
		}
		n.Tags = SortedSet(n.Tags)
		n.LinksTo = slices.DeleteFunc(SortedSet(n.LinksTo), func(id string) bool { return id == n.ID })
	}
}

// SortedSet returns the sorted, de-duplicated copy of values. It never returns nil.
func SortedSet(values []string) []string {
	out := make([]string, 0, len(values))
	out = append(out, values...)
	slices.Sort(out)
	return slices.Compact(out)
}

func checkUnique(idx *models.IndexFile) error {
	seen := make(map[string]struct{}, len(idx.Notes))
	for _, n := range idx.Notes {
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("index: %w: duplicate note id %q", apperr.ErrValidation, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(idx.Notebooks))
	for _, nb := range idx.Notebooks {
		if _, dup := seen[nb.ID]; dup {
			return fmt.Errorf("index: %w: duplicate notebook id %q", apperr.ErrValidation, nb.ID)
		}
		seen[nb.ID] = struct{}{}
	}
	return nil
}

func hasKey(data []byte, key string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return false
	}
	_, ok := raw[key]
	return ok
}
