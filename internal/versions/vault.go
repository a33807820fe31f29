// Package versions keeps the bounded per-note history of prior title/body pairs.
package versions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/sandbox"
	"github.com/starford/notekeep/internal/storage"
)

const (
	// MaxPerNote is how many snapshots a note keeps; older ones are pruned.
	MaxPerNote = 30
	// PreviewLength is the number of characters kept in a listing preview.
	PreviewLength = 150

	ellipsis = "…"
	fileExt  = ".json"
)

// Vault stores snapshots under versions/<note>/.
type Vault struct {
	fs     *storage.FS
	logger *slog.Logger
}

// New creates a vault on top of a storage root.
func New(fs *storage.FS, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{fs: fs, logger: logger}
}

// Filename maps a snapshot timestamp to its file name. Colons become dashes;
// the fixed-width timestamp keeps name order equal to time order.
func Filename(savedAt string) string {
	return strings.ReplaceAll(savedAt, ":", "-") + fileExt
}

func (v *Vault) snapshotRel(noteID, savedAt string) (string, error) {
	if err := sandbox.ValidateID(savedAt); err != nil {
		return "", fmt.Errorf("versions: saved_at: %w", err)
	}
	return path.Join(storage.VersionsRel(noteID), Filename(savedAt)), nil
}

// Capture writes a snapshot and prunes the note's history to MaxPerNote.
func (v *Vault) Capture(noteID string, snap models.VersionSnapshot) error {
	rel, err := v.snapshotRel(noteID, snap.SavedAt)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("versions: encode: %w: %w", apperr.ErrSerialization, err)
	}
	if err := v.fs.WriteAtomic(rel, data); err != nil {
		return fmt.Errorf("versions: capture %s: %w", noteID, err)
	}
	return v.prune(noteID)
}

// files returns the snapshot file names of a note, newest first.
func (v *Vault) files(noteID string) ([]string, error) {
	names, err := v.fs.ListDir(storage.VersionsRel(noteID))
	if err != nil {
		return nil, fmt.Errorf("versions: list %s: %w", noteID, err)
	}
	names = slices.DeleteFunc(names, func(n string) bool {
		return !strings.HasSuffix(n, fileExt) || strings.HasPrefix(n, ".")
	})
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

func (v *Vault) prune(noteID string) error {
	names, err := v.files(noteID)
	if err != nil {
		return err
	}
	if len(names) <= MaxPerNote {
		return nil
	}
	dir := storage.VersionsRel(noteID)
	for _, name := range names[MaxPerNote:] {
		if err := v.fs.Remove(path.Join(dir, name)); err != nil {
			return fmt.Errorf("versions: prune %s: %w", noteID, err)
		}
	}
	v.logger.Debug("pruned versions",
		slog.String("note_id", noteID),
		slog.Int("removed", len(names)-MaxPerNote),
	)
	return nil
}

// List returns a note's snapshots newest first. Files that fail to parse are
// skipped.
func (v *Vault) List(noteID string) ([]models.VersionItem, error) {
	names, err := v.files(noteID)
	if err != nil {
		return nil, err
	}
	items := make([]models.VersionItem, 0, len(names))
	dir := storage.VersionsRel(noteID)
	for _, name := range names {
		data, err := v.fs.ReadFile(path.Join(dir, name))
		if err != nil {
			continue
		}
		var snap models.VersionSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			v.logger.Warn("skipping unreadable version",
				slog.String("note_id", noteID),
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, models.VersionItem{
			SavedAt:     snap.SavedAt,
			Title:       snap.Title,
			BodyPreview: Preview(snap.Body),
		})
	}
	slices.SortStableFunc(items, func(a, b models.VersionItem) int {
		return strings.Compare(b.SavedAt, a.SavedAt)
	})
	return items, nil
}

// Get returns the snapshot saved at exactly savedAt.
func (v *Vault) Get(noteID, savedAt string) (*models.VersionSnapshot, error) {
	rel, err := v.snapshotRel(noteID, savedAt)
	if err != nil {
		return nil, err
	}
	data, err := v.fs.ReadFile(rel)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("versions: %w: note %s has no version %s", apperr.ErrNotFound, noteID, savedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("versions: get: %w", err)
	}
	var snap models.VersionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("versions: parse %s: %w: %w", rel, apperr.ErrSerialization, err)
	}
	return &snap, nil
}

// Count returns the number of snapshots held for a note.
func (v *Vault) Count(noteID string) (int, error) {
	names, err := v.files(noteID)
	return len(names), err
}

// RemoveAll deletes a note's whole history.
func (v *Vault) RemoveAll(noteID string) error {
	return v.fs.RemoveAll(storage.VersionsRel(noteID))
}

// Preview truncates body to PreviewLength characters and marks the cut.
func Preview(body string) string {
	if utf8.RuneCountInString(body) <= PreviewLength {
		return body
	}
	i, n := 0, 0
	for i = range body {
		if n == PreviewLength {
			break
		}
		n++
	}
	return body[:i] + ellipsis
}
