package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/checksum"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/parser"
	"github.com/starford/notekeep/internal/query"
	"github.com/starford/notekeep/internal/storage"
)

// ListNotes returns every note in index order.
func (s *Service) ListNotes(_ context.Context) ([]models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	return idx.Notes, nil
}

// ReadNote returns a note's metadata and body.
func (s *Service) ReadNote(_ context.Context, id string) (*models.NoteContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, n, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	body, err := s.bodies.ReadBody(id)
	if err != nil {
		return nil, err
	}
	s.known[id] = checksum.Sum([]byte(body))
	return &models.NoteContent{Meta: *n, Body: body}, nil
}

// BodyChecksum returns the SHA-256 of a note's current body.
func (s *Service) BodyChecksum(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := s.loadNote(id); err != nil {
		return "", err
	}
	body, err := s.bodies.ReadBody(id)
	if err != nil {
		return "", err
	}
	return checksum.Sum([]byte(body)), nil
}

// SaveNote creates or updates a note. An empty id creates a note with a new
// id; an unknown id creates a note under that id. Updating a note whose body
// is on disk first snapshots the current title and body. Tags and links are
// recomputed from title and body and replace the previous sets.
func (s *Service) SaveNote(_ context.Context, id, title, body string) (*models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(id, title, body)
}

// SaveNoteIfMatch updates an existing note only when its current body
// checksum equals expected. An empty expected value skips the check.
func (s *Service) SaveNoteIfMatch(_ context.Context, id, title, body, expected string) (*models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := s.loadNote(id); err != nil {
		return nil, err
	}
	if expected != "" {
		current, err := s.bodies.ReadBody(id)
		if err != nil {
			return nil, err
		}
		if checksum.Sum([]byte(current)) != expected {
			return nil, fmt.Errorf("noteservice: save %s: %w", id, apperr.ErrConflict)
		}
	}
	return s.save(id, title, body)
}

func (s *Service) save(id, title, body string) (*models.NoteMeta, error) {
	if id != "" {
		if err := validateNoteID(id); err != nil {
			return nil, err
		}
	}
	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}

	tags := parser.Tags(title, body)
	links := parser.LinksFromBody(body, idx.Notes, id)

	kind := EventNoteUpdated
	var n *models.NoteMeta
	if i := idx.FindNote(id); id != "" && i >= 0 {
		n = &idx.Notes[i]
		if err := s.snapshot(n); err != nil {
			return nil, err
		}
		n.Title = title
		s.touch(n)
	} else {
		if id == "" {
			id = newID()
		} else if err := claimID(idx, id); err != nil {
			return nil, err
		}
		kind = EventNoteCreated
		now := s.stamp()
		idx.Notes = append(idx.Notes, models.NoteMeta{
			ID:        id,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
			Filename:  storage.BodyFilename(id),
			Images:    []models.ImageRef{},
		})
		n = &idx.Notes[len(idx.Notes)-1]
	}
	n.Tags = tags
	n.LinksTo = links

	if err := s.writeBody(id, body); err != nil {
		return nil, err
	}
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	meta := *n
	s.publish(kind, id)
	return &meta, nil
}

// snapshot captures the stored title and body of n before they are replaced.
// Notes without a body file have nothing to capture.
func (s *Service) snapshot(n *models.NoteMeta) error {
	exists, err := s.bodies.BodyExists(n.ID)
	if err != nil || !exists {
		return err
	}
	current, err := s.bodies.ReadBody(n.ID)
	if err != nil {
		return err
	}
	return s.vault.Capture(n.ID, models.VersionSnapshot{
		SavedAt: n.UpdatedAt,
		Title:   n.Title,
		Body:    current,
	})
}

// UpdateTitle changes only the title. Tags and links keep their values until
// the next save.
func (s *Service) UpdateTitle(_ context.Context, id, title string) (*models.NoteMeta, error) {
	return s.mutateNote(id, func(n *models.NoteMeta) error {
		n.Title = title
		return nil
	})
}

// ToggleImportant sets the starred flag of a note.
func (s *Service) ToggleImportant(_ context.Context, id string, important bool) (*models.NoteMeta, error) {
	return s.mutateNote(id, func(n *models.NoteMeta) error {
		n.Important = important
		return nil
	})
}

// mutateNote applies fn to one note, bumps updated_at and stores the index.
func (s *Service) mutateNote(id string, fn func(n *models.NoteMeta) error) (*models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, n, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	if err := fn(n); err != nil {
		return nil, err
	}
	return s.storeNote(idx, n)
}

// DeleteNote removes a note from the index, then its body, attachments and
// history on a best-effort basis.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, _, err := s.loadNote(id)
	if err != nil {
		return err
	}
	i := idx.FindNote(id)
	idx.Notes = slices.Delete(idx.Notes, i, i+1)
	if err := s.index.Save(idx); err != nil {
		return err
	}
	s.removeNoteFiles(id)
	s.publish(EventNoteDeleted, id)
	return nil
}

// BatchDelete removes several notes with one index write. All ids are
// validated before anything changes; ids not in the index are ignored.
func (s *Service) BatchDelete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if err := validateNoteID(id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return err
	}
	var removed []string
	idx.Notes = slices.DeleteFunc(idx.Notes, func(n models.NoteMeta) bool {
		if slices.Contains(ids, n.ID) {
			removed = append(removed, n.ID)
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return nil
	}
	if err := s.index.Save(idx); err != nil {
		return err
	}
	for _, id := range removed {
		s.removeNoteFiles(id)
		s.publish(EventNoteDeleted, id)
	}
	return nil
}

// BatchSetImportant sets the starred flag on every listed note that exists and
// returns the notes it changed.
func (s *Service) BatchSetImportant(_ context.Context, ids []string, important bool) ([]models.NoteMeta, error) {
	return s.mutateMany(ids, func(n *models.NoteMeta) bool {
		n.Important = important
		return true
	})
}

// mutateMany applies fn to each listed note; notes for which fn returns false
// are left untouched. Unknown ids are skipped.
func (s *Service) mutateMany(ids []string, fn func(n *models.NoteMeta) bool) ([]models.NoteMeta, error) {
	affected := []models.NoteMeta{}
	if len(ids) == 0 {
		return affected, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	var changed []int
	for i := range idx.Notes {
		n := &idx.Notes[i]
		if !slices.Contains(ids, n.ID) || !fn(n) {
			continue
		}
		s.touch(n)
		changed = append(changed, i)
	}
	if len(changed) == 0 {
		return affected, nil
	}
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	for _, i := range changed {
		affected = append(affected, idx.Notes[i])
		s.publish(EventNoteUpdated, idx.Notes[i].ID)
	}
	return affected, nil
}

// Reannotate recomputes the tags and links of a note from its body on disk
// when that body differs from the last one this service wrote or read. It
// reports whether the note changed. Unknown notes are ignored.
func (s *Service) Reannotate(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateNoteID(id); err != nil {
		return false, err
	}
	idx, err := s.index.Load()
	if err != nil {
		return false, err
	}
	n, err := findNote(idx, id)
	if err != nil {
		return false, nil
	}
	body, err := s.bodies.ReadBody(id)
	if err != nil {
		return false, err
	}
	sum := checksum.Sum([]byte(body))
	if s.known[id] == sum {
		return false, nil
	}
	n.Tags = parser.Tags(n.Title, body)
	n.LinksTo = parser.LinksFromBody(body, idx.Notes, id)
	s.touch(n)
	if err := s.index.Save(idx); err != nil {
		return false, err
	}
	s.known[id] = sum
	s.logger.Info("note re-annotated after external edit", slog.String("note_id", id))
	s.publish(EventNoteUpdated, id)
	return true, nil
}

// NoteIDForBody maps a body file name in notes/ back to a note id.
func (s *Service) NoteIDForBody(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return "", false
	}
	for _, n := range idx.Notes {
		if storage.BodyFilename(n.ID) == name {
			return n.ID, true
		}
	}
	return "", false
}

// Search evaluates a query against the index, reading bodies on demand.
func (s *Service) Search(_ context.Context, q string) ([]models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	res, err := query.Search(idx.Notes, q, s.now(), s.bodies.ReadBody)
	if err != nil {
		return nil, fmt.Errorf("noteservice: search: %w", err)
	}
	return res, nil
}

// Backlinks returns the notes whose links point at id. id need not exist.
func (s *Service) Backlinks(_ context.Context, id string) ([]models.NoteMeta, error) {
	if err := validateNoteID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	out := []models.NoteMeta{}
	for _, n := range idx.Notes {
		if slices.Contains(n.LinksTo, id) {
			out = append(out, n)
		}
	}
	return out, nil
}
