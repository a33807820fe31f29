package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/parser"
	"github.com/starford/notekeep/internal/storage"
)

// Duplicate creates a new note titled "<title> (copy)" with the same body and
// copies of the source note's attachments.
func (s *Service) Duplicate(_ context.Context, id string) (*models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, src, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	srcImages := slices.Clone(src.Images)
	body, err := s.bodies.ReadBody(id)
	if err != nil {
		return nil, err
	}
	created, err := s.save("", strings.TrimSpace(src.Title)+" (copy)", body)
	if err != nil {
		return nil, err
	}
	if len(srcImages) == 0 {
		return created, nil
	}

	images := make([]models.ImageRef, 0, len(srcImages))
	addedAt := s.stamp()
	for _, img := range srcImages {
		from, err := s.fs.Abs(img.Path)
		if err != nil {
			continue
		}
		rel := path.Join(storage.ImagesRel(created.ID), path.Base(img.Path))
		size, err := s.fs.CopyIn(from, rel)
		if err != nil {
			s.logger.Warn("duplicate: copy attachment failed",
				slog.String("note_id", id),
				slog.String("path", img.Path),
				slog.String("error", err.Error()))
			continue
		}
		images = append(images, models.ImageRef{Name: img.Name, Path: rel, AddedAt: addedAt, Size: &size})
	}
	if len(images) == 0 {
		return created, nil
	}

	idx, n, err := s.loadNote(created.ID)
	if err != nil {
		return nil, err
	}
	n.Images = append(n.Images, images...)
	s.touch(n)
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	meta := *n
	return &meta, nil
}

type mergePart struct {
	updatedAt string
	title     string
	body      string
}

// Merge concatenates the listed notes oldest first, by updated_at, into the
// first listed note, which takes the oldest note's title. Each part becomes
// "## <title>\n\n<body>\n\n" and the result is trimmed. The other notes are
// deleted. Tags and links of the merged note are recomputed.
func (s *Service) Merge(_ context.Context, ids []string) (*models.NoteMeta, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("noteservice: %w: no notes to merge", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, keep, err := s.loadNote(ids[0])
	if err != nil {
		return nil, err
	}
	if len(ids) == 1 {
		meta := *keep
		return &meta, nil
	}

	parts := make([]mergePart, 0, len(ids))
	for _, id := range ids {
		if err := validateNoteID(id); err != nil {
			return nil, err
		}
		n, err := findNote(idx, id)
		if err != nil {
			return nil, err
		}
		body, err := s.bodies.ReadBody(id)
		if err != nil {
			return nil, err
		}
		parts = append(parts, mergePart{updatedAt: n.UpdatedAt, title: n.Title, body: body})
	}
	slices.SortStableFunc(parts, func(a, b mergePart) int {
		return strings.Compare(a.updatedAt, b.updatedAt)
	})

	var sb strings.Builder
	for _, p := range parts {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", p.title, p.body)
	}
	body := strings.TrimSpace(sb.String())

	if err := s.snapshot(keep); err != nil {
		return nil, err
	}
	keepID := keep.ID
	removed := ids[1:]
	idx.Notes = slices.DeleteFunc(idx.Notes, func(n models.NoteMeta) bool {
		return slices.Contains(removed, n.ID)
	})
	keep, _ = findNote(idx, keepID)
	keep.Title = parts[0].title
	keep.Tags = parser.Tags(keep.Title, body)
	keep.LinksTo = parser.LinksFromBody(body, idx.Notes, keepID)
	s.touch(keep)

	if err := s.writeBody(keepID, body); err != nil {
		return nil, err
	}
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	for _, id := range removed {
		s.removeNoteFiles(id)
		s.publish(EventNoteDeleted, id)
	}
	meta := *keep
	s.publish(EventNoteUpdated, keepID)
	return &meta, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
