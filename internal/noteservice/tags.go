package noteservice

import (
	"context"
	"slices"
	"strings"

	"github.com/starford/notekeep/internal/index"
	"github.com/starford/notekeep/internal/models"
)

// ListTags returns every tag used by any note, sorted and unique.
func (s *Service) ListTags(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	var all []string
	for _, n := range idx.Notes {
		all = append(all, n.Tags...)
	}
	return index.SortedSet(all), nil
}

// NotesByTag returns the notes carrying exactly tag, in index order.
func (s *Service) NotesByTag(_ context.Context, tag string) ([]models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	out := []models.NoteMeta{}
	for _, n := range idx.Notes {
		if slices.Contains(n.Tags, tag) {
			out = append(out, n)
		}
	}
	return out, nil
}

// AddTagToNotes adds tag to every listed note that lacks it and returns those
// notes. A blank tag or an empty id list changes nothing.
func (s *Service) AddTagToNotes(_ context.Context, ids []string, tag string) ([]models.NoteMeta, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return []models.NoteMeta{}, nil
	}
	return s.mutateMany(ids, func(n *models.NoteMeta) bool {
		if slices.Contains(n.Tags, tag) {
			return false
		}
		n.Tags = index.SortedSet(append(n.Tags, tag))
		return true
	})
}

// RemoveTagFromNote drops tag from one note.
func (s *Service) RemoveTagFromNote(_ context.Context, id, tag string) (*models.NoteMeta, error) {
	return s.mutateNote(id, func(n *models.NoteMeta) error {
		n.Tags = slices.DeleteFunc(n.Tags, func(t string) bool { return t == tag })
		return nil
	})
}
