package noteservice

import (
	"context"

	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/storage"
)

const dailyBody = "# daily\n"

// DailyNote returns today's daily note, creating it on first use. The title is
// the UTC date.
func (s *Service) DailyNote(_ context.Context) (*models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	today := s.today()
	for _, n := range idx.Notes {
		if n.IsDaily && n.Title == today {
			return &n, nil
		}
	}

	id := newID()
	now := s.stamp()
	meta := models.NoteMeta{
		ID:        id,
		Title:     today,
		CreatedAt: now,
		UpdatedAt: now,
		Filename:  storage.BodyFilename(id),
		Images:    []models.ImageRef{},
		Tags:      []string{"daily"},
		LinksTo:   []string{},
		IsDaily:   true,
	}
	if err := s.writeBody(id, dailyBody); err != nil {
		return nil, err
	}
	idx.Notes = append(idx.Notes, meta)
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	s.publish(EventNoteCreated, id)
	return &meta, nil
}
