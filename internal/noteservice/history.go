package noteservice

import (
	"context"

	"github.com/starford/notekeep/internal/models"
)

// ListVersions returns a note's snapshots, newest first.
func (s *Service) ListVersions(_ context.Context, id string) ([]models.VersionItem, error) {
	if err := validateNoteID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vault.List(id)
}

// GetVersion returns one snapshot by its exact saved_at.
func (s *Service) GetVersion(_ context.Context, id, savedAt string) (*models.VersionSnapshot, error) {
	if err := validateNoteID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vault.Get(id, savedAt)
}

// RestoreVersion saves a snapshot's title and body as the current content.
// The replaced content is itself snapshotted, so a restore can be undone.
func (s *Service) RestoreVersion(_ context.Context, id, savedAt string) (*models.NoteMeta, error) {
	if err := validateNoteID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.vault.Get(id, savedAt)
	if err != nil {
		return nil, err
	}
	return s.save(id, snap.Title, snap.Body)
}
