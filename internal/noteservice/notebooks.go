package noteservice

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/sandbox"
)

func validateNotebookName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.RuneLength(1, sandbox.MaxNameLength),
	)
	if err != nil {
		return fmt.Errorf("noteservice: %w: notebook name %v", apperr.ErrValidation, err)
	}
	return nil
}

func validateNotebookID(id string) error {
	if err := sandbox.ValidateID(id); err != nil {
		return fmt.Errorf("noteservice: notebook id: %w", err)
	}
	return nil
}

// ListNotebooks returns active notebooks before archived ones, each group
// ordered by creation time.
func (s *Service) ListNotebooks(_ context.Context) ([]models.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	out := slices.Clone(idx.Notebooks)
	slices.SortStableFunc(out, func(a, b models.Notebook) int {
		if a.Archived != b.Archived {
			if a.Archived {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.CreatedAt, b.CreatedAt)
	})
	return nonNil(out), nil
}

// CreateNotebook adds a notebook with a trimmed, non-empty name.
func (s *Service) CreateNotebook(_ context.Context, name string) (*models.Notebook, error) {
	name = strings.TrimSpace(name)
	if err := validateNotebookName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	nb := models.Notebook{ID: newID(), Name: name, CreatedAt: s.stamp()}
	idx.Notebooks = append(idx.Notebooks, nb)
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	s.publish(EventNotebookChanged, nb.ID)
	return &nb, nil
}

// MoveNote files a note under notebookID, or unfiles it when notebookID is
// empty. The notebook must exist.
func (s *Service) MoveNote(_ context.Context, id, notebookID string) (*models.NoteMeta, error) {
	if notebookID != "" {
		if err := validateNotebookID(notebookID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, n, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	if notebookID == "" {
		n.NotebookID = nil
	} else {
		if _, err := findNotebook(idx, notebookID); err != nil {
			return nil, err
		}
		n.NotebookID = ptr(notebookID)
	}
	return s.storeNote(idx, n)
}

// ArchiveNotebook sets or clears the archived flag.
func (s *Service) ArchiveNotebook(_ context.Context, id string, archived bool) (*models.Notebook, error) {
	return s.mutateNotebook(id, func(nb *models.Notebook) { nb.Archived = archived })
}

// RenameNotebook changes a notebook's name.
func (s *Service) RenameNotebook(_ context.Context, id, name string) (*models.Notebook, error) {
	name = strings.TrimSpace(name)
	if err := validateNotebookName(name); err != nil {
		return nil, err
	}
	return s.mutateNotebook(id, func(nb *models.Notebook) { nb.Name = name })
}

func (s *Service) mutateNotebook(id string, fn func(nb *models.Notebook)) (*models.Notebook, error) {
	if err := validateNotebookID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	nb, err := findNotebook(idx, id)
	if err != nil {
		return nil, err
	}
	fn(nb)
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	out := *nb
	s.publish(EventNotebookChanged, id)
	return &out, nil
}
