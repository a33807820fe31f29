package noteservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/storage"
)

const (
	customTemplatePrefix = "custom-"
	untitled             = "Untitled"
)

func ptr[T any](v T) *T { return &v }

var builtinTemplates = []models.NoteTemplate{
	{
		ID:                  "daily-journal",
		Name:                "Daily Journal",
		Body:                "# Daily Journal — {{date}}\n\n## What happened today\n- \n\n## Thoughts & reflections\n- \n\n## Tomorrow\n- \n",
		DefaultTitlePattern: ptr("Journal {{date}}"),
	},
	{
		ID:                  "meeting-notes",
		Name:                "Meeting Notes",
		Body:                "# Meeting: {{title}}\n\n**Date:** {{date}}\n**Attendees:** \n**Agenda:**\n- \n\n**Notes:**\n- \n\n**Action items:**\n- [ ] \n- [ ] \n",
		DefaultTitlePattern: ptr("Meeting {{date}}"),
	},
	{
		ID:                  "project-planning",
		Name:                "Project Planning",
		Body:                "# Project: {{title}}\n\n## Overview\n- **Goal:** \n- **Timeline:** \n\n## Tasks\n- [ ] \n- [ ] \n\n## Notes\n- \n",
		DefaultTitlePattern: ptr("Project"),
	},
}

// BuiltinTemplates returns a copy of the compiled-in templates.
func BuiltinTemplates() []models.NoteTemplate {
	return slices.Clone(builtinTemplates)
}

// ApplyPlaceholders resolves {{date}} in the title, then substitutes
// {{date}} and the resolved {{title}} in the body.
func ApplyPlaceholders(body, title, date string) (string, string) {
	title = strings.ReplaceAll(title, "{{date}}", date)
	r := strings.NewReplacer("{{date}}", date, "{{title}}", title)
	return r.Replace(body), title
}

func templatesRel() string {
	return storage.MetaRel(storage.TemplatesFile)
}

func (s *Service) readCustomTemplates() ([]models.NoteTemplate, error) {
	data, err := s.fs.ReadFile(templatesRel())
	if errors.Is(err, fs.ErrNotExist) {
		return []models.NoteTemplate{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []models.NoteTemplate
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("noteservice: parse templates: %w: %w", apperr.ErrSerialization, err)
	}
	return nonNil(out), nil
}

func (s *Service) writeCustomTemplates(list []models.NoteTemplate) error {
	data, err := json.MarshalIndent(nonNil(list), "", "  ")
	if err != nil {
		return fmt.Errorf("noteservice: encode templates: %w: %w", apperr.ErrSerialization, err)
	}
	return s.fs.WriteAtomic(templatesRel(), data)
}

// ListTemplates returns the built-in templates followed by the custom ones.
func (s *Service) ListTemplates(_ context.Context) ([]models.NoteTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.readCustomTemplates()
	if err != nil {
		return nil, err
	}
	return append(BuiltinTemplates(), custom...), nil
}

// CreateFromTemplate creates a note from a template. A blank title falls back
// to the template's default title pattern, then to "Untitled".
func (s *Service) CreateFromTemplate(_ context.Context, templateID, title string) (*models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.readCustomTemplates()
	if err != nil {
		return nil, err
	}
	all := append(BuiltinTemplates(), custom...)
	i := slices.IndexFunc(all, func(t models.NoteTemplate) bool { return t.ID == templateID })
	if i < 0 {
		return nil, fmt.Errorf("noteservice: %w: template %s", apperr.ErrNotFound, templateID)
	}
	t := all[i]

	title = strings.TrimSpace(title)
	if title == "" && t.DefaultTitlePattern != nil {
		title = strings.TrimSpace(*t.DefaultTitlePattern)
	}
	if title == "" {
		title = untitled
	}
	body, title := ApplyPlaceholders(t.Body, title, s.today())
	return s.save("", title, body)
}

// SaveCustomTemplate stores a new custom template; its name doubles as the
// default title pattern.
func (s *Service) SaveCustomTemplate(_ context.Context, name, body string) (*models.NoteTemplate, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required); err != nil {
		return nil, fmt.Errorf("noteservice: %w: template name %v", apperr.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.readCustomTemplates()
	if err != nil {
		return nil, err
	}
	t := models.NoteTemplate{
		ID:                  customTemplatePrefix + newID(),
		Name:                name,
		Body:                body,
		DefaultTitlePattern: ptr(name),
		IsCustom:            true,
	}
	if err := s.writeCustomTemplates(append(custom, t)); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteCustomTemplate removes a custom template. Built-ins cannot be deleted.
func (s *Service) DeleteCustomTemplate(_ context.Context, templateID string) error {
	if !strings.HasPrefix(templateID, customTemplatePrefix) {
		return fmt.Errorf("noteservice: %w: only custom templates can be deleted", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.readCustomTemplates()
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(custom, func(t models.NoteTemplate) bool { return t.ID == templateID })
	if len(kept) == len(custom) {
		return fmt.Errorf("noteservice: %w: template %s", apperr.ErrNotFound, templateID)
	}
	return s.writeCustomTemplates(kept)
}
