package noteservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/parser"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ExportText renders a note as "title\n\nbody\n".
func (s *Service) ExportText(ctx context.Context, id string) (string, error) {
	c, err := s.ReadNote(ctx, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n\n%s\n", c.Meta.Title, c.Body), nil
}

// ExportMarkdown renders a note as Markdown. A frontmatter block with tags
// and timestamps is emitted only when the note has tags or was edited after
// creation.
func (s *Service) ExportMarkdown(ctx context.Context, id string) (string, error) {
	c, err := s.ReadNote(ctx, id)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if len(c.Meta.Tags) > 0 || c.Meta.CreatedAt != c.Meta.UpdatedAt {
		sb.WriteString("---\n")
		if len(c.Meta.Tags) > 0 {
			sb.WriteString("tags:\n")
			for _, t := range c.Meta.Tags {
				fmt.Fprintf(&sb, "  - %s\n", t)
			}
		}
		fmt.Fprintf(&sb, "created: %s\n", c.Meta.CreatedAt)
		fmt.Fprintf(&sb, "updated: %s\n", c.Meta.UpdatedAt)
		sb.WriteString("---\n\n")
	}
	sb.WriteString(markdownBody(c))
	return sb.String(), nil
}

func markdownBody(c *models.NoteContent) string {
	out := fmt.Sprintf("# %s\n\n%s", c.Meta.Title, c.Body)
	if !strings.HasSuffix(c.Body, "\n") {
		out += "\n"
	}
	return out
}

// ExportHTML renders the note heading and body as GitHub-flavored HTML.
func (s *Service) ExportHTML(ctx context.Context, id string) (string, error) {
	c, err := s.ReadNote(ctx, id)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(markdownBody(c)), &buf); err != nil {
		return "", fmt.Errorf("noteservice: render html: %w", err)
	}
	return buf.String(), nil
}

// WriteTextFile writes text to an arbitrary path chosen by the user, creating
// parent directories. Directories are refused.
func WriteTextFile(path, text string) error {
	if err := validation.Validate(path, validation.Required); err != nil {
		return fmt.Errorf("noteservice: %w: path %v", apperr.ErrValidation, err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("noteservice: %w: %s is a directory", apperr.ErrValidation, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("noteservice: mkdir: %w: %w", apperr.ErrIO, err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("noteservice: write %s: %w: %w", path, apperr.ErrIO, err)
	}
	return nil
}

// ImportMarkdown creates a note from a Markdown file. Frontmatter is dropped
// from the body; its tags are added to the derived ones.
func (s *Service) ImportMarkdown(_ context.Context, path string) (*models.NoteMeta, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("noteservice: %w: %s", apperr.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("noteservice: read %s: %w: %w", path, apperr.ErrIO, err)
	}
	doc := parser.ParseMarkdown(path, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.save("", doc.Title, doc.Body)
	if err != nil || len(doc.Tags) == 0 {
		return meta, err
	}
	idx, n, err := s.loadNote(meta.ID)
	if err != nil {
		return nil, err
	}
	n.Tags = append(n.Tags, doc.Tags...)
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	out := *n
	return &out, nil
}
