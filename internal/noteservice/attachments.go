package noteservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/sandbox"
	"github.com/starford/notekeep/internal/storage"
)

const (
	defaultPasteStem = "paste"
	defaultPasteExt  = "png"
)

// storedName builds "<millis>-<sanitized stem>[.<ext>]" and makes it unique
// inside dir.
func (s *Service) storedName(dir, stem, ext string) (string, error) {
	base := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sandbox.Sanitize(stem))
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		if ext != "" {
			name += "." + ext
		}
		exists, err := s.fs.Exists(path.Join(dir, name))
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
	}
}

func splitName(name string) (stem, ext string) {
	base := filepath.Base(name)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext), strings.TrimPrefix(ext, ".")
}

// AttachImages copies files into the note's attachment directory. Paths that
// are not regular files, or fail to copy, are skipped.
func (s *Service) AttachImages(_ context.Context, id string, paths []string) (*models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, n, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	dir := storage.ImagesRel(id)
	addedAt := s.stamp()
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		stem, ext := splitName(p)
		if stem == "" {
			stem = "file"
		}
		name, err := s.storedName(dir, stem, ext)
		if err != nil {
			return nil, err
		}
		rel := path.Join(dir, name)
		size, err := s.fs.CopyIn(p, rel)
		if err != nil {
			s.logger.Warn("attach: copy failed", slog.String("note_id", id), slog.String("source", p), slog.String("error", err.Error()))
			continue
		}
		n.Images = append(n.Images, models.ImageRef{
			Name:    filepath.Base(p),
			Path:    rel,
			AddedAt: addedAt,
			Size:    &size,
		})
	}
	return s.storeNote(idx, n)
}

// AttachImageData stores base64-encoded image bytes, e.g. from the clipboard.
// suggestedName supplies the display name and extension; a missing stem
// becomes "paste" and a missing extension "png".
func (s *Service) AttachImageData(_ context.Context, id, data, suggestedName string) (*models.NoteMeta, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("noteservice: %w: invalid base64 image: %v", apperr.ErrValidation, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("noteservice: %w: image data is empty", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, n, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	stem, ext := splitName(suggestedName)
	if stem == "" || stem == "." {
		stem = defaultPasteStem
	}
	if ext == "" {
		ext = defaultPasteExt
	}
	dir := storage.ImagesRel(id)
	name, err := s.storedName(dir, stem, strings.ToLower(ext))
	if err != nil {
		return nil, err
	}
	rel := path.Join(dir, name)
	if err := s.fs.WriteAtomic(rel, raw); err != nil {
		return nil, err
	}
	display := filepath.Base(suggestedName)
	if strings.TrimSpace(suggestedName) == "" {
		display = defaultPasteStem
	}
	size := int64(len(raw))
	n.Images = append(n.Images, models.ImageRef{Name: display, Path: rel, AddedAt: s.stamp(), Size: &size})
	return s.storeNote(idx, n)
}

// RemoveAttachment detaches relPath from the note and deletes the file.
// Only paths the note references are deleted from disk.
func (s *Service) RemoveAttachment(_ context.Context, id, relPath string) (*models.NoteMeta, error) {
	if _, err := sandbox.ResolveUnderRoot(s.fs.Root(), relPath); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, n, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	before := len(n.Images)
	n.Images = slices.DeleteFunc(n.Images, func(img models.ImageRef) bool { return img.Path == relPath })
	if len(n.Images) != before {
		if err := s.fs.Remove(relPath); err != nil {
			s.logger.Warn("attach: remove file failed", slog.String("note_id", id), slog.String("path", relPath), slog.String("error", err.Error()))
		}
	}
	return s.storeNote(idx, n)
}

// RenameAttachment changes the display name of an attachment. The stored
// file keeps its name.
func (s *Service) RenameAttachment(_ context.Context, id, relPath, name string) (*models.NoteMeta, error) {
	if _, err := sandbox.ResolveUnderRoot(s.fs.Root(), relPath); err != nil {
		return nil, err
	}
	name = sandbox.Sanitize(name)
	if err := validation.Validate(name, validation.Required); err != nil {
		return nil, fmt.Errorf("noteservice: %w: attachment name %v", apperr.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, n, err := s.loadNote(id)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(n.Images, func(img models.ImageRef) bool { return img.Path == relPath })
	if i < 0 {
		return nil, fmt.Errorf("noteservice: %w: attachment %s", apperr.ErrNotFound, relPath)
	}
	n.Images[i].Name = name
	return s.storeNote(idx, n)
}

// ResolveImagePath maps an attachment path to an absolute path under the root.
func (s *Service) ResolveImagePath(relPath string) (string, error) {
	return sandbox.ResolveUnderRoot(s.fs.Root(), relPath)
}

// storeNote bumps n's updated_at and persists the index.
func (s *Service) storeNote(idx *models.IndexFile, n *models.NoteMeta) (*models.NoteMeta, error) {
	s.touch(n)
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	meta := *n
	s.publish(EventNoteUpdated, n.ID)
	return &meta, nil
}
