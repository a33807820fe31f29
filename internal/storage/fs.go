package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/notekeep/internal/apperr"
)

// FS is the local filesystem backing a notekeep root.
type FS struct {
	root string // absolute path to the storage root
}

// NewFS creates an FS rooted at the given directory, creating it and the
// notes/, meta/ and images/ subdirectories when missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("storage: %w: root is not a directory: %s", apperr.ErrValidation, abs)
	}
	for _, dir := range BackupDirs {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o755); err != nil {
			return nil, fmt.Errorf("storage: mkdir %s: %w: %w", dir, apperr.ErrIO, err)
		}
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute storage root.
func (f *FS) Root() string {
	return f.root
}

// Abs turns a root-relative path built by this package into an absolute one.
// The result must stay under the root.
func (f *FS) Abs(rel string) (string, error) {
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(f.root, p)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: %w: path escapes root: %s", apperr.ErrValidation, rel)
	}
	return p, nil
}

// ReadBody returns the body of note id, or "" when no body exists yet.
func (f *FS) ReadBody(id string) (string, error) {
	data, err := f.ReadFile(BodyRel(id))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteBody replaces the body of note id. The write goes through a temporary
// file and a rename, like the index.
func (f *FS) WriteBody(id, text string) error {
	return f.WriteAtomic(BodyRel(id), []byte(text))
}

// BodyExists reports whether note id has a body file.
func (f *FS) BodyExists(id string) (bool, error) {
	return f.Exists(BodyRel(id))
}

// DeleteBody removes the body file of note id.
func (f *FS) DeleteBody(id string) error {
	abs, err := f.Abs(BodyRel(id))
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete body %s: %w: %w", id, apperr.ErrIO, err)
	}
	return nil
}

// Exists reports whether a file exists at rel.
func (f *FS) Exists(rel string) (bool, error) {
	abs, err := f.Abs(rel)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("storage: stat %s: %w: %w", rel, apperr.ErrIO, err)
	}
}

// ReadFile returns the bytes at rel. A missing file yields an error matching
// fs.ErrNotExist.
func (f *FS) ReadFile(rel string) ([]byte, error) {
	abs, err := f.Abs(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("storage: read %s: %w: %w", rel, apperr.ErrIO, err)
	}
	return data, nil
}

// WriteAtomic writes content to rel: tmp file → fsync → rename → dir fsync.
// Readers see either the old file or the new one, never a partial write.
func (f *FS) WriteAtomic(rel string, content []byte) error {
	abs, err := f.Abs(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w: %w", apperr.ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".notekeep-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w: %w", apperr.ErrIO, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w: %w", apperr.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w: %w", apperr.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w: %w", apperr.ErrIO, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w: %w", apperr.ErrIO, err)
	}
	success = true

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// ListDir returns the names of regular files directly under rel. A missing
// directory yields an empty list.
func (f *FS) ListDir(rel string) ([]string, error) {
	abs, err := f.Abs(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w: %w", rel, apperr.ErrIO, err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Remove deletes the single file at rel. A missing file is not an error.
func (f *FS) Remove(rel string) error {
	abs, err := f.Abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w: %w", rel, apperr.ErrIO, err)
	}
	return nil
}

// RemoveAll deletes rel and everything below it.
func (f *FS) RemoveAll(rel string) error {
	abs, err := f.Abs(rel)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: %w: refusing to remove the storage root", apperr.ErrValidation)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("storage: remove %s: %w: %w", rel, apperr.ErrIO, err)
	}
	return nil
}

// CopyIn copies the file at the absolute path src to rel and returns the
// number of bytes written.
func (f *FS) CopyIn(src, rel string) (int64, error) {
	abs, err := f.Abs(rel)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return 0, fmt.Errorf("storage: mkdir: %w: %w", apperr.ErrIO, err)
	}
	return copyFile(src, abs)
}

// CopyDir recursively copies the directory src into dest, creating dest when
// needed and overwriting files that already exist there.
func CopyDir(src, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w: %w", dest, apperr.ErrIO, err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("storage: read dir %s: %w: %w", src, apperr.ErrIO, err)
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dest, e.Name())
		if e.IsDir() {
			if err := CopyDir(from, to); err != nil {
				return err
			}
			continue
		}
		if _, err := copyFile(from, to); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("storage: open %s: %w: %w", src, apperr.ErrIO, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("storage: create %s: %w: %w", dest, apperr.ErrIO, err)
	}
	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("storage: copy %s: %w: %w", src, apperr.ErrIO, err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("storage: close %s: %w: %w", dest, apperr.ErrIO, err)
	}
	return n, nil
}
