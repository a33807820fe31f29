package noteservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/storage"
)

func syncConfigRel() string {
	return storage.MetaRel(storage.SyncConfigFile)
}

// readSyncConfig treats a missing or unreadable file as "no folder set".
func (s *Service) readSyncConfig() models.SyncConfig {
	var cfg models.SyncConfig
	data, err := s.fs.ReadFile(syncConfigRel())
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("sync config unreadable, treating as unset", slog.String("error", err.Error()))
		return models.SyncConfig{}
	}
	return cfg
}

// GetSyncFolder returns the configured sync folder, or nil.
func (s *Service) GetSyncFolder(_ context.Context) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readSyncConfig().SyncFolder, nil
}

// SetSyncFolder records the sync folder; nil clears it. Nothing is synced.
func (s *Service) SetSyncFolder(_ context.Context, folder *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.readSyncConfig()
	cfg.SyncFolder = folder
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("noteservice: encode sync config: %w: %w", apperr.ErrSerialization, err)
	}
	return s.fs.WriteAtomic(syncConfigRel(), data)
}

// ExportBackup copies notes/, meta/ and images/ into dir.
func (s *Service) ExportBackup(_ context.Context, dir string) error {
	if err := validation.Validate(dir, validation.Required); err != nil {
		return fmt.Errorf("noteservice: %w: backup dir %v", apperr.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return mirror(s.fs.Root(), dir)
}

// ImportBackup copies notes/, meta/ and images/ from dir over the storage
// root, overwriting existing files. There is no rollback if a copy fails.
func (s *Service) ImportBackup(_ context.Context, dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return fmt.Errorf("noteservice: %w: backup directory %s", apperr.ErrNotFound, dir)
	}
	if err != nil {
		return fmt.Errorf("noteservice: stat %s: %w: %w", dir, apperr.ErrIO, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := mirror(dir, s.fs.Root()); err != nil {
		return err
	}
	clear(s.known)
	s.publish(EventIndexReplaced, "")
	return nil
}

func mirror(from, to string) error {
	for _, d := range storage.BackupDirs {
		src := filepath.Join(from, d)
		dest := filepath.Join(to, d)
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("noteservice: mkdir %s: %w: %w", dest, apperr.ErrIO, err)
			}
			continue
		}
		if err := storage.CopyDir(src, dest); err != nil {
			return err
		}
	}
	return nil
}
