// Package watcher re-annotates notes whose body files are edited outside
// the service, e.g. by a text editor or a sync client.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when the configured debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Annotator is the part of the note service the watcher drives.
type Annotator interface {
	NoteIDForBody(name string) (string, bool)
	Reannotate(ctx context.Context, id string) (bool, error)
}

// Watch observes notesDir until ctx is cancelled. Body file changes are
// collected over the debounce window and then handed to svc.Reannotate.
// Removed body files are only logged; the index stays authoritative.
func Watch(ctx context.Context, notesDir string, svc Annotator, debounce time.Duration, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer w.Close()

	if err := w.Add(notesDir); err != nil {
		return fmt.Errorf("watcher: add %s: %w", notesDir, err)
	}
	logger.Info("watcher: started", slog.String("dir", notesDir))

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		pending = make(map[string]struct{})
		mu.Unlock()

		for _, name := range names {
			process(ctx, svc, name, logger)
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !isBodyFile(name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
				mu.Lock()
				pending[name] = struct{}{}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, flush)
				mu.Unlock()
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				logger.Debug("watcher: body file gone", slog.String("file", name))
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

func isBodyFile(name string) bool {
	return strings.HasSuffix(name, ".txt") && !strings.HasPrefix(name, ".")
}

func process(ctx context.Context, svc Annotator, name string, logger *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	id, ok := svc.NoteIDForBody(name)
	if !ok {
		logger.Debug("watcher: body without note", slog.String("file", name))
		return
	}
	changed, err := svc.Reannotate(ctx, id)
	if err != nil {
		logger.Warn("watcher: re-annotate failed", slog.String("note_id", id), slog.String("error", err.Error()))
		return
	}
	if changed {
		logger.Debug("watcher: re-annotated", slog.String("note_id", id))
	}
}
