// Package noteservice is the storage API of a notekeep root: every note,
// tag, version, attachment, template, notebook and backup operation.
//
// Each mutation runs load index → mutate → store index under one mutex, so
// concurrent callers in the same process never lose an update.
package noteservice

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/checksum"
	"github.com/starford/notekeep/internal/index"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/sandbox"
	"github.com/starford/notekeep/internal/storage"
	"github.com/starford/notekeep/internal/versions"
)

// TimeLayout is the fixed-width UTC timestamp format of every stored time.
// Equal widths keep string order equal to time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

const dayLayout = "2006-01-02"

// Event kinds passed to a Publisher.
const (
	EventNoteCreated     = "note.created"
	EventNoteUpdated     = "note.updated"
	EventNoteDeleted     = "note.deleted"
	EventNotebookChanged = "notebook.changed"
	EventIndexReplaced   = "index.replaced"
)

// Publisher receives a notification after each successful mutation.
type Publisher interface {
	PublishChange(kind, id string)
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPublisher registers a change listener.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// Service coordinates the index, note bodies and version history.
type Service struct {
	mu sync.Mutex

	fs     *storage.FS
	bodies storage.Provider
	index  index.NoteIndex
	vault  *versions.Vault

	clock  Clock
	logger *slog.Logger
	events Publisher

	// known holds the checksum of each body as last written or read here.
	known map[string]string
}

// NewService creates a service over a storage root.
func NewService(fs *storage.FS, opts ...Option) *Service {
	s := &Service{
		fs:     fs,
		bodies: fs,
		index:  index.NewStore(fs),
		clock:  time.Now,
		logger: slog.Default(),
		known:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.vault = versions.New(fs, s.logger)
	return s
}

// Root returns the absolute storage root.
func (s *Service) Root() string { return s.fs.Root() }

// Init writes an empty index when none exists yet.
func (s *Service) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.index.Exists()
	if err != nil || ok {
		return err
	}
	return s.index.Save(&models.IndexFile{})
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *Service) stamp() string {
	return s.now().Format(TimeLayout)
}

func (s *Service) today() string {
	return s.now().Format(dayLayout)
}

// nextStamp returns the current time, or one microsecond past prev when the
// clock has not moved beyond it.
func (s *Service) nextStamp(prev string) string {
	now := s.now()
	if p, err := time.Parse(time.RFC3339Nano, prev); err == nil && !now.After(p.UTC()) {
		now = p.UTC().Add(time.Microsecond)
	}
	return now.Format(TimeLayout)
}

func (s *Service) touch(n *models.NoteMeta) {
	n.UpdatedAt = s.nextStamp(n.UpdatedAt)
}

func (s *Service) publish(kind, id string) {
	if s.events != nil {
		s.events.PublishChange(kind, id)
	}
}

func newID() string {
	return uuid.NewString()
}

func validateNoteID(id string) error {
	if err := sandbox.ValidateID(id); err != nil {
		return fmt.Errorf("noteservice: note id: %w", err)
	}
	return nil
}

// claimID rejects a caller-chosen id for a new note when its file name is
// unusable or already belongs to another note.
func claimID(idx *models.IndexFile, id string) error {
	name := sandbox.Sanitize(id)
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("noteservice: note id %q: %w: no usable file name", id, apperr.ErrValidation)
	}
	for _, n := range idx.Notes {
		if sandbox.Sanitize(n.ID) == name {
			return fmt.Errorf("noteservice: note id %q: %w: file name taken by note %s", id, apperr.ErrValidation, n.ID)
		}
	}
	return nil
}

func findNote(idx *models.IndexFile, id string) (*models.NoteMeta, error) {
	i := idx.FindNote(id)
	if i < 0 {
		return nil, fmt.Errorf("noteservice: %w: note %s", apperr.ErrNotFound, id)
	}
	return &idx.Notes[i], nil
}

func findNotebook(idx *models.IndexFile, id string) (*models.Notebook, error) {
	i := idx.FindNotebook(id)
	if i < 0 {
		return nil, fmt.Errorf("noteservice: %w: notebook %s", apperr.ErrNotFound, id)
	}
	return &idx.Notebooks[i], nil
}

// loadNote loads the index and locates id in it.
func (s *Service) loadNote(id string) (*models.IndexFile, *models.NoteMeta, error) {
	if err := validateNoteID(id); err != nil {
		return nil, nil, err
	}
	idx, err := s.index.Load()
	if err != nil {
		return nil, nil, err
	}
	n, err := findNote(idx, id)
	if err != nil {
		return nil, nil, err
	}
	return idx, n, nil
}

func (s *Service) writeBody(id, body string) error {
	if err := s.bodies.WriteBody(id, body); err != nil {
		return err
	}
	s.known[id] = checksum.Sum([]byte(body))
	return nil
}

// removeNoteFiles deletes the body, attachments and history of a note that is
// no longer in the index. Failures are logged and otherwise ignored.
func (s *Service) removeNoteFiles(id string) {
	delete(s.known, id)
	if sandbox.Sanitize(id) == "" {
		return
	}
	if err := s.bodies.DeleteBody(id); err != nil {
		s.logger.Warn("cleanup: remove body failed", slog.String("note_id", id), slog.String("error", err.Error()))
	}
	if err := s.fs.RemoveAll(storage.ImagesRel(id)); err != nil {
		s.logger.Warn("cleanup: remove images failed", slog.String("note_id", id), slog.String("error", err.Error()))
	}
	if err := s.vault.RemoveAll(id); err != nil {
		s.logger.Warn("cleanup: remove versions failed", slog.String("note_id", id), slog.String("error", err.Error()))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
