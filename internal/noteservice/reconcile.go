package noteservice

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/notekeep/internal/checksum"
	"github.com/starford/notekeep/internal/parser"
	"github.com/starford/notekeep/internal/storage"
)

// ReconcileReport summarizes a Reconcile pass.
type ReconcileReport struct {
	Checked      int      `json:"checked"`
	Updated      []string `json:"updated"`
	MissingBody  []string `json:"missingBody"`
	OrphanBodies []string `json:"orphanBodies"`
}

// Reconcile brings derived metadata up to date with bodies edited while no
// service was running. Links are recomputed from each body; derived tags
// missing from a note are added while manually added tags are kept. Notes
// without a body file and body files without a note are reported only, the
// index stays authoritative. The body checksums seen here become the
// baseline for later re-annotation.
func (s *Service) Reconcile(_ context.Context) (*ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.index.Load()
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{Updated: []string{}, MissingBody: []string{}, OrphanBodies: []string{}}
	owned := make(map[string]struct{}, len(idx.Notes))

	var changed []int
	for i := range idx.Notes {
		n := &idx.Notes[i]
		owned[storage.BodyFilename(n.ID)] = struct{}{}
		report.Checked++

		exists, err := s.bodies.BodyExists(n.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			report.MissingBody = append(report.MissingBody, n.ID)
			s.logger.Warn("reconcile: body file missing", slog.String("note_id", n.ID))
			continue
		}
		body, err := s.bodies.ReadBody(n.ID)
		if err != nil {
			s.logger.Warn("reconcile: read failed", slog.String("note_id", n.ID), slog.String("error", err.Error()))
			continue
		}
		s.known[n.ID] = checksum.Sum([]byte(body))

		links := parser.LinksFromBody(body, idx.Notes, n.ID)
		tags := mergeTags(n.Tags, parser.Tags(n.Title, body))
		if slices.Equal(links, nonNil(n.LinksTo)) && slices.Equal(tags, nonNil(n.Tags)) {
			continue
		}
		n.LinksTo = links
		n.Tags = tags
		s.touch(n)
		changed = append(changed, i)
	}

	names, err := s.fs.ListDir(storage.NotesDir)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		if _, ok := owned[name]; !ok {
			report.OrphanBodies = append(report.OrphanBodies, name)
			s.logger.Debug("reconcile: body without note", slog.String("file", name))
		}
	}

	if len(changed) == 0 {
		return report, nil
	}
	if err := s.index.Save(idx); err != nil {
		return nil, err
	}
	for _, i := range changed {
		id := idx.Notes[i].ID
		report.Updated = append(report.Updated, id)
		s.publish(EventNoteUpdated, id)
	}
	s.logger.Info("reconcile: notes updated", slog.Int("count", len(changed)))
	return report, nil
}

// mergeTags returns the sorted union of current and derived.
func mergeTags(current, derived []string) []string {
	out := append(slices.Clone(current), derived...)
	slices.Sort(out)
	return nonNil(slices.Compact(out))
}
