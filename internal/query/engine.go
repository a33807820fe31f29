package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/notekeep/internal/models"
)

// BodyReader loads a note body by id.
type BodyReader func(id string) (string, error)

// Query is a compiled search: index filters run first, body filters only for
// notes that pass them.
type Query struct {
	Meta []MetaPredicate
	Body []BodyPredicate
}

// Compile turns tokens into predicates. now anchors the date: filters.
func Compile(tokens []Token, now time.Time) Query {
	var q Query
	for _, t := range tokens {
		switch {
		case t.IsText():
			q.Body = append(q.Body, ContainsText(t.Value))
		case t.Op == OpTag:
			q.Meta = append(q.Meta, HasTag(t.Value))
		case t.Op == OpDate:
			q.Meta = append(q.Meta, UpdatedSince(DayBoundary(t.Value, now)))
		case t.Op == OpIs && t.Value == "starred":
			q.Meta = append(q.Meta, Starred)
		case t.Op == OpIs && t.Value == "completed":
			q.Body = append(q.Body, HasChecked)
		case t.Op == OpIs && t.Value == "uncompleted":
			q.Body = append(q.Body, HasUnchecked)
		case t.Op == OpHas && t.Value == "attachments":
			q.Meta = append(q.Meta, HasAttachments)
		case t.Op == OpHas && t.Value == "tasks":
			q.Body = append(q.Body, HasTaskLines)
		}
	}
	return q
}

// Match reports whether n satisfies every predicate. The body is read at most
// once and only when a body predicate is present.
func (q Query) Match(n models.NoteMeta, read BodyReader) (bool, error) {
	for _, p := range q.Meta {
		if !p(n) {
			return false, nil
		}
	}
	if len(q.Body) == 0 {
		return true, nil
	}
	body, err := read(n.ID)
	if err != nil {
		return false, fmt.Errorf("query: read body %s: %w", n.ID, err)
	}
	for _, p := range q.Body {
		if !p(n, body) {
			return false, nil
		}
	}
	return true, nil
}

// Search filters notes by query text. A blank query returns notes unchanged;
// otherwise matches are sorted by updated_at, newest first.
func Search(notes []models.NoteMeta, text string, now time.Time, read BodyReader) ([]models.NoteMeta, error) {
	if strings.TrimSpace(text) == "" {
		return notes, nil
	}
	q := Compile(Tokenize(text), now)
	out := []models.NoteMeta{}
	for _, n := range notes {
		ok, err := q.Match(n, read)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b models.NoteMeta) int {
		return strings.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	return out, nil
}
