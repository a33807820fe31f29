package query

import (
	"strings"
	"time"

	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/parser"
)

// MetaPredicate tests a note using index data only.
type MetaPredicate func(n models.NoteMeta) bool

// BodyPredicate tests a note against its body text.
type BodyPredicate func(n models.NoteMeta, body string) bool

const dayLayout = "2006-01-02"

// HasTag matches notes carrying tag, compared case-insensitively.
func HasTag(tag string) MetaPredicate {
	return func(n models.NoteMeta) bool {
		for _, t := range n.Tags {
			if strings.EqualFold(t, tag) {
				return true
			}
		}
		return false
	}
}

// Starred matches important notes.
func Starred(n models.NoteMeta) bool { return n.Important }

// HasAttachments matches notes with at least one image.
func HasAttachments(n models.NoteMeta) bool { return len(n.Images) > 0 }

// UpdatedSince matches notes whose updated_at day is on or after day (YYYY-MM-DD).
func UpdatedSince(day string) MetaPredicate {
	return func(n models.NoteMeta) bool {
		d := n.UpdatedAt
		if len(d) > len(dayLayout) {
			d = d[:len(dayLayout)]
		}
		return d >= day
	}
}

// DayBoundary returns the first day included by a date: filter value.
func DayBoundary(value string, now time.Time) string {
	now = now.UTC()
	switch value {
	case "week":
		now = now.AddDate(0, 0, -7)
	case "month":
		now = now.AddDate(0, 0, -30)
	}
	return now.Format(dayLayout)
}

// HasTaskLines matches bodies with any GFM task line.
func HasTaskLines(_ models.NoteMeta, body string) bool { return parser.HasTasks(body) }

// HasChecked matches bodies with at least one checked task.
func HasChecked(_ models.NoteMeta, body string) bool {
	_, checked := parser.TaskState(body)
	return checked
}

// HasUnchecked matches bodies with at least one open task.
func HasUnchecked(_ models.NoteMeta, body string) bool {
	unchecked, _ := parser.TaskState(body)
	return unchecked
}

// ContainsText matches when term occurs in the lower-cased title or body.
// term must already be lower-case.
func ContainsText(term string) BodyPredicate {
	return func(n models.NoteMeta, body string) bool {
		return strings.Contains(strings.ToLower(n.Title), term) ||
			strings.Contains(strings.ToLower(body), term)
	}
}
