package parser

import (
	"slices"
	"strings"

	"github.com/starford/notekeep/internal/models"
)

// WikiTitles returns the trimmed, non-empty contents of every [[...]] token in
// body, in order of appearance. A "]" not followed by a second "]" is literal
// text inside the token and takes the next character with it. A token that
// never closes runs to the end of body.
func WikiTitles(body string) []string {
	var out []string
	rs := []rune(body)
	for i := 0; i+1 < len(rs); i++ {
		if rs[i] != '[' || rs[i+1] != '[' {
			continue
		}
		var sb strings.Builder
		j := i + 2
		for j < len(rs) {
			if rs[j] != ']' {
				sb.WriteRune(rs[j])
				j++
				continue
			}
			if j+1 < len(rs) && rs[j+1] == ']' {
				j += 2
				break
			}
			sb.WriteRune(']')
			if j+1 < len(rs) {
				sb.WriteRune(rs[j+1])
			}
			j += 2
		}
		if title := strings.TrimSpace(sb.String()); title != "" {
			out = append(out, title)
		}
		i = j - 1
	}
	return out
}

// LinksFromBody resolves the wiki links in body to note ids. Each title maps to
// the first note, other than excludeID, whose title matches case-insensitively.
// Unresolved titles are dropped.
func LinksFromBody(body string, notes []models.NoteMeta, excludeID string) []string {
	ids := []string{}
	for _, title := range WikiTitles(body) {
		lower := strings.ToLower(title)
		for _, n := range notes {
			if n.ID != excludeID && strings.ToLower(n.Title) == lower {
				ids = append(ids, n.ID)
				break
			}
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
