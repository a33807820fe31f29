package parser

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// TagsFromBody collects every "#word" run in body, case preserved, sorted and unique.
func TagsFromBody(body string) []string {
	tags := []string{}
	for i := 0; i < len(body); i++ {
		if body[i] != '#' {
			continue
		}
		j := i + 1
		for j < len(body) {
			r, size := utf8.DecodeRuneInString(body[j:])
			if !isTagRune(r) {
				break
			}
			j += size
		}
		if j > i+1 {
			tags = append(tags, body[i+1:j])
		}
		i = j - 1
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// TitleSlug lower-cases title and joins its word runs with "-". Characters
// other than letters, digits, spaces, "-" and "_" split words.
func TitleSlug(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if isTagRune(r) || r == ' ' {
			return r
		}
		return ' '
	}, title)
	parts := strings.Fields(cleaned)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "-")
}

// TagsFromTitle returns the title slug as a single tag, or nothing when the
// slug is shorter than two bytes or has no letter or digit.
func TagsFromTitle(title string) []string {
	slug := TitleSlug(title)
	if len(slug) < 2 {
		return []string{}
	}
	if !strings.ContainsFunc(slug, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return []string{}
	}
	return []string{slug}
}

// Tags is the full derived tag set for a note: body tags plus the title slug.
func Tags(title, body string) []string {
	out := append(TagsFromBody(body), TagsFromTitle(title)...)
	slices.Sort(out)
	return slices.Compact(out)
}
