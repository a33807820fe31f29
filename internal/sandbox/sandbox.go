// Package sandbox validates identifiers and relative paths before they touch the filesystem.
package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/starford/notekeep/internal/apperr"
)

// MaxNameLength is the longest name Sanitize returns, in characters.
const MaxNameLength = 200

// Sanitize maps name to a string that is safe to use as a single file name.
// Separators, quoting/glob characters, NUL, and control characters become '_',
// surrounding whitespace is trimmed, and the result is capped at MaxNameLength
// characters. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	mapped = strings.TrimSpace(mapped)

	runes := []rune(mapped)
	if len(runes) > MaxNameLength {
		// Truncation can expose trailing whitespace; trim again to stay idempotent.
		mapped = strings.TrimSpace(string(runes[:MaxNameLength]))
	}
	return mapped
}

// ValidateID rejects ids that are empty, "." or "..", contain a path
// separator, or contain a control character. Note ids and notebook ids use
// the same rules.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", apperr.ErrValidation)
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid id %q", apperr.ErrValidation, id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: invalid id %q", apperr.ErrValidation, id)
		}
	}
	return nil
}

// ResolveUnderRoot joins rel onto root and rejects any result that is not a
// lexical descendant of root. Paths containing ".." or starting with an
// absolute-path marker are rejected before joining.
func ResolveUnderRoot(root, rel string) (string, error) {
	if strings.Contains(rel, "..") || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) ||
		filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: invalid path %q", apperr.ErrValidation, rel)
	}
	cleanRoot := filepath.Clean(root)
	full := filepath.Join(cleanRoot, filepath.FromSlash(rel))

	// Second line of defence: the joined path must still sit under root.
	within, err := filepath.Rel(cleanRoot, full)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) || filepath.IsAbs(within) {
		return "", fmt.Errorf("%w: path escapes storage root: %q", apperr.ErrValidation, rel)
	}
	return full, nil
}
