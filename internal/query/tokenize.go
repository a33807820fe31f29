// Package query implements the note search language: operator tokens such as
// tag:work or is:starred combined with free-text terms, all conjunctive.
package query

import (
	"slices"
	"strings"
)

// Operator names recognized in a query.
const (
	OpTag  = "tag"
	OpIs   = "is"
	OpDate = "date"
	OpHas  = "has"
)

// Token is either an operator with a value or, when Op is empty, a free-text term.
type Token struct {
	Op    string
	Value string
}

// IsText reports whether t is a free-text term.
func (t Token) IsText() bool { return t.Op == "" }

var knownValues = map[string][]string{
	OpIs:   {"starred", "completed", "uncompleted"},
	OpDate: {"today", "week", "month"},
	OpHas:  {"attachments", "tasks"},
}

// Tokenize lower-cases q and splits it on whitespace. Operator tokens with an
// empty value are dropped; unrecognized operator values become free text.
func Tokenize(q string) []Token {
	var out []Token
	for _, part := range strings.Fields(strings.ToLower(q)) {
		op, value, ok := strings.Cut(part, ":")
		if !ok {
			out = append(out, Token{Value: part})
			continue
		}
		switch op {
		case OpTag:
			if v := strings.TrimSpace(value); v != "" {
				out = append(out, Token{Op: OpTag, Value: v})
			}
			continue
		case OpIs, OpDate, OpHas:
			if value == "" {
				continue
			}
			if slices.Contains(knownValues[op], value) {
				out = append(out, Token{Op: op, Value: value})
				continue
			}
		}
		out = append(out, Token{Value: part})
	}
	return out
}
