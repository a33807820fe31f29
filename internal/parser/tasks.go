package parser

import "strings"

// TaskState reports whether body has unchecked and checked GFM task lines.
func TaskState(body string) (unchecked, checked bool) {
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if len(t) < 5 || (t[0] != '-' && t[0] != '*') || t[1:3] != " [" || t[4] != ']' {
			continue
		}
		switch t[3] {
		case ' ':
			unchecked = true
		case 'x', 'X':
			checked = true
		}
		if unchecked && checked {
			break
		}
	}
	return unchecked, checked
}

// HasTasks reports whether body has any task line.
func HasTasks(body string) bool {
	u, c := TaskState(body)
	return u || c
}
