// Package docstring selects, normalizes, and formats documentation text for
// insertion into stub files.
package docstring

import (
	"strings"
	"unicode"
)

// Clean normalizes documentation text: tabs expand to 8-column stops, the
// first line loses its leading whitespace, the common leading margin of all
// later non-blank lines is removed, and leading and trailing blank lines are
// dropped.
func Clean(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	// Minimum indentation of any non-blank line after the first.
	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t\v\f\r")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " \t\v\f\r")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// expandTabs replaces tabs with spaces up to the next multiple of tabsize
// columns, per line.
func expandTabs(s string, tabsize int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			pad := tabsize - col%tabsize
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
		case '\n', '\r':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}

// printableIgnoringNewlines reports whether text contains only printable
// characters once newlines are removed.
func printableIgnoringNewlines(s string) bool {
	for _, r := range s {
		if r == '\n' {
			continue
		}
		if r == ' ' {
			continue
		}
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
