package docstring

import (
	"fmt"
	"strings"
	"unicode"
)

// Quote formats documentation text as a safely triple-quoted literal.
// Multi-line text is reindented by indent and wrapped with newlines so the
// closing delimiter lands on its own line. Text containing a backslash uses
// a raw literal. Text with non-printable characters (newlines aside) falls
// back to a debug-escaped single-line representation.
func Quote(text, indent string) string {
	if !printableIgnoringNewlines(text) {
		return debugQuote(text)
	}

	raw := strings.Contains(text, "\\")

	if strings.Contains(text, "\n") {
		text = indentLines(text, indent)
		text = "\n" + text + "\n" + indent
	} else if strings.HasSuffix(text, `"`) {
		if raw {
			// Raw literals cannot end in a quote; separate with a space.
			text += " "
		} else {
			text = text[:len(text)-1] + `\"`
		}
	}

	// No docstring should really contain a triple quote, but be safe.
	if raw {
		// Escapes don't work in raw literals; switch delimiter style.
		text = strings.ReplaceAll(text, `"""`, "'''")
	} else {
		text = strings.ReplaceAll(text, `"""`, `\"\"\"`)
	}

	if raw {
		return `r"""` + text + `"""`
	}
	return `"""` + text + `"""`
}

// indentLines prefixes every non-empty line with indent.
func indentLines(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// debugQuote renders text as a single-line escaped string literal, the
// safety fallback for control characters.
func debugQuote(text string) string {
	quote := byte('\'')
	if strings.Contains(text, "'") && !strings.Contains(text, `"`) {
		quote = '"'
	}

	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range text {
		switch {
		case r == '\\' || r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == ' ' || unicode.IsPrint(r):
			sb.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
