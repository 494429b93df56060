package formatter

import (
	"strings"
)

// writeQuoted writes s as a double-quoted Beancount string.
func writeQuoted(s string, buf *strings.Builder) {
	buf.WriteByte('"')
	buf.WriteString(EscapeString(s))
	buf.WriteByte('"')
}

// EscapeString escapes special characters using C-style escape sequences.
// Newlines become \n, tabs become \t, quotes become \", backslashes become \\,
// which keeps every string on one physical line of the ledger.
func EscapeString(s string) string {
	if !strings.ContainsAny(s, "\"\\\n\t\r") {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s) + 10)

	for _, c := range s {
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			buf.WriteRune(c)
		}
	}

	return buf.String()
}
