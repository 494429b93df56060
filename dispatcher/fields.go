package dispatcher

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beancount-bot/errors"
)

// field is one whitespace separated word of a one-line input. Quoted fields
// may contain spaces; the quotes are removed.
type field struct {
	Value  string
	Quoted bool
}

// splitFields splits text on whitespace, keeping double-quoted strings whole.
// A backslash escapes the next character inside quotes.
func splitFields(text string) ([]field, error) {
	var fields []field
	runes := []rune(text)

	for i := 0; i < len(runes); {
		switch r := runes[i]; {
		case isSpace(r):
			i++

		case r == '"':
			var buf strings.Builder
			i++
			closed := false
			for i < len(runes) {
				c := runes[i]
				i++
				if c == '\\' && i < len(runes) {
					buf.WriteRune(runes[i])
					i++
					continue
				}
				if c == '"' {
					closed = true
					break
				}
				buf.WriteRune(c)
			}
			if !closed {
				return nil, errors.User("Unterminated quoted text in %q.", text)
			}
			fields = append(fields, field{Value: buf.String(), Quoted: true})

		default:
			start := i
			for i < len(runes) && !isSpace(runes[i]) && runes[i] != '"' {
				i++
			}
			fields = append(fields, field{Value: string(runes[start:i])})
		}
	}

	return fields, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// tagRegex matches the characters Beancount allows in tags.
var tagRegex = regexp.MustCompile(`^[\p{L}\p{N}_./-]+$`)

// splitTags separates unquoted "#tag" words from the rest of the fields.
func splitTags(fields []field) ([]field, []string, error) {
	var rest []field
	var tags []string
	for _, f := range fields {
		if f.Quoted || !strings.HasPrefix(f.Value, "#") {
			rest = append(rest, f)
			continue
		}
		tag := f.Value[1:]
		if !tagRegex.MatchString(tag) {
			return nil, nil, errors.User("Invalid tag %q.", f.Value)
		}
		tags = append(tags, tag)
	}
	return rest, tags, nil
}

// joinWords joins unquoted and quoted fields back into one text.
func joinWords(fields []field) string {
	words := make([]string, len(fields))
	for i, f := range fields {
		words[i] = f.Value
	}
	return strings.Join(words, " ")
}

// parseNumber parses a plain decimal literal. Thousands separators are allowed.
func parseNumber(s string) (decimal.Decimal, bool) {
	if s == "" || !numberRegex.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "+"))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

var numberRegex = regexp.MustCompile(`^[-+]?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// today returns the current local date at midnight UTC, the form parsed
// dates take.
func today(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	t := now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
