// Package formatter renders transactions back into canonical Beancount text.
//
// Output is format-stable: the same transaction value always produces the same
// bytes. Postings, tags and metadata are written in their stored order, the
// handle metadata line comes first, and amounts are right-aligned so that
// currencies line up in one column.
package formatter

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/beancount-bot/ast"
)

const (
	// DefaultCurrencyColumn is the default column position for currency alignment
	// (matches bean-format behavior)
	DefaultCurrencyColumn = 52

	// DefaultIndentation is the default indentation for postings and metadata
	DefaultIndentation = 2

	// MinimumSpacing is the minimum number of spaces between account and number
	MinimumSpacing = 2
)

// Formatter handles formatting of transactions with proper alignment.
type Formatter struct {
	// CurrencyColumn is the target column the currency starts after.
	// Numbers are padded so they end right before it.
	CurrencyColumn int

	// Indentation is the number of spaces in front of postings and metadata.
	Indentation int
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// WithCurrencyColumn sets a specific column for currency alignment.
func WithCurrencyColumn(col int) Option {
	return func(f *Formatter) {
		if col > 0 {
			f.CurrencyColumn = col
		}
	}
}

// WithIndentation sets the posting indentation.
func WithIndentation(n int) Option {
	return func(f *Formatter) {
		if n >= 0 {
			f.Indentation = n
		}
	}
}

// New creates a new Formatter with the given options.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		CurrencyColumn: DefaultCurrencyColumn,
		Indentation:    DefaultIndentation,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Format returns the canonical text of a single transaction, ending in a newline.
func (f *Formatter) Format(t *ast.Transaction) string {
	var buf strings.Builder
	f.formatTransaction(t, &buf)
	return buf.String()
}

// FormatTransaction writes the canonical text of t to w.
func (f *Formatter) FormatTransaction(t *ast.Transaction, w io.Writer) error {
	_, err := io.WriteString(w, f.Format(t))
	return err
}

// formatTransaction formats a transaction directive.
// Format: date flag [payee] narration [links] [tags]
// The narration is always quoted, even when empty, so the header stays
// unambiguous when parsed again.
func (f *Formatter) formatTransaction(t *ast.Transaction, buf *strings.Builder) {
	buf.WriteString(t.Date.Format("2006-01-02"))
	buf.WriteByte(' ')
	if t.Flag != "" {
		buf.WriteString(t.Flag)
	} else {
		buf.WriteByte('*')
	}

	if t.Payee != "" {
		buf.WriteByte(' ')
		writeQuoted(t.Payee, buf)
	}

	buf.WriteByte(' ')
	writeQuoted(t.Narration, buf)

	for _, link := range t.Links {
		buf.WriteString(" ^")
		buf.WriteString(link)
	}

	for _, tag := range t.Tags {
		buf.WriteString(" #")
		buf.WriteString(tag)
	}

	buf.WriteByte('\n')

	indent := strings.Repeat(" ", f.Indentation)

	if t.Handle != "" {
		buf.WriteString(indent)
		buf.WriteString(ast.HandleKey)
		buf.WriteString(": ")
		writeQuoted(t.Handle, buf)
		buf.WriteByte('\n')
	}
	f.formatMetadata(t.Metadata, indent, buf)

	for _, posting := range t.Postings {
		f.formatPosting(posting, indent, buf)
	}
}

// formatPosting formats a single posting with proper alignment.
// Handles both postings with explicit amounts and implied amounts (nil).
func (f *Formatter) formatPosting(p *ast.Posting, indent string, buf *strings.Builder) {
	var line strings.Builder
	line.WriteString(indent)

	if p.Flag != "" {
		line.WriteString(p.Flag)
		line.WriteByte(' ')
	}

	line.WriteString(p.Account)

	if p.Amount != nil {
		f.formatAmountAligned(p.Amount, runewidth.StringWidth(line.String()), &line)

		if p.Cost != nil {
			line.WriteString(" {")
			line.WriteString(p.Cost.String())
			line.WriteByte('}')
		}

		if p.Price != nil {
			if p.PriceTotal {
				line.WriteString(" @@ ")
			} else {
				line.WriteString(" @ ")
			}
			line.WriteString(p.Price.String())
		}
	}

	buf.WriteString(line.String())
	buf.WriteByte('\n')

	f.formatMetadata(p.Metadata, indent+indent, buf)
}

// formatAmountAligned pads so the number ends just before the currency column.
// Width is measured in terminal cells so CJK account names align too.
func (f *Formatter) formatAmountAligned(amount *ast.Amount, currentWidth int, buf *strings.Builder) {
	number := ast.FormatNumber(amount.Number)

	padding := f.CurrencyColumn - currentWidth - len(number)
	if padding < MinimumSpacing {
		padding = MinimumSpacing
	}

	buf.WriteString(strings.Repeat(" ", padding))
	buf.WriteString(number)
	if amount.Currency != "" {
		buf.WriteByte(' ')
		buf.WriteString(amount.Currency)
	}
}

// formatMetadata formats metadata entries with the given indentation.
// The reserved handle key is skipped; it is only written from Transaction.Handle.
func (f *Formatter) formatMetadata(metadata []*ast.Metadata, indent string, buf *strings.Builder) {
	for _, m := range metadata {
		if m.Key == ast.HandleKey {
			continue
		}
		buf.WriteString(indent)
		buf.WriteString(m.Key)
		buf.WriteString(": ")
		if m.Quoted {
			writeQuoted(m.Value, buf)
		} else {
			buf.WriteString(m.Value)
		}
		buf.WriteByte('\n')
	}
}

// Default is the formatter used when no options are configured.
var Default = New()

// Stringify renders t with the default formatter.
func Stringify(t *ast.Transaction) string {
	return Default.Format(t)
}
