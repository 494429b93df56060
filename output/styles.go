// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles renders text with ANSI styling when the writer is a terminal that
// supports it, and as plain text otherwise.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w)}
}

func (s *Styles) color(text, color string) termenv.Style {
	return s.output.String(text).Foreground(s.output.Color(color))
}

// Success returns green, bold text.
func (s *Styles) Success(text string) string {
	return s.color(text, "2").Bold().String()
}

// Error returns red, bold text.
func (s *Styles) Error(text string) string {
	return s.color(text, "1").Bold().String()
}

// Warning returns yellow, bold text.
func (s *Styles) Warning(text string) string {
	return s.color(text, "3").Bold().String()
}

// Handle returns a transaction handle in cyan.
func (s *Styles) Handle(text string) string {
	return s.color(text, "6").String()
}

// FilePath returns a file path in cyan.
func (s *Styles) FilePath(text string) string {
	return s.color(text, "6").String()
}

// Keyword returns bold text, e.g. a dispatcher name.
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns faint text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}
