package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/parser"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and input context.
//
// The command line is run by the ledger's owner, so unlike the HTTP API it
// shows the cause of fatal errors.
type ErrorRenderer struct {
	source []byte
}

// NewErrorRenderer creates a renderer with the input text for context.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	return &ErrorRenderer{source: source}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	if err == nil {
		return ""
	}

	uerr, ok := errors.AsUser(err)
	if !ok {
		return errorStyle.Render(err.Error())
	}

	var perr *parser.ParseError
	if r.source != nil && errors.As(uerr, &perr) && perr.Line > 0 {
		return r.renderWithSourceContext(perr, uerr.Message)
	}

	return errorStyle.Render(uerr.Message)
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithSourceContext(perr *parser.ParseError, message string) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(r.source), "\n")

	startLine := perr.Line - 3
	endLine := perr.Line
	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(sourceLines[i]))
		buf.WriteByte('\n')

		if i == perr.Line-1 && perr.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", perr.Column-1))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
