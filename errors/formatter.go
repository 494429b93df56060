// Package errors defines the two error classes of the bot and renders them
// for different consumers.
//
// A UserError carries a ready-to-display message and is shown verbatim. A
// FatalError carries diagnostic context for the logs and is shown to users as
// GenericMessage. Every other error is treated as fatal.
//
// The package defines a Formatter interface and provides two implementations:
//   - TextFormatter: Formats errors for command-line or chat output
//   - JSONFormatter: Formats errors as structured JSON for the HTTP API
package errors

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/robinvdvleuten/beancount-bot/parser"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// TextFormatter formats errors as plain text.
type TextFormatter struct {
	sourceContent []byte // Optional input text for parse error context
	details       bool   // Show fatal causes instead of GenericMessage
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the input text used to show context for syntax errors.
func WithSource(source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sourceContent = source
	}
}

// WithDetails makes fatal errors render their cause. Only use this for
// operators, never for chat users.
func WithDetails() TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.details = true
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error.
func (tf *TextFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	uerr, ok := AsUser(err)
	if !ok {
		if tf.details {
			return err.Error()
		}
		return GenericMessage
	}

	var perr *parser.ParseError
	if tf.sourceContent != nil && As(uerr, &perr) {
		return tf.formatWithSourceContext(perr, uerr.Message)
	}

	return uerr.Message
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// formatWithSourceContext shows the message followed by the input lines around
// the error position, with a caret under the offending column.
func (tf *TextFormatter) formatWithSourceContext(perr *parser.ParseError, message string) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(tf.sourceContent), "\n")

	// Show 2 lines before and 1 line after the error line.
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
		buf.WriteString(sourceLines[i])
		buf.WriteByte('\n')

		if i == perr.Line-1 && perr.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", perr.Column-1))
			buf.WriteString("^\n")
		}
	}

	return strings.TrimRight(buf.String(), "\n")
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Position *PositionJSON `json:"position,omitempty"`
}

// PositionJSON is the location of a syntax error within the submitted text.
type PositionJSON struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.ToJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.ToJSON(err))
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	return string(data)
}

// ToJSON converts an error to ErrorJSON. Fatal errors never expose their cause.
func (jf *JSONFormatter) ToJSON(err error) ErrorJSON {
	uerr, ok := AsUser(err)
	if !ok {
		return ErrorJSON{Type: "fatal", Message: GenericMessage}
	}

	errJSON := ErrorJSON{Type: "user", Message: uerr.Message}

	var perr *parser.ParseError
	if As(uerr, &perr) {
		errJSON.Type = "syntax"
		errJSON.Position = &PositionJSON{Line: perr.Line, Column: perr.Column}
	}

	return errJSON
}
