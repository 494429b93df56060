package output

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStylesPlainWriter(t *testing.T) {
	// A bytes.Buffer is not a terminal, so no escape sequences are added.
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	for name, render := range map[string]func(string) string{
		"Success":  styles.Success,
		"Error":    styles.Error,
		"Warning":  styles.Warning,
		"Handle":   styles.Handle,
		"FilePath": styles.FilePath,
		"Keyword":  styles.Keyword,
		"Dim":      styles.Dim,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, "text", render("text"))
		})
	}
}
