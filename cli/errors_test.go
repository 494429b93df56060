package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/parser"
)

func TestErrorRenderer(t *testing.T) {
	source := "2024-01-15 * \"Cafe\"\n  Expenses:Food  25.00 usd\n  Assets:Cash"

	t.Run("ParseErrorWithSourceContext", func(t *testing.T) {
		perr := &parser.ParseError{Line: 2, Column: 23, Message: "expected currency"}
		err := errors.UserWithCause(perr, "Beancount: %s", perr.Error())

		output := NewErrorRenderer([]byte(source)).Render(err)
		assert.Contains(t, output, "Beancount: line 2, column 23: expected currency")
		assert.Contains(t, output, "Expenses:Food")

		lines := strings.Split(output, "\n")
		caret := -1
		for i, line := range lines {
			if strings.HasPrefix(line, "   ") && strings.Contains(line, "usd") {
				caret = i + 1
			}
		}
		assert.True(t, caret > 0 && caret < len(lines), "expected an indented source line")
		assert.Equal(t, "   "+strings.Repeat(" ", 22)+"^", lines[caret])
	})

	t.Run("ParseErrorWithoutSource", func(t *testing.T) {
		perr := &parser.ParseError{Line: 2, Column: 23, Message: "expected currency"}
		err := errors.UserWithCause(perr, "Beancount: %s", perr.Error())

		output := NewErrorRenderer(nil).Render(err)
		assert.Contains(t, output, "expected currency")
		assert.NotContains(t, output, "^")
	})

	t.Run("UserError", func(t *testing.T) {
		output := NewErrorRenderer([]byte(source)).Render(errors.User("Transaction %q was not found.", "abc"))
		assert.Equal(t, `Transaction "abc" was not found.`, output)
	})

	t.Run("FatalErrorShowsCause", func(t *testing.T) {
		err := errors.Fatal("ledger.append", errors.New("disk full"))
		output := NewErrorRenderer(nil).Render(err)
		assert.Contains(t, output, "disk full")
		assert.NotContains(t, output, errors.GenericMessage)
	})

	t.Run("RenderAll", func(t *testing.T) {
		output := NewErrorRenderer(nil).RenderAll([]error{
			errors.User("first"),
			errors.User("second"),
		})
		assert.Equal(t, "first\n\nsecond", output)
		assert.Equal(t, "", NewErrorRenderer(nil).RenderAll(nil))
	})
}
