// Package dispatcher turns free text into transactions.
//
// A Dispatcher recognizes one input syntax. TryParse either returns a
// transaction, returns ErrDeclined when the text is not in its syntax, or
// returns a *errors.UserError when the text is in its syntax but malformed.
// A Registry holds dispatchers in configuration order and asks them in turn.
//
// Three syntaxes are built in:
//
//	beancount  full Beancount transaction syntax, passed through verbatim
//	shorthand  AMOUNT [CURRENCY] FROM TO ["payee"] [narration] [#tags]
//	template   COMMAND AMOUNT [narration] [#tags]
package dispatcher

import (
	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
)

// ErrDeclined is returned by TryParse when the text is not in the
// dispatcher's syntax. It never leaves the Registry.
var ErrDeclined = errors.New("dispatcher: input declined")

// Dispatcher parses one input syntax into a transaction.
type Dispatcher interface {
	// Name is the identifier shown in help and selection UI.
	Name() string

	// Usage describes the accepted syntax.
	Usage() string

	// TryParse parses text. Implementations must be safe for concurrent use
	// and must not set the transaction handle.
	TryParse(text string) (*ast.Transaction, error)
}

func declined() (*ast.Transaction, error) {
	return nil, ErrDeclined
}
