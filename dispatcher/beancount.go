package dispatcher

import (
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/parser"
)

// Beancount accepts a transaction written in full Beancount syntax.
// Text that does not start with a date is declined.
type Beancount struct {
	name string
}

var leadingDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(\s|$)`)

// NewBeancount is the factory for the "beancount" type. It takes no args.
func NewBeancount(name string, args *yaml.Node) (Dispatcher, error) {
	return &Beancount{name: name}, nil
}

func (b *Beancount) Name() string { return b.name }

func (b *Beancount) Usage() string {
	return `A complete Beancount transaction, for example:

2024-01-15 * "Cafe" "Lunch" #food
  Expenses:Food     25.00 USD
  Assets:Cash

At most one posting may leave its amount out.`
}

func (b *Beancount) TryParse(text string) (*ast.Transaction, error) {
	if !leadingDate.MatchString(text) {
		return declined()
	}

	txn, err := parser.ParseString(text)
	if err != nil {
		return nil, errors.UserWithCause(err, "%s: %s", b.name, err.Error())
	}

	if len(txn.Postings) < 2 {
		return nil, errors.User("%s: a transaction needs at least two postings.", b.name)
	}

	missing := 0
	for _, p := range txn.Postings {
		if p.Amount == nil {
			missing++
		}
		if hasKey(p.Metadata, ast.HandleKey) {
			return nil, errors.User("%s: metadata key %q is reserved.", b.name, ast.HandleKey)
		}
	}
	if missing > 1 {
		return nil, errors.User("%s: only one posting may leave its amount out.", b.name)
	}

	if txn.Handle != "" {
		return nil, errors.User("%s: metadata key %q is reserved.", b.name, ast.HandleKey)
	}

	return txn, nil
}

func hasKey(metadata []*ast.Metadata, key string) bool {
	for _, m := range metadata {
		if m.Key == key {
			return true
		}
	}
	return false
}
