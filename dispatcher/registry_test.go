package dispatcher

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/formatter"
)

// stub accepts text starting with prefix; an empty prefix accepts everything.
type stub struct {
	name   string
	prefix string
	fail   error
}

func (s *stub) Name() string  { return s.name }
func (s *stub) Usage() string { return s.name + " usage" }

func (s *stub) TryParse(text string) (*ast.Transaction, error) {
	if !strings.HasPrefix(text, s.prefix) {
		return declined()
	}
	if s.fail != nil {
		return nil, s.fail
	}
	txn := ast.NewTransaction(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), s.name)
	txn.AddPosting(&ast.Posting{Account: "Assets:Cash", Amount: ast.MustNewAmount("-100", "USD")}).
		AddPosting(&ast.Posting{Account: "Expenses:Food", Amount: ast.MustNewAmount("100", "USD")})
	return txn, nil
}

func TestSelectAndParseOrder(t *testing.T) {
	plus := &stub{name: "Plus", prefix: "+"}
	catchAll := &stub{name: "Any"}

	txn, d, err := New(plus, catchAll).SelectAndParse("+100 Food")
	assert.NoError(t, err)
	assert.Equal(t, "Plus", d.Name())
	assert.Equal(t, "Plus", txn.Dispatcher)
	assert.Equal(t, "+100 Food", txn.RawText)

	txn, d, err = New(catchAll, plus).SelectAndParse("+100 Food")
	assert.NoError(t, err)
	assert.Equal(t, "Any", d.Name())
	assert.Equal(t, "Any", txn.Dispatcher)
}

func TestSelectAndParseNoMatch(t *testing.T) {
	r := New(&stub{name: "Plus", prefix: "+"}, &stub{name: "Minus", prefix: "-"})

	_, _, err := r.SelectAndParse("hello")
	uerr, ok := errors.AsUser(err)
	assert.True(t, ok)
	assert.Contains(t, uerr.Message, "Plus")
	assert.Contains(t, uerr.Message, "Minus")

	_, _, err = New().SelectAndParse("hello")
	_, ok = errors.AsUser(err)
	assert.True(t, ok)
}

func TestSelectAndParseMalformedDoesNotFallThrough(t *testing.T) {
	strict := &stub{name: "Strict", prefix: "+", fail: errors.User("bad amount")}
	catchAll := &stub{name: "Any"}

	_, d, err := New(strict, catchAll).SelectAndParse("+abc")
	assert.EqualError(t, err, "bad amount")
	assert.Equal(t, "Strict", d.Name())
}

func TestSelectAndParseUnexpectedErrorIsFatal(t *testing.T) {
	broken := &stub{name: "Broken", fail: fmt.Errorf("boom")}

	_, _, err := New(broken).SelectAndParse("x")
	assert.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestSelectAndParseTrimsInput(t *testing.T) {
	txn, _, err := New(&stub{name: "Plus", prefix: "+"}).SelectAndParse("  +1 \n")
	assert.NoError(t, err)
	assert.Equal(t, "+1", txn.RawText)
}

const registryConfig = `
- name: Beancount
  type: beancount
- name: Shorthand
  type: shorthand
  args:
    currency: CNY
    accounts:
      cash: Assets:Cash
      food: Expenses:Food
- name: Templates
  type: template
  args:
    currency: CNY
    templates:
      - command: lunch
        from: Assets:Cash
        to: Expenses:Food
        narration: Lunch
`

func loadDefinitions(t *testing.T, src string) []Definition {
	t.Helper()
	var defs []Definition
	assert.NoError(t, yaml.Unmarshal([]byte(src), &defs))
	return defs
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(loadDefinitions(t, registryConfig))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Beancount", "Shorthand", "Templates"}, r.Names())
	assert.Equal(t, 3, len(r.Dispatchers()))

	d, ok := r.Lookup("shorthand")
	assert.True(t, ok)
	assert.Equal(t, "Shorthand", d.Name())
	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	txn, d, err := r.SelectAndParse("lunch 25")
	assert.NoError(t, err)
	assert.Equal(t, "Templates", d.Name())
	assert.Equal(t, "Lunch", txn.Narration)

	txn, d, err = r.SelectAndParse("12.5 cash food Noodles")
	assert.NoError(t, err)
	assert.Equal(t, "Shorthand", d.Name())
	assert.Equal(t, "-12.5 CNY", txn.Postings[0].Amount.String())
}

func TestNewRegistryErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		message string
	}{
		{"UnknownType", "- {name: X, type: llm}", `unknown type "llm" (available: beancount, shorthand, template)`},
		{"MissingName", "- {type: beancount}", "name is required"},
		{"DuplicateName", "- {name: X, type: beancount}\n- {name: x, type: beancount}", "duplicate name"},
		{"BadArgs", "- {name: X, type: shorthand, args: {flag: '?'}}", "flag must be * or !"},
		{"NoTemplates", "- {name: X, type: template}", "at least one template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(loadDefinitions(t, tt.config))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestWithFactory(t *testing.T) {
	factory := func(name string, args *yaml.Node) (Dispatcher, error) {
		var cfg struct {
			Prefix string `yaml:"prefix"`
		}
		if err := args.Decode(&cfg); err != nil {
			return nil, err
		}
		return &stub{name: name, prefix: cfg.Prefix}, nil
	}

	defs := loadDefinitions(t, "- {name: Plus, type: prefix, args: {prefix: '+'}}")
	r, err := NewRegistry(defs, WithFactory("prefix", factory))
	assert.NoError(t, err)

	_, d, err := r.SelectAndParse("+1")
	assert.NoError(t, err)
	assert.Equal(t, "Plus", d.Name())

	// Registering a factory on one registry leaves the built-in set unchanged.
	assert.Equal(t, []string{"beancount", "shorthand", "template"}, Types())
}

func TestRoundTrip(t *testing.T) {
	r, err := NewRegistry(loadDefinitions(t, registryConfig))
	assert.NoError(t, err)
	beancount, _ := r.Lookup("Beancount")

	inputs := []string{
		"2024-01-15 * \"Cafe\" \"Lunch\" #food\n  Expenses:Food  25.00 USD\n  Assets:Cash\n",
		"12.50 USD cash food \"Cafe\" Noodles #work",
		"lunch 30 sandwich #quick",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			original, _, err := r.SelectAndParse(input)
			assert.NoError(t, err)

			again, err := beancount.TryParse(formatter.Stringify(original))
			assert.NoError(t, err)

			assert.True(t, original.Date.Equal(again.Date))
			assert.Equal(t, original.Narration, again.Narration)
			assert.Equal(t, original.Payee, again.Payee)
			assert.Equal(t, original.Tags, again.Tags)
			assert.Equal(t, len(original.Postings), len(again.Postings))
			for i, p := range original.Postings {
				assert.Equal(t, p.Account, again.Postings[i].Account)
				assert.True(t, p.Amount.Equal(again.Postings[i].Amount))
			}
		})
	}
}
