package dispatcher

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
)

// TemplateConfig holds the args of a "template" dispatcher.
type TemplateConfig struct {
	// Currency is used by templates that do not set their own.
	Currency  string          `yaml:"currency"`
	Templates []TemplateEntry `yaml:"templates"`

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time `yaml:"-"`
}

// TemplateEntry is one command, e.g. "lunch" booking from cash to food.
type TemplateEntry struct {
	Command   string   `yaml:"command"`
	From      string   `yaml:"from"`
	To        string   `yaml:"to"`
	Payee     string   `yaml:"payee"`
	Narration string   `yaml:"narration"`
	Currency  string   `yaml:"currency"`
	Tags      []string `yaml:"tags"`
}

// Template parses keyword entries of the form
//
//	COMMAND AMOUNT [narration] [#tag ...]
//
// where COMMAND names a configured template. Unknown commands are declined.
type Template struct {
	name     string
	cfg      TemplateConfig
	commands map[string]*TemplateEntry
}

// NewTemplate is the factory for the "template" type.
func NewTemplate(name string, args *yaml.Node) (Dispatcher, error) {
	var cfg TemplateConfig
	if args != nil && args.Kind != 0 {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("invalid args: %w", err)
		}
	}
	return NewTemplateWithConfig(name, cfg)
}

// NewTemplateWithConfig creates a Template dispatcher.
func NewTemplateWithConfig(name string, cfg TemplateConfig) (*Template, error) {
	if len(cfg.Templates) == 0 {
		return nil, fmt.Errorf("at least one template is required")
	}

	cfg.Templates = slices.Clone(cfg.Templates)
	commands := make(map[string]*TemplateEntry, len(cfg.Templates))
	for i := range cfg.Templates {
		entry := &cfg.Templates[i]
		command := strings.ToLower(strings.TrimPrefix(entry.Command, "/"))
		if command == "" || strings.ContainsAny(command, " \t") {
			return nil, fmt.Errorf("template %d: invalid command %q", i+1, entry.Command)
		}
		if _, ok := commands[command]; ok {
			return nil, fmt.Errorf("template %q: duplicate command", entry.Command)
		}
		for _, account := range []string{entry.From, entry.To} {
			if err := ast.ValidateAccount(account); err != nil {
				return nil, fmt.Errorf("template %q: %w", entry.Command, err)
			}
		}
		if entry.Currency == "" {
			entry.Currency = cfg.Currency
		}
		if !ast.IsCurrency(entry.Currency) {
			return nil, fmt.Errorf("template %q: invalid currency %q", entry.Command, entry.Currency)
		}
		entry.Command = command
		commands[command] = entry
	}

	return &Template{name: name, cfg: cfg, commands: commands}, nil
}

func (t *Template) Name() string { return t.name }

func (t *Template) Usage() string {
	var b strings.Builder
	b.WriteString("COMMAND AMOUNT [narration] [#tag ...]\n\nCommands:")
	for _, entry := range t.cfg.Templates {
		fmt.Fprintf(&b, "\n  %s: %s -> %s (%s)", entry.Command, entry.From, entry.To, entry.Currency)
		if entry.Narration != "" {
			fmt.Fprintf(&b, " %q", entry.Narration)
		}
	}
	return b.String()
}

func (t *Template) TryParse(text string) (*ast.Transaction, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return declined()
	}
	entry, ok := t.commands[strings.ToLower(strings.TrimPrefix(words[0], "/"))]
	if !ok {
		return declined()
	}

	fields, err := splitFields(text)
	if err != nil {
		return nil, err
	}
	fields, tags, err := splitTags(fields[1:])
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 || fields[0].Quoted {
		return nil, errors.User("%s: usage is %q.", t.name, entry.Command+" AMOUNT [narration]")
	}
	number, ok := parseNumber(fields[0].Value)
	if !ok {
		return nil, errors.User("%s: %q is not a valid amount.", t.name, fields[0].Value)
	}
	if !number.IsPositive() {
		return nil, errors.User("%s: the amount must be positive.", t.name)
	}

	narration := entry.Narration
	if len(fields) > 1 {
		narration = joinWords(fields[1:])
	}

	txn := ast.NewTransaction(today(t.cfg.Now), narration)
	txn.Payee = entry.Payee
	txn.AddTags(entry.Tags...)
	txn.AddTags(tags...)

	amount := &ast.Amount{Number: number, Currency: entry.Currency}
	txn.AddPosting(&ast.Posting{Account: entry.From, Amount: amount.Neg()}).
		AddPosting(&ast.Posting{Account: entry.To, Amount: amount})

	return txn, nil
}
