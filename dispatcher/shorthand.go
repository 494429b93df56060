package dispatcher

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
)

// ShorthandConfig holds the args of a "shorthand" dispatcher.
type ShorthandConfig struct {
	// Currency is used when the input names none.
	Currency string `yaml:"currency"`

	// Accounts maps aliases to account names. Aliases match case-insensitively.
	Accounts map[string]string `yaml:"accounts"`

	// Flag is the transaction flag, "*" by default.
	Flag string `yaml:"flag"`

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time `yaml:"-"`
}

// Shorthand parses one-line entries of the form
//
//	AMOUNT [CURRENCY] FROM TO ["payee"] [narration] [#tag ...]
//
// moving AMOUNT from FROM to TO. Text that does not start with a number is declined.
type Shorthand struct {
	name    string
	cfg     ShorthandConfig
	aliases map[string]string
}

// NewShorthand is the factory for the "shorthand" type.
func NewShorthand(name string, args *yaml.Node) (Dispatcher, error) {
	var cfg ShorthandConfig
	if args != nil && args.Kind != 0 {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("invalid args: %w", err)
		}
	}
	return NewShorthandWithConfig(name, cfg)
}

// NewShorthandWithConfig creates a Shorthand dispatcher.
func NewShorthandWithConfig(name string, cfg ShorthandConfig) (*Shorthand, error) {
	if cfg.Flag == "" {
		cfg.Flag = "*"
	}
	if cfg.Flag != "*" && cfg.Flag != "!" {
		return nil, fmt.Errorf("flag must be * or !, got %q", cfg.Flag)
	}
	if cfg.Currency != "" && !ast.IsCurrency(cfg.Currency) {
		return nil, fmt.Errorf("invalid currency %q", cfg.Currency)
	}

	aliases := make(map[string]string, len(cfg.Accounts))
	for alias, account := range cfg.Accounts {
		if err := ast.ValidateAccount(account); err != nil {
			return nil, fmt.Errorf("alias %q: %w", alias, err)
		}
		aliases[strings.ToLower(alias)] = account
	}

	return &Shorthand{name: name, cfg: cfg, aliases: aliases}, nil
}

func (s *Shorthand) Name() string { return s.name }

func (s *Shorthand) Usage() string {
	var b strings.Builder
	b.WriteString("AMOUNT [CURRENCY] FROM TO [\"payee\"] [narration] [#tag ...]\n")
	b.WriteString("Moves AMOUNT from the FROM account to the TO account, for example:\n\n")
	b.WriteString("25.50 cash food \"Cafe\" Lunch #work\n")

	if s.cfg.Currency != "" {
		fmt.Fprintf(&b, "\nThe currency defaults to %s.", s.cfg.Currency)
	}

	if len(s.aliases) > 0 {
		b.WriteString("\nAccounts:")
		aliases := maps.Keys(s.aliases)
		slices.Sort(aliases)
		for _, alias := range aliases {
			fmt.Fprintf(&b, "\n  %s = %s", alias, s.aliases[alias])
		}
	}

	return b.String()
}

func (s *Shorthand) TryParse(text string) (*ast.Transaction, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return declined()
	}
	number, ok := parseNumber(words[0])
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

	if !number.IsPositive() {
		return nil, errors.User("%s: the amount must be positive.", s.name)
	}

	currency := s.cfg.Currency
	if len(fields) > 0 && !fields[0].Quoted {
		if _, isAlias := s.aliases[strings.ToLower(fields[0].Value)]; !isAlias && ast.IsCurrency(fields[0].Value) {
			currency = fields[0].Value
			fields = fields[1:]
		}
	}
	if currency == "" {
		return nil, errors.User("%s: no currency given and none configured.", s.name)
	}

	if len(fields) < 2 || fields[0].Quoted || fields[1].Quoted {
		return nil, errors.User("%s: expected a FROM and a TO account after the amount.", s.name)
	}
	from, err := s.resolve(fields[0].Value)
	if err != nil {
		return nil, err
	}
	to, err := s.resolve(fields[1].Value)
	if err != nil {
		return nil, err
	}
	fields = fields[2:]

	txn := ast.NewTransaction(today(s.cfg.Now), "")
	txn.Flag = s.cfg.Flag
	if len(fields) > 1 && fields[0].Quoted {
		txn.Payee = fields[0].Value
		fields = fields[1:]
	}
	txn.Narration = joinWords(fields)
	txn.AddTags(tags...)

	amount := &ast.Amount{Number: number, Currency: currency}
	txn.AddPosting(&ast.Posting{Account: from, Amount: amount.Neg()}).
		AddPosting(&ast.Posting{Account: to, Amount: amount})

	return txn, nil
}

// resolve maps an alias or a full account name to an account.
func (s *Shorthand) resolve(name string) (string, error) {
	if account, ok := s.aliases[strings.ToLower(name)]; ok {
		return account, nil
	}
	if err := ast.ValidateAccount(name); err == nil {
		return name, nil
	}
	return "", errors.User("%s: unknown account %q.", s.name, name)
}
