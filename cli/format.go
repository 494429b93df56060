package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/formatter"
)

// FormatCmd previews the ledger entry for free text. Nothing is written and
// the entry has no handle yet.
type FormatCmd struct {
	Text           []string `help:"Transaction text (read from stdin when omitted)." arg:"" optional:""`
	Tags           []string `help:"Additional tags for the transaction." short:"t"`
	CurrencyColumn int      `help:"Column for currency alignment (configured column if 0)." default:"0"`
}

func (cmd *FormatCmd) Run(ctx *kong.Context, globals *Globals) error {
	text, err := readText(cmd.Text)
	if err != nil {
		return reportError(ctx, "", err)
	}

	cfg, err := loadConfig(globals, false)
	if err != nil {
		return err
	}

	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("invalid dispatchers: %w", err)
	}

	txn, d, err := registry.SelectAndParse(text)
	if err != nil {
		return reportError(ctx, text, err)
	}
	txn.Tags = ast.MergeTags(cfg.Transaction.Tags, cmd.Tags, txn.Tags)

	f := cfg.Formatter()
	if cmd.CurrencyColumn > 0 {
		f = formatter.New(formatter.WithCurrencyColumn(cmd.CurrencyColumn))
	}

	printInfof(ctx.Stderr, "Understood by %s", d.Name())
	_, _ = fmt.Fprint(ctx.Stdout, f.Format(txn))

	return nil
}
