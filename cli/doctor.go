package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/beancount-bot/parser"
)

// DoctorCmd provides doctor utilities for debugging input syntaxes.
type DoctorCmd struct {
	Lex   LexCmd   `cmd:"" help:"Show lexical tokens of a Beancount transaction."`
	Parse ParseCmd `cmd:"" help:"Show the transaction the configured syntaxes produce for free text."`
}

// LexCmd shows lexical tokens of a Beancount transaction.
type LexCmd struct {
	Text []string `help:"Transaction text (read from stdin when omitted)." arg:"" optional:""`
}

// Run executes the lex command.
func (cmd *LexCmd) Run(ctx *kong.Context, globals *Globals) error {
	text, err := readText(cmd.Text)
	if err != nil {
		return reportError(ctx, "", err)
	}
	content := []byte(text)

	tokens, err := parser.NewLexer(content).ScanAll()
	if err != nil {
		return fmt.Errorf("failed to lex input: %w", err)
	}

	// Display tokens in the format: TYPE line:col "content"
	for _, token := range tokens {
		if token.Type == parser.EOF {
			continue
		}

		_, _ = fmt.Fprintf(ctx.Stdout, "%-10s %d:%d    %q\n",
			token.Type.String(),
			token.Line,
			token.Column,
			token.String(content))
	}

	return nil
}

// ParseCmd dumps the syntax tree a message produces.
type ParseCmd struct {
	Text []string `help:"Transaction text (read from stdin when omitted)." arg:"" optional:""`
}

// Run executes the parse command.
func (cmd *ParseCmd) Run(ctx *kong.Context, globals *Globals) error {
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

	txn, _, err := registry.SelectAndParse(text)
	if err != nil {
		return reportError(ctx, text, err)
	}

	repr.New(ctx.Stdout).Println(txn)

	return nil
}
