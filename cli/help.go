package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-bot/errors"
)

// HelpCmd shows the syntaxes the bot accepts, in the order they are tried.
type HelpCmd struct {
	Name string `help:"Name of a syntax to show the usage of." arg:"" optional:""`
}

func (cmd *HelpCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := loadConfig(globals, false)
	if err != nil {
		return err
	}

	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("invalid dispatchers: %w", err)
	}

	if cmd.Name != "" {
		d, ok := registry.Lookup(cmd.Name)
		if !ok {
			return reportError(ctx, "", errors.User("Unknown syntax %q. Available: %s.",
				cmd.Name, strings.Join(registry.Names(), ", ")))
		}
		_, _ = fmt.Fprintln(ctx.Stdout, handleStyle.Render(d.Name()))
		_, _ = fmt.Fprintln(ctx.Stdout, usageStyle.Render(d.Usage()))
		return nil
	}

	for i, d := range registry.Dispatchers() {
		if i > 0 {
			_, _ = fmt.Fprintln(ctx.Stdout)
		}
		_, _ = fmt.Fprintln(ctx.Stdout, handleStyle.Render(d.Name()))
		_, _ = fmt.Fprintln(ctx.Stdout, usageStyle.Render(d.Usage()))
	}

	return nil
}
