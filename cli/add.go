package cli

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/session"
)

type AddCmd struct {
	Text   []string `help:"Transaction text (read from stdin when omitted)." arg:"" optional:""`
	Tags   []string `help:"Additional tags for the transaction." short:"t"`
	User   string   `help:"Also apply the session tags of this bot user."`
	Create bool     `help:"Create the ledger file if it does not exist."`
}

func (cmd *AddCmd) Run(ctx *kong.Context, globals *Globals) error {
	text, err := readText(cmd.Text)
	if err != nil {
		return reportError(ctx, "", err)
	}

	cfg, err := loadConfig(globals, false)
	if err != nil {
		return err
	}

	runCtx, report := startTelemetry(ctx, globals)
	defer report()

	a, err := openApp(runCtx, ctx.Stderr, globals, cfg, cmd.Create)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tags := cmd.Tags
	if cmd.User != "" {
		sessions, err := session.Open(cfg.Session.File)
		if err != nil {
			return err
		}
		defer func() { _ = sessions.Close() }()

		sessionTags, err := sessions.Tags(runCtx, cmd.User)
		if err != nil {
			return err
		}
		tags = ast.MergeTags(sessionTags, cmd.Tags)
	}

	handle, txn, err := a.manager.CreateFromString(runCtx, text, tags)
	if err != nil {
		return reportError(ctx, text, err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Recorded transaction %s", handleStyle.Render(handle)))
	printEntry(ctx.Stdout, a.manager.Stringify(txn))

	return nil
}

type WithdrawCmd struct {
	Handle string `help:"Handle of the transaction to withdraw." arg:""`
	Yes    bool   `help:"Do not ask for confirmation." short:"y"`
}

func (cmd *WithdrawCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := loadConfig(globals, false)
	if err != nil {
		return err
	}

	if !cmd.Yes {
		if !isTerminal(os.Stdin) {
			return reportError(ctx, "", errors.User("Refusing to withdraw without a terminal; pass --yes."))
		}
		confirmed, err := promptYesNo(fmt.Sprintf("Withdraw transaction %s?", cmd.Handle))
		if err != nil {
			return err
		}
		if !confirmed {
			printInfof(ctx.Stdout, "Nothing withdrawn")
			return nil
		}
	}

	runCtx, report := startTelemetry(ctx, globals)
	defer report()

	a, err := openApp(runCtx, ctx.Stderr, globals, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.manager.Remove(runCtx, cmd.Handle); err != nil {
		return reportError(ctx, "", err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Withdrew transaction %s from %s",
		handleStyle.Render(cmd.Handle), pathStyle.Render(a.store.Path())))

	return nil
}
