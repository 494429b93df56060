package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// CheckCmd indexes the ledger the way the bot does on startup and fails when
// the index cannot be built.
type CheckCmd struct {
	List bool `help:"List the indexed handles." short:"l"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := loadConfig(globals, false)
	if err != nil {
		return err
	}

	runCtx, report := startTelemetry(ctx, globals)
	defer report()

	a, err := openApp(runCtx, ctx.Stderr, globals, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// Open only warns about a ledger it cannot index.
	if err := a.store.Reload(runCtx); err != nil {
		printError(ctx.Stderr, fmt.Sprintf("%s cannot be indexed: %v", a.store.Path(), err))
		return NewCommandError(1, err)
	}

	handles := a.store.Handles()
	if cmd.List {
		for _, handle := range handles {
			r, _ := a.store.Lookup(handle)
			_, _ = fmt.Fprintf(ctx.Stdout, "%s  %d-%d\n", handleStyle.Render(handle), r.Start, r.End)
		}
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("%s: %d withdrawable transactions",
		pathStyle.Render(a.store.Path()), len(handles)))

	return nil
}
