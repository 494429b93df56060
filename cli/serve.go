package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-bot/config"
	"github.com/robinvdvleuten/beancount-bot/manager"
	"github.com/robinvdvleuten/beancount-bot/session"
	"github.com/robinvdvleuten/beancount-bot/web"
)

type ServeCmd struct {
	Listen string `help:"Address to listen on (overrides bot.listen)."`
	Create bool   `help:"Automatically create the ledger file if it doesn't exist (no confirmation prompt)."`
	Watch  bool   `help:"Reload when the config or ledger file changes." default:"true" negatable:""`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(globals, true)
	if err != nil {
		return err
	}
	if cmd.Listen != "" {
		cfg.Bot.Listen = cmd.Listen
	}

	create, err := cmd.confirmCreate(ctx, cfg.Transaction.BeancountFile)
	if err != nil {
		return err
	}

	a, err := openApp(runCtx, ctx.Stderr, globals, cfg, create)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	sessions, err := session.Open(cfg.Session.File)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Close() }()

	ledgerPath := a.store.Path()

	// The ledger store outlives reloads so handles keep resolving. A changed
	// ledger path only takes effect after a restart.
	reload := func(ctx context.Context) (*manager.Manager, error) {
		next, err := loadConfig(globals, true)
		if err != nil {
			return nil, err
		}
		if next.Transaction.BeancountFile != ledgerPath {
			a.logger.Warn().
				Str("ledger", next.Transaction.BeancountFile).
				Msg("ledger path changed; restart to use it")
		}
		return a.newManager(next)
	}

	server := web.New(a.manager, sessions,
		web.WithLogger(a.logger.With().Str("component", "web").Logger()),
		web.WithAddr(cfg.Bot.Listen),
		web.WithAuthToken(cfg.Bot.AuthToken),
		web.WithReloader(reload),
	)

	if cmd.Watch {
		watcher, err := config.NewWatcher(config.WithWatchLogger(a.logger.With().Str("component", "watch").Logger()))
		if err != nil {
			return err
		}
		if err := watcher.Add(globals.Config, func() {
			m, err := reload(runCtx)
			if err != nil {
				a.logger.Error().Err(err).Msg("failed to reload config")
				return
			}
			server.SetManager(m)
			a.logger.Info().Msg("config reloaded")
		}); err != nil {
			return err
		}
		if err := watcher.Add(ledgerPath, func() {
			if err := a.store.Reload(runCtx); err != nil {
				a.logger.Warn().Err(err).Msg("failed to reindex ledger")
			}
		}); err != nil {
			return err
		}
		go watcher.Run(runCtx)
	}

	printInfof(ctx.Stdout, "Starting %s on %s", BuildVersion(), cfg.Bot.Listen)
	printInfof(ctx.Stdout, "Serving ledger: %s", pathStyle.Render(ledgerPath))

	return server.Start(runCtx)
}

// confirmCreate reports whether a missing ledger at path may be created.
func (cmd *ServeCmd) confirmCreate(ctx *kong.Context, path string) (bool, error) {
	if cmd.Create {
		return true, nil
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to access ledger: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	confirmed, err := promptYesNo(fmt.Sprintf("Ledger %q does not exist. Create it?", abs))
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !confirmed {
		return false, fmt.Errorf("ledger does not exist: %s", abs)
	}
	printInfof(ctx.Stdout, "Creating empty ledger: %s", pathStyle.Render(abs))
	return true, nil
}

// BuildVersion returns the name and version shown by --version.
func BuildVersion() string {
	version := Version
	if version == "" {
		version = "dev"
	}
	if CommitSHA == "" {
		return "beancount-bot " + version
	}
	return fmt.Sprintf("beancount-bot %s (%s)", version, CommitSHA)
}
