package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/beancount-bot/config"
	"github.com/robinvdvleuten/beancount-bot/ledger"
	"github.com/robinvdvleuten/beancount-bot/manager"
)

// app holds what every ledger command needs.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *ledger.Store
	manager *manager.Manager

	closers []io.Closer
}

// loadConfig loads and validates the configuration named by the globals.
func loadConfig(globals *Globals, transport bool) (*config.Config, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, err
	}
	validate := cfg.ValidateLedger
	if transport {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp opens the ledger of cfg. With create a missing ledger file is
// created.
func openApp(ctx context.Context, logw io.Writer, globals *Globals, cfg *config.Config, create bool) (*app, error) {
	logger, err := newLogger(logw, globals, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	storeOpts := []ledger.Option{
		ledger.WithLogger(logger.With().Str("component", "ledger").Logger()),
		ledger.WithFormatter(cfg.Formatter()),
	}
	if create {
		storeOpts = append(storeOpts, ledger.WithCreate())
	}
	if path := cfg.Transaction.TombstoneFile; path != "" {
		tombstones, err := ledger.OpenBoltTombstones(path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, tombstones)
		storeOpts = append(storeOpts, ledger.WithTombstones(tombstones))
	}

	a.store, err = ledger.Open(ctx, cfg.Transaction.BeancountFile, storeOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.manager, err = a.newManager(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// newManager builds a manager for cfg on top of the app's ledger store.
func (a *app) newManager(cfg *config.Config) (*manager.Manager, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid dispatchers: %w", err)
	}
	return manager.New(registry, a.store,
		manager.WithLogger(a.logger.With().Str("component", "manager").Logger()),
		manager.WithDefaultTags(cfg.Transaction.Tags...),
		manager.WithFormatter(cfg.Formatter()),
	), nil
}

// Close releases everything openApp opened.
func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
