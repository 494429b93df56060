// Package manager records free-text transactions in a ledger and withdraws
// them again.
//
// A Manager parses text with a dispatcher registry and persists the result
// with a ledger store. It is safe for concurrent use; mutations are
// serialized by the store in arrival order.
package manager

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/dispatcher"
	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/formatter"
	"github.com/robinvdvleuten/beancount-bot/telemetry"
)

// Ledger persists transactions. *ledger.Store implements it.
type Ledger interface {
	Append(ctx context.Context, txn *ast.Transaction) (string, error)
	Remove(ctx context.Context, handle string) error
}

// DispatcherInfo describes a configured dispatcher for help output.
type DispatcherInfo struct {
	Name  string `json:"name"`
	Usage string `json:"usage"`
}

// Manager is the entry point used by transports.
type Manager struct {
	registry    *dispatcher.Registry
	ledger      Ledger
	formatter   *formatter.Formatter
	defaultTags []string
	logger      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultTags sets the tags added to every transaction.
func WithDefaultTags(tags ...string) Option {
	return func(m *Manager) {
		m.defaultTags = ast.MergeTags(tags)
	}
}

// WithFormatter sets the formatter used by Stringify.
func WithFormatter(f *formatter.Formatter) Option {
	return func(m *Manager) {
		if f != nil {
			m.formatter = f
		}
	}
}

// New creates a Manager. The registry's dispatcher order is fixed for the
// lifetime of the manager.
func New(registry *dispatcher.Registry, ledger Ledger, opts ...Option) *Manager {
	m := &Manager{
		registry:  registry,
		ledger:    ledger,
		formatter: formatter.Default,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateFromString parses text, adds the default tags, addTags and the tags
// parsed from the text (in that order), and appends the transaction to the
// ledger. It returns the handle and the final transaction.
//
// Text no dispatcher understands and malformed text fail with a
// *errors.UserError. Nothing is written in that case.
func (m *Manager) CreateFromString(ctx context.Context, text string, addTags []string) (string, *ast.Transaction, error) {
	ctx, timer := telemetry.StartTimer(ctx, "manager.create")
	defer timer.End()

	_, parseTimer := telemetry.StartTimer(ctx, "registry.parse")
	txn, d, err := m.registry.SelectAndParse(text)
	parseTimer.End()
	if err != nil {
		m.logError(err, "failed to parse transaction")
		return "", nil, err
	}

	txn.Tags = ast.MergeTags(m.defaultTags, addTags, txn.Tags)

	handle, err := m.ledger.Append(ctx, txn)
	if err != nil {
		m.logError(err, "failed to record transaction")
		return "", nil, err
	}

	m.logger.Info().
		Str("handle", handle).
		Str("dispatcher", d.Name()).
		Strs("tags", txn.Tags).
		Msg("transaction created")

	return handle, txn, nil
}

// Remove withdraws the transaction recorded under handle. An unknown handle
// fails with a *errors.UserError.
func (m *Manager) Remove(ctx context.Context, handle string) error {
	ctx, timer := telemetry.StartTimer(ctx, "manager.remove")
	defer timer.End()

	if err := m.ledger.Remove(ctx, handle); err != nil {
		m.logError(err, "failed to remove transaction")
		return err
	}
	return nil
}

// Stringify returns the canonical ledger text of txn.
func (m *Manager) Stringify(txn *ast.Transaction) string {
	return m.formatter.Format(txn)
}

// Dispatchers lists the configured dispatchers in selection order.
func (m *Manager) Dispatchers() []DispatcherInfo {
	ds := m.registry.Dispatchers()
	infos := make([]DispatcherInfo, len(ds))
	for i, d := range ds {
		infos[i] = DispatcherInfo{Name: d.Name(), Usage: d.Usage()}
	}
	return infos
}

// Usage returns the usage of the dispatcher called name, ignoring case.
func (m *Manager) Usage(name string) (DispatcherInfo, error) {
	d, ok := m.registry.Lookup(name)
	if !ok {
		return DispatcherInfo{}, errors.User("There is no syntax called %q. Available: %s.", name, strings.Join(m.registry.Names(), ", "))
	}
	return DispatcherInfo{Name: d.Name(), Usage: d.Usage()}, nil
}

// DefaultTags returns the tags added to every transaction.
func (m *Manager) DefaultTags() []string {
	return append([]string(nil), m.defaultTags...)
}

func (m *Manager) logError(err error, msg string) {
	if errors.IsFatal(err) {
		m.logger.Error().Err(err).Msg(msg)
		return
	}
	m.logger.Debug().Err(err).Msg(msg)
}
