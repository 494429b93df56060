package dispatcher

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
)

// Definition configures one dispatcher. Args is decoded by the factory
// registered for Type.
type Definition struct {
	Name string    `yaml:"name"`
	Type string    `yaml:"type"`
	Args yaml.Node `yaml:"args"`
}

// Factory builds a dispatcher from its configured name and arguments.
// args is never nil; it is a zero node when the definition has no args.
type Factory func(name string, args *yaml.Node) (Dispatcher, error)

var factories = map[string]Factory{
	"beancount": NewBeancount,
	"shorthand": NewShorthand,
	"template":  NewTemplate,
}

// Types returns the names of the built-in dispatcher types, sorted.
func Types() []string {
	types := maps.Keys(factories)
	slices.Sort(types)
	return types
}

// Registry is an ordered, immutable list of dispatchers.
type Registry struct {
	dispatchers []Dispatcher
	factories   map[string]Factory
}

// Option configures a Registry built by NewRegistry.
type Option func(*Registry)

// WithFactory registers an additional dispatcher type, or replaces a built-in one.
func WithFactory(typ string, factory Factory) Option {
	return func(r *Registry) {
		r.factories[typ] = factory
	}
}

// NewRegistry builds dispatchers from definitions, keeping their order.
// Names must be unique, compared case-insensitively.
func NewRegistry(defs []Definition, opts ...Option) (*Registry, error) {
	r := &Registry{factories: maps.Clone(factories)}
	for _, opt := range opts {
		opt(r)
	}

	seen := make(map[string]bool, len(defs))
	for i, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("dispatcher %d: name is required", i+1)
		}
		key := strings.ToLower(def.Name)
		if seen[key] {
			return nil, fmt.Errorf("dispatcher %q: duplicate name", def.Name)
		}
		seen[key] = true

		factory, ok := r.factories[def.Type]
		if !ok {
			available := maps.Keys(r.factories)
			slices.Sort(available)
			return nil, fmt.Errorf("dispatcher %q: unknown type %q (available: %s)",
				def.Name, def.Type, strings.Join(available, ", "))
		}

		args := def.Args
		d, err := factory(def.Name, &args)
		if err != nil {
			return nil, fmt.Errorf("dispatcher %q: %w", def.Name, err)
		}
		r.dispatchers = append(r.dispatchers, d)
	}

	return r, nil
}

// New creates a Registry from already constructed dispatchers.
func New(dispatchers ...Dispatcher) *Registry {
	return &Registry{dispatchers: slices.Clone(dispatchers)}
}

// Dispatchers returns the dispatchers in selection order.
func (r *Registry) Dispatchers() []Dispatcher {
	return slices.Clone(r.dispatchers)
}

// Names returns the dispatcher names in selection order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.dispatchers))
	for i, d := range r.dispatchers {
		names[i] = d.Name()
	}
	return names
}

// Lookup finds a dispatcher by name, ignoring case.
func (r *Registry) Lookup(name string) (Dispatcher, bool) {
	for _, d := range r.dispatchers {
		if strings.EqualFold(d.Name(), name) {
			return d, true
		}
	}
	return nil, false
}

// SelectAndParse asks each dispatcher in order. The first one that does not
// decline decides the outcome: its transaction or its error is returned
// without trying later dispatchers. When all decline, the error lists the
// available dispatchers.
//
// The returned transaction has RawText and Dispatcher filled in.
func (r *Registry) SelectAndParse(text string) (*ast.Transaction, Dispatcher, error) {
	text = strings.TrimSpace(text)

	for _, d := range r.dispatchers {
		txn, err := d.TryParse(text)
		switch {
		case errors.Is(err, ErrDeclined):
			continue
		case err != nil:
			if _, ok := errors.AsUser(err); ok {
				return nil, d, err
			}
			return nil, d, errors.Fatal("dispatcher "+d.Name(), err)
		case txn == nil:
			return nil, d, errors.Fatal("dispatcher "+d.Name(), errors.New("no transaction returned"))
		}

		txn.RawText = text
		txn.Dispatcher = d.Name()
		return txn, d, nil
	}

	return nil, nil, r.noMatch()
}

func (r *Registry) noMatch() error {
	if len(r.dispatchers) == 0 {
		return errors.User("No syntax is configured to record transactions.")
	}
	return errors.User("None of the configured syntaxes understood that. Available: %s. Ask for help to see their usage.",
		strings.Join(r.Names(), ", "))
}
