// Package ledger owns the Beancount file the bot writes to.
//
// A Store appends transactions to the end of the file and removes them again
// by handle. Every appended transaction carries its handle as the first
// metadata line of its block:
//
//	2024-01-15 * "Lunch"
//	  bot-uuid: "7b1f6c1e-3c5e-4c3c-9a55-0d0f3c2b9d11"
//	  Assets:Cash                              -25.00 USD
//	  Expenses:Food                             25.00 USD
//
// The store keeps an index from handle to the byte range of its entry. The
// index is derived from the file at Open and Reload and is never the source
// of truth: if it cannot be built the store starts empty. Hand-written
// entries without a handle are left alone.
//
// Mutations are serialized by a guard owned by the store and are served in
// arrival order. A failed mutation leaves both the file and the index as
// they were.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/formatter"
	"github.com/robinvdvleuten/beancount-bot/telemetry"
)

// maxHandleAttempts bounds handle regeneration on collision.
const maxHandleAttempts = 8

// Range is the byte range [Start, End) of an entry in the ledger file. It
// covers the entry's lines and the blank line that separates it from the next.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the range.
func (r Range) Len() int64 { return r.End - r.Start }

// Store is the ledger file plus its handle index. It is safe for concurrent use.
type Store struct {
	path       string
	logger     zerolog.Logger
	formatter  *formatter.Formatter
	newHandle  func() string
	tombstones Tombstones
	create     bool

	// guard is held by the single mutation in flight. Waiting goroutines are
	// queued by the channel in arrival order.
	guard chan struct{}

	// Fields below are only accessed while holding guard.
	index map[string]Range
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithFormatter sets the formatter used to serialize appended transactions.
func WithFormatter(f *formatter.Formatter) Option {
	return func(s *Store) {
		if f != nil {
			s.formatter = f
		}
	}
}

// WithHandleGenerator replaces the random handle generator.
func WithHandleGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newHandle = gen
	}
}

// WithTombstones sets where removed handles are remembered. The default keeps
// them in memory for the lifetime of the store.
func WithTombstones(t Tombstones) Option {
	return func(s *Store) {
		s.tombstones = t
	}
}

// WithCreate creates the ledger file if it does not exist.
func WithCreate() Option {
	return func(s *Store) {
		s.create = true
	}
}

// Open opens the ledger at path and builds the handle index.
// The file must exist unless WithCreate is given.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:      path,
		logger:    zerolog.Nop(),
		formatter: formatter.Default,
		newHandle: uuid.NewString,
		guard:     make(chan struct{}, 1),
		index:     make(map[string]Range),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tombstones == nil {
		s.tombstones = NewMemoryTombstones()
	}

	flags := os.O_RDONLY
	if s.create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, filePerm)
	if err != nil {
		return nil, errors.Fatal("ledger.open", err)
	}
	_ = f.Close()

	s.lock()
	defer s.unlock()
	_ = s.rebuild(ctx)

	return s, nil
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

// Append assigns a new handle to txn, writes it to the end of the file and
// indexes it. txn.Handle is only set once the entry is durably written.
func (s *Store) Append(ctx context.Context, txn *ast.Transaction) (string, error) {
	_, timer := telemetry.StartTimer(ctx, "ledger.append")
	defer timer.End()

	s.lock()
	defer s.unlock()

	handle, err := s.generateHandle()
	if err != nil {
		return "", err
	}

	entry := txn.Clone()
	entry.Handle = handle
	block := []byte(s.formatter.Format(entry) + "\n")

	r, prefixed, err := appendEntry(s.path, block)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to append transaction")
		return "", errors.Fatal("ledger.append", err)
	}

	// A newline written in front of the entry ends an entry that was last in
	// a file without a trailing newline.
	if prefixed {
		for h, other := range s.index {
			if other.End == r.Start-1 {
				other.End = r.Start
				s.index[h] = other
			}
		}
	}

	s.index[handle] = r
	txn.Handle = handle

	s.logger.Info().Str("handle", handle).Int64("start", r.Start).Int64("end", r.End).Msg("transaction appended")
	return handle, nil
}

// Remove deletes the entry of handle from the file. The bytes before and
// after the entry are kept unchanged. An unknown handle is a user error.
//
// If the file was edited since the index was built and the indexed range no
// longer holds the entry, the index is rebuilt and the lookup retried.
func (s *Store) Remove(ctx context.Context, handle string) error {
	ctx, timer := telemetry.StartTimer(ctx, "ledger.remove")
	defer timer.End()

	s.lock()
	defer s.unlock()

	r, ok := s.index[handle]
	if !ok {
		return notFound(handle)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return errors.Fatal("ledger.remove", err)
	}

	if !entryAt(data, r, handle) {
		s.logger.Warn().Str("handle", handle).Msg("ledger changed on disk, rebuilding index")
		if err := s.rebuildFrom(ctx, data); err != nil {
			return errors.Fatal("ledger.remove", err)
		}
		if r, ok = s.index[handle]; !ok {
			return notFound(handle)
		}
	}

	updated := make([]byte, 0, int64(len(data))-r.Len())
	updated = append(updated, data[:r.Start]...)
	updated = append(updated, data[r.End:]...)

	if err := writeFileAtomic(s.path, updated); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to rewrite ledger")
		return errors.Fatal("ledger.remove", err)
	}

	delete(s.index, handle)
	for h, other := range s.index {
		if other.Start >= r.End {
			s.index[h] = Range{Start: other.Start - r.Len(), End: other.End - r.Len()}
		}
	}

	if err := s.tombstones.Add(handle); err != nil {
		// The entry is gone from the file; only reuse protection across
		// restarts is lost.
		s.logger.Error().Err(err).Str("handle", handle).Msg("failed to record removed handle")
	}

	s.logger.Info().Str("handle", handle).Int64("bytes", r.Len()).Msg("transaction removed")
	return nil
}

// Reload rebuilds the index from the file, e.g. after an external edit. On
// failure the index is left empty and the error is returned.
func (s *Store) Reload(ctx context.Context) error {
	s.lock()
	defer s.unlock()
	return s.rebuild(ctx)
}

// Handles returns the indexed handles in file order.
func (s *Store) Handles() []string {
	s.lock()
	defer s.unlock()

	handles := make([]string, 0, len(s.index))
	for h := range s.index {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		return s.index[handles[i]].Start < s.index[handles[j]].Start
	})
	return handles
}

// Lookup returns the indexed range of handle.
func (s *Store) Lookup(handle string) (Range, bool) {
	s.lock()
	defer s.unlock()
	r, ok := s.index[handle]
	return r, ok
}

func (s *Store) lock()   { s.guard <- struct{}{} }
func (s *Store) unlock() { <-s.guard }

func (s *Store) generateHandle() (string, error) {
	for i := 0; i < maxHandleAttempts; i++ {
		handle := s.newHandle()
		if handle == "" {
			continue
		}
		if _, taken := s.index[handle]; taken {
			continue
		}
		removed, err := s.tombstones.Contains(handle)
		if err != nil {
			return "", errors.Fatal("ledger.handle", err)
		}
		if !removed {
			return handle, nil
		}
	}
	return "", errors.Fatal("ledger.handle", fmt.Errorf("no unused handle after %d attempts", maxHandleAttempts))
}

func (s *Store) rebuild(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.index = make(map[string]Range)
		s.logger.Warn().Err(err).Str("path", s.path).Msg("cannot read ledger, starting with an empty index")
		return errors.Fatal("ledger.reload", err)
	}
	if err := s.rebuildFrom(ctx, data); err != nil {
		return errors.Fatal("ledger.reload", err)
	}
	return nil
}

// rebuildFrom replaces the index with one built from data. On failure the
// index is emptied.
func (s *Store) rebuildFrom(ctx context.Context, data []byte) error {
	_, timer := telemetry.StartTimer(ctx, "ledger.reload")
	defer timer.End()

	index, err := buildIndex(data, s.tombstones)
	if err != nil {
		s.index = make(map[string]Range)
		s.logger.Warn().Err(err).Str("path", s.path).Msg("cannot index ledger, starting with an empty index")
		return err
	}

	s.index = index
	s.logger.Debug().Int("entries", len(index)).Str("path", s.path).Msg("ledger indexed")
	return nil
}

// entryAt reports whether r still holds the entry of handle in data.
func entryAt(data []byte, r Range, handle string) bool {
	if r.Start < 0 || r.End > int64(len(data)) || r.Start >= r.End {
		return false
	}
	if r.Start > 0 && data[r.Start-1] != '\n' {
		return false
	}
	block := data[r.Start:r.End]
	if bytes.HasPrefix(block, []byte(" ")) || bytes.HasPrefix(block, []byte("\t")) {
		return false
	}
	got, ok := findHandle(block)
	return ok && got == handle
}

func notFound(handle string) error {
	return errors.User("Transaction %s was not found. It may have been withdrawn already.", handle)
}
