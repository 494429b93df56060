package ledger

import (
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Tombstones remembers handles that were removed so they are never issued
// or indexed again.
type Tombstones interface {
	Add(handle string) error
	Contains(handle string) (bool, error)
}

// MemoryTombstones keeps removed handles for the lifetime of the process.
type MemoryTombstones struct {
	mu      sync.Mutex
	handles map[string]struct{}
}

// NewMemoryTombstones creates an empty in-memory set.
func NewMemoryTombstones() *MemoryTombstones {
	return &MemoryTombstones{handles: make(map[string]struct{})}
}

func (m *MemoryTombstones) Add(handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[handle] = struct{}{}
	return nil
}

func (m *MemoryTombstones) Contains(handle string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handles[handle]
	return ok, nil
}

const bucketRemoved = "removed"

// BoltTombstones persists removed handles in a bbolt database, so they stay
// invalid across restarts. Values are the removal time in RFC 3339.
type BoltTombstones struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBoltTombstones opens or creates the database at path.
func OpenBoltTombstones(path string) (*BoltTombstones, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open tombstone database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRemoved))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketRemoved, err)
	}

	return &BoltTombstones{db: db, now: time.Now}, nil
}

func (b *BoltTombstones) Add(handle string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRemoved)).Put([]byte(handle), []byte(b.now().UTC().Format(time.RFC3339)))
	})
}

func (b *BoltTombstones) Contains(handle string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(bucketRemoved)).Get([]byte(handle)) != nil
		return nil
	})
	return found, err
}

// Close closes the database.
func (b *BoltTombstones) Close() error {
	return b.db.Close()
}
