package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAuthenticated(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	ok, err := s.Authenticated(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.SetAuthenticated(ctx, "alice", true))
	ok, err = s.Authenticated(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Authenticated(ctx, "bob")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.SetAuthenticated(ctx, "alice", false))
	ok, err = s.Authenticated(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTags(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tags, err := s.Tags(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(tags))

	assert.NoError(t, s.SetTags(ctx, "alice", []string{"#trip", "work", "trip", " "}))
	tags, err = s.Tags(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, []string{"trip", "work"}, tags)

	assert.NoError(t, s.SetTags(ctx, "alice", []string{"home"}))
	tags, err = s.Tags(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, []string{"home"}, tags)

	// Setting tags does not authenticate.
	ok, err := s.Authenticated(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.SetTags(ctx, "alice", nil))
	tags, err = s.Tags(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(tags))
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	ctx := context.Background()

	s, err := Open(path)
	assert.NoError(t, err)
	assert.NoError(t, s.SetAuthenticated(ctx, "alice", true))
	assert.NoError(t, s.SetTags(ctx, "alice", []string{"a", "b"}))
	assert.NoError(t, s.Close())

	s, err = Open(path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ok, err := s.Authenticated(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, ok)

	tags, err := s.Tags(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}
