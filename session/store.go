// Package session stores per-user state in SQLite: whether the user has
// authenticated and the tags added to every transaction they create.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/robinvdvleuten/beancount-bot/ast"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       TEXT PRIMARY KEY,
	authenticated INTEGER NOT NULL DEFAULT 0,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_tags (
	user_id  TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	tag      TEXT NOT NULL,
	PRIMARY KEY (user_id, position)
);
`

// Store is a SQLite-backed session store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the session database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Authenticated reports whether user has authenticated. Unknown users have not.
func (s *Store) Authenticated(ctx context.Context, user string) (bool, error) {
	var authenticated bool
	err := s.db.QueryRowContext(ctx, `SELECT authenticated FROM users WHERE user_id = ?`, user).Scan(&authenticated)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session of %s: %w", user, err)
	}
	return authenticated, nil
}

// SetAuthenticated records whether user has authenticated.
func (s *Store) SetAuthenticated(ctx context.Context, user string, authenticated bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, authenticated) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET authenticated = excluded.authenticated, updated_at = CURRENT_TIMESTAMP`,
		user, authenticated)
	if err != nil {
		return fmt.Errorf("failed to update session of %s: %w", user, err)
	}
	return nil
}

// Tags returns the tags of user in the order they were set.
func (s *Store) Tags(ctx context.Context, user string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM user_tags WHERE user_id = ? ORDER BY position`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags of %s: %w", user, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to read tags of %s: %w", user, err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// SetTags replaces the tags of user. Tags are normalized and deduplicated.
// An empty list clears them.
func (s *Store) SetTags(ctx context.Context, user string, tags []string) error {
	tags = ast.MergeTags(tags)

	return s.transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`, user); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_tags WHERE user_id = ?`, user); err != nil {
			return err
		}
		for i, tag := range tags {
			if _, err := tx.ExecContext(ctx, `INSERT INTO user_tags (user_id, position, tag) VALUES (?, ?, ?)`, user, i, tag); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`, user)
		return err
	})
}

// transaction runs fn in a transaction, rolling back when fn fails.
func (s *Store) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
