// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Store is shire's embedded database handle. It is safe for concurrent use:
// writes (via Begin) hold an exclusive lock until Commit or Rollback, which
// is the single-writer model spec.md §5 requires; reads go straight to the
// database handle and take no lock.
type Store struct {
	db       *sql.DB
	mu       sync.RWMutex
	path     string
	readOnly bool
}

// Open opens (creating if necessary) the database at path in read-write
// mode, applies pragmas, and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer; avoid concurrent-writer SQLITE_BUSY churn

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing database file read-only, for the serving
// layer (spec.md §6: "the serving layer opens the same file read-only").
// It is an error if the file does not already exist.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database read-only: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite read-only: %w", err)
	}
	return &Store{db: db, path: path, readOnly: true}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying *sql.DB for advanced read-only queries (used by
// diff phases that need to read state ahead of a write transaction). Callers
// must not write through it directly — use Begin for all mutation.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Tx is one phase's transaction: a bounded unit of deletes and batched
// inserts that either commits in full or rolls back in full, per spec.md
// §4.1's "each phase runs inside one explicit transaction" rule.
type Tx struct {
	tx      *sql.Tx
	store   *Store
	done    bool
	release func()
}

// Begin starts a new write transaction, holding the store's exclusive lock
// until Commit or Rollback is called.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	if s.readOnly {
		return nil, fmt.Errorf("store opened read-only: cannot begin write transaction")
	}
	s.mu.Lock()
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	released := false
	release := func() {
		if !released {
			released = true
			s.mu.Unlock()
		}
	}
	return &Tx{tx: sqlTx, store: s, release: release}, nil
}

// Commit commits the transaction and releases the store's write lock.
func (t *Tx) Commit() error {
	defer t.release()
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	return t.tx.Commit()
}

// Rollback rolls back the transaction and releases the store's write lock.
// Calling Rollback after a successful Commit is a no-op, mirroring
// database/sql's own semantics, so callers can unconditionally `defer
// tx.Rollback()` after Begin.
func (t *Tx) Rollback() error {
	defer t.release()
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

// queryRower abstracts over *sql.DB and *sql.Tx for read helpers that are
// useful both inside a phase transaction and against the store directly.
type queryRower interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ queryRower = (*sql.DB)(nil)
var _ queryRower = (*sql.Tx)(nil)

// execer abstracts over *sql.DB and *sql.Tx for write helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var _ execer = (*sql.DB)(nil)
var _ execer = (*sql.Tx)(nil)
