// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNotFound is returned by Get when no document exists for the key.
// Absence is an expected outcome for every document the store holds
// (an empty ledger, unset room options) — callers branch on it, they
// do not log it.
var ErrNotFound = fmt.Errorf("memstore: key not found")

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist. The file is created if it does not
	// exist. Use ":memory:" for an in-memory database (useful in
	// tests, but the pool size must be 1 since each in-memory
	// connection is independent).
	Path string

	// PoolSize is the number of connections in the pool. If zero or
	// negative, defaults to max(runtime.NumCPU(), 4). The store is
	// write-light — the default is generous.
	PoolSize int

	// Logger receives operational messages (store open/close, pragma
	// errors). If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Store is a SQLite-backed key-value document store. Values are
// JSON-encoded. Store is safe for concurrent use.
type Store struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Open creates or opens the store at cfg.Path, applying standard
// pragmas to every connection and creating the schema if absent.
// The caller must call Close when the store is no longer needed.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("memstore: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}
	if cfg.Path == ":memory:" {
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("memstore: opening %s: %w", cfg.Path, err)
	}

	logger.Info("document store opened",
		"path", cfg.Path,
		"pool_size", poolSize,
	)

	return &Store{
		pool:   pool,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// Get reads the document stored under key and JSON-decodes it into
// value. Returns ErrNotFound if no document exists for the key.
func (s *Store) Get(ctx context.Context, key string, value any) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("memstore: take connection: %w", err)
	}
	defer s.pool.Put(conn)

	var raw string
	found := false
	err = sqlitex.Execute(conn, "SELECT value FROM documents WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			raw = stmt.ColumnText(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("memstore: get %q: %w", key, err)
	}
	if !found {
		return ErrNotFound
	}

	if err := json.Unmarshal([]byte(raw), value); err != nil {
		return fmt.Errorf("memstore: decode %q: %w", key, err)
	}
	return nil
}

// Put JSON-encodes value and stores it under key, replacing any
// existing document.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memstore: encode %q: %w", key, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("memstore: take connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO documents (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		&sqlitex.ExecOptions{Args: []any{key, string(encoded)}},
	)
	if err != nil {
		return fmt.Errorf("memstore: put %q: %w", key, err)
	}
	return nil
}

// Delete removes the document stored under key. Deleting a missing key
// is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("memstore: take connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM documents WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
	})
	if err != nil {
		return fmt.Errorf("memstore: delete %q: %w", key, err)
	}
	return nil
}

// Close closes all connections in the pool. Blocks until all borrowed
// connections are returned.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		s.logger.Error("document store close error",
			"path", s.path,
			"error", err,
		)
		return fmt.Errorf("memstore: closing %s: %w", s.path, err)
	}
	s.logger.Info("document store closed", "path", s.path)
	return nil
}

// prepareConnection applies standard pragmas and creates the schema.
// This runs once per connection in the pool, on first use.
func prepareConnection(conn *sqlite.Conn) error {
	// WAL mode: concurrent readers, single writer, no reader blocking.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("memstore: %s: %w", pragma, err)
		}
	}

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("memstore: creating schema: %w", err)
	}
	return nil
}
