package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	sqliteFileName   = "store.db"
	maxBusyRetries   = 5
	sqliteReaderConn = 4
)

// SQLiteStore implements Store on a SQLite database with separate reader and
// writer pools. The writer pool holds a single connection and every
// multi-slot write runs in one transaction.
type SQLiteStore struct {
	writer *sql.DB
	reader *sql.DB
}

// NewSQLiteStore opens (or creates) store.db in dir, or in DefaultDataDir
// when dir is empty, and applies pending migrations.
func NewSQLiteStore(ctx context.Context, dir string) (*SQLiteStore, error) {
	if dir == "" {
		dir = DefaultDataDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		filepath.Join(dir, sqliteFileName),
	)
	return OpenSQLiteStore(ctx, dsn)
}

// OpenSQLiteStore opens a store from a full DSN and applies pending migrations.
func OpenSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(sqliteReaderConn)

	if err := reader.PingContext(ctx); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	if err := RunMigrations(writer); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, err
	}

	return &SQLiteStore{writer: writer, reader: reader}, nil
}

// Get reads the named slots in a single query.
func (s *SQLiteStore) Get(ctx context.Context, names ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(names))
	if len(names) == 0 {
		return out, nil
	}

	query := `SELECT name, value FROM slots WHERE name IN (` + placeholders(len(names)) + `)`
	rows, err := s.reader.QueryContext(ctx, query, toArgs(names)...)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value []byte
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return out, nil
}

// Set upserts every item in one transaction.
func (s *SQLiteStore) Set(ctx context.Context, items map[string][]byte) error {
	if len(items) == 0 {
		return nil
	}

	const query = `INSERT OR REPLACE INTO slots (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		for name, value := range items {
			if _, err := tx.ExecContext(ctx, query, name, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set slots: %w", err)
	}
	return nil
}

// Remove deletes the named slots in one transaction.
func (s *SQLiteStore) Remove(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	query := `DELETE FROM slots WHERE name IN (` + placeholders(len(names)) + `)`
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, toArgs(names)...)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove slots: %w", err)
	}
	return nil
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (s *SQLiteStore) Close() error {
	var firstErr error

	if err := s.reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := s.writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}

// withWriteTx runs fn in a writer transaction, retrying with exponential
// backoff while another process holds the database lock.
func (s *SQLiteStore) withWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	op := func() error {
		tx, err := s.writer.BeginTx(ctx, nil)
		if err != nil {
			return retryable(err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return retryable(err)
		}
		if err := tx.Commit(); err != nil {
			return retryable(err)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxBusyRetries),
		ctx,
	)
	return backoff.Retry(op, policy)
}

// retryable marks every error except SQLITE_BUSY/SQLITE_LOCKED as permanent.
func retryable(err error) error {
	if isBusy(err) {
		return err
	}
	return backoff.Permanent(err)
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(names []string) []any {
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = name
	}
	return args
}
