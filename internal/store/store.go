// Package store provides SQLite-backed persistence for verse references and
// the annotations (tags, notes) attached to them.
//
// All mutable state of the annotation subsystem lives here; callers reach it
// only through the request/response methods of Store, never through aliased
// rows. Every multi-row write runs inside one transaction, and transient
// constraint failures under concurrent writers are retried once with a fresh
// transaction before being surfaced.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"
	"strings"
	"time"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/core/sqlite"
	"github.com/FocuswithJustin/CedarBible/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is the storage format for timestamps.
const timeLayout = time.RFC3339

// Store provides access to the annotation database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the annotation database at path, configures WAL
// mode and pragmas, runs the schema, and seeds the book catalog from dir.
func Open(path string, dir *books.Directory, logger *slog.Logger) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewStorage("open database", err)
	}

	// Single-writer discipline; SQLite serializes writes anyway.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.NewStorage("exec "+pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.NewStorage("exec schema", err)
	}

	if logger == nil {
		logger = logging.GetLogger()
	}
	s := &Store{db: db, logger: logger}

	if err := s.seedBooks(dir); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for maintenance operations (snapshots).
func (s *Store) DB() *sql.DB {
	return s.db
}

// seedBooks mirrors the canonical catalog into the books table so foreign
// keys and joins have a stable target. Idempotent.
func (s *Store) seedBooks(dir *books.Directory) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewStorage("seed books", err)
	}
	defer tx.Rollback()

	for _, b := range dir.Books() {
		_, err := tx.Exec(`
			INSERT INTO books (ordinal, short_title, long_title, testament)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (short_title) DO UPDATE SET
				ordinal = excluded.ordinal,
				long_title = excluded.long_title,
				testament = excluded.testament`,
			b.Ordinal, b.ShortTitle, b.LongTitle, string(b.Testament))
		if err != nil {
			return errors.NewStorage("seed books", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorage("seed books", err)
	}
	return nil
}

// isRetryable reports whether a write failure is a transient effect of a
// concurrent writer (constraint race or lock contention) rather than a
// caller bug.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// withTx runs fn inside a transaction, bumps the meta record on success, and
// retries once with a fresh transaction when the failure looks transient.
func (s *Store) withTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	run := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := touchMeta(tx); err != nil {
			return err
		}
		return tx.Commit()
	}

	err := run()
	if err != nil && isRetryable(err) {
		logging.StoreRetry(operation, err)
		err = run()
	}
	if err != nil {
		// Typed domain errors pass through untouched.
		if errors.Is(err, errors.ErrDuplicateTag) || errors.Is(err, errors.ErrNotFound) ||
			errors.Is(err, errors.ErrInvalidInput) {
			return err
		}
		return errors.NewStorage(operation, err)
	}
	return nil
}

// touchMeta records the commit time of the enclosing write transaction.
func touchMeta(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT INTO meta_records (id, last_update) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_update = excluded.last_update`,
		formatTime(time.Now().UTC()))
	return err
}

// LastMetaUpdate returns the time of the most recent write transaction.
// Returns the zero time when no write has happened yet.
func (s *Store) LastMetaUpdate(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_update FROM meta_records WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.NewStorage("read meta record", err)
	}
	return parseTime(raw)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing stored timestamp %q", raw)
	}
	return t, nil
}
