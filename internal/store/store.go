// Package store is the embedded relational store: typed repository methods
// over a SQLite database, one method per query with no transaction wrapping
// across statements, built on modernc.org/sqlite
// since the embedded store this platform specifies is SQLite, not
// Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/netsecio/netsecd/internal/necerr"
)

// Store wraps a SQLite connection pool and exposes typed repository
// methods for every table the platform defines.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at dsn and runs
// all pending migrations. dsn is a modernc.org/sqlite data source, e.g.
// "file:/var/lib/netsecd/netsec.db?_pragma=busy_timeout(5000)" or
// "file::memory:?cache=shared" for tests.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, necerr.Wrap(necerr.KindStore, "open sqlite database", err)
	}
	// SQLite allows only one writer at a time; a single connection avoids
	// "database is locked" errors under concurrent goroutines.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, necerr.Wrap(necerr.KindStore, "ping sqlite database", err)
	}
	// SQLite ignores ON DELETE CASCADE unless foreign keys are enabled on the
	// connection; the single pooled connection keeps this setting.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, necerr.Wrap(necerr.KindStore, "enable sqlite foreign keys", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("[store] opened database, %d migrations applied", len(migrations))
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers that need to build their
// own transactions across multiple repository calls.
func (s *Store) DB() *sql.DB {
	return s.db
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return necerr.Wrap(necerr.KindNotFound, op, err)
	}
	return necerr.Wrap(necerr.KindStore, op, err)
}

func wrapf(op string, err error, args ...any) error {
	if err == nil {
		return nil
	}
	return wrapStoreErr(fmt.Sprintf(op, args...), err)
}
