// This file implements an SQLite-backed source for profiles and activities.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteSource reads profiles and activities from an SQLite database.
type SQLiteSource struct {
	sqlSource
}

// NewSQLiteSource opens the SQLite database at the configured DSN. Missing tables are
// created empty.
func NewSQLiteSource(opts ...Option) (*SQLiteSource, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteSource invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("SQLiteSource DSN not set")
		return nil, fmt.Errorf("%w: database DSN not set", ErrDataLoad)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrDataLoad, err)
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %w", ErrDataLoad, err)
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("%w: run sqlite migrations: %w", ErrDataLoad, err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteSource{sqlSource{db: db, name: "SQLiteSource"}}, nil
}
