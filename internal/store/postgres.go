// This file implements a PostgreSQL-backed source for profiles and activities.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 4
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 2
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresSource reads profiles and activities from PostgreSQL.
type PostgresSource struct {
	sqlSource
}

// NewPostgresSource connects to the configured DSN and ensures the tables exist.
func NewPostgresSource(opts ...Option) (*PostgresSource, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresSource.NewPostgresSource: creating Postgres source", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresSource DSN not set")
		return nil, fmt.Errorf("%w: database DSN not set", ErrDataLoad)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, fmt.Errorf("%w: open postgres: %w", ErrDataLoad, err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrDataLoad, err)
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("%w: run postgres migrations: %w", ErrDataLoad, err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresSource{sqlSource{db: db, name: "PostgresSource"}}, nil
}
