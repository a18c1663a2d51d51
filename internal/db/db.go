// Package db provides PostgreSQL storage for CareerOmni sessions.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id                   UUID PRIMARY KEY,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL,
	resume_filename      TEXT NOT NULL DEFAULT '',
	resume_text          TEXT NOT NULL DEFAULT '',
	revision             INTEGER NOT NULL DEFAULT 0,
	analysis_complete    BOOLEAN NOT NULL DEFAULT FALSE,
	analysis             TEXT NOT NULL DEFAULT '',
	analyzed_at          TIMESTAMPTZ,
	job_description      TEXT NOT NULL DEFAULT '',
	generated_resume     TEXT NOT NULL DEFAULT '',
	has_generated_resume BOOLEAN NOT NULL DEFAULT FALSE
);
ALTER TABLE sessions ADD COLUMN IF NOT EXISTS revision INTEGER NOT NULL DEFAULT 0;
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions (updated_at);
`

// EnsureSchema creates the sessions table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
