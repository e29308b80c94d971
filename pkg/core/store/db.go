// Package store persists pipeline runs and transcript chunks.
//
// Postgres (pgx) is primary; a directory of JSON files serves when no
// database is configured.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS docintel_runs (
	request_id  TEXT PRIMARY KEY,
	ticker      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	insights    JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS docintel_events (
	id          BIGSERIAL PRIMARY KEY,
	request_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	payload     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS docintel_events_request_idx ON docintel_events (request_id);

CREATE TABLE IF NOT EXISTS docintel_chunks (
	request_id  TEXT NOT NULL,
	chunk_id    TEXT NOT NULL,
	source      TEXT NOT NULL,
	text        TEXT NOT NULL,
	embedding   vector,
	PRIMARY KEY (request_id, chunk_id)
);
`

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url not set")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables used by this package if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
