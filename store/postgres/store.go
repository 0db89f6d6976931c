// Package postgres implements store.ProfileStore and store.KeyStore
// backed by a PostgreSQL database via pgx, for a profile or fleet of
// profiles that needs durable state across restarts.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Store implements store.ProfileStore and store.KeyStore over a single
// connection pool and the schema created by Migrate.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore dials cfg and verifies connectivity with a Ping.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// schema is the DDL Migrate applies. Sessions cascade-delete with their
// owning profile, per the ownership invariant in the persisted state
// model.
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	pubkey       TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	attributes   JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	owner       TEXT NOT NULL REFERENCES profiles(pubkey) ON DELETE CASCADE,
	ours        TEXT NOT NULL,
	theirs      TEXT NOT NULL DEFAULT '',
	secret      TEXT NOT NULL,
	relays      JSONB NOT NULL DEFAULT '[]',
	permissions JSONB NOT NULL DEFAULT '[]',
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner);

CREATE TABLE IF NOT EXISTS signer_keys (
	key_id      TEXT PRIMARY KEY,
	private_key BYTEA NOT NULL
);
`

// Migrate creates the store's tables if they do not already exist.
func Migrate(ctx context.Context, s *Store) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
