package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sage-x-project/sage-connect/store"
)

// keyID mirrors the secure key store's "userkeypair_" ∥ pubkey naming
// convention.
func keyID(pubkey string) string {
	return "userkeypair_" + pubkey
}

// SavePrivateKey upserts the private key for pubkey.
func (s *Store) SavePrivateKey(ctx context.Context, pubkey string, d []byte) error {
	query := `
		INSERT INTO signer_keys (key_id, private_key)
		VALUES ($1, $2)
		ON CONFLICT (key_id) DO UPDATE SET private_key = EXCLUDED.private_key
	`
	if _, err := s.pool.Exec(ctx, query, keyID(pubkey), d); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	return nil
}

// PrivateKey retrieves the private key for pubkey.
func (s *Store) PrivateKey(ctx context.Context, pubkey string) ([]byte, error) {
	var d []byte
	err := s.pool.QueryRow(ctx, `SELECT private_key FROM signer_keys WHERE key_id = $1`, keyID(pubkey)).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	return d, nil
}
