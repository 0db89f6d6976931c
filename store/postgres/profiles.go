package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sage-x-project/sage-connect/store"
)

// SaveProfile upserts p.
func (s *Store) SaveProfile(ctx context.Context, p *store.ProfileRecord) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	query := `
		INSERT INTO profiles (pubkey, display_name, attributes)
		VALUES ($1, $2, $3)
		ON CONFLICT (pubkey) DO UPDATE
		SET display_name = EXCLUDED.display_name, attributes = EXCLUDED.attributes
	`
	if _, err := s.pool.Exec(ctx, query, p.Pubkey, p.DisplayName, attrs); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadProfile retrieves a profile by pubkey.
func (s *Store) LoadProfile(ctx context.Context, pubkey string) (*store.ProfileRecord, error) {
	query := `SELECT pubkey, display_name, attributes FROM profiles WHERE pubkey = $1`

	var p store.ProfileRecord
	var attrsJSON []byte
	err := s.pool.QueryRow(ctx, query, pubkey).Scan(&p.Pubkey, &p.DisplayName, &attrsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if len(attrsJSON) > 0 {
		if err := json.Unmarshal(attrsJSON, &p.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
		}
	}
	return &p, nil
}

// ListProfiles returns every stored profile.
func (s *Store) ListProfiles(ctx context.Context) ([]*store.ProfileRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT pubkey, display_name, attributes FROM profiles ORDER BY pubkey`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []*store.ProfileRecord
	for rows.Next() {
		var p store.ProfileRecord
		var attrsJSON []byte
		if err := rows.Scan(&p.Pubkey, &p.DisplayName, &attrsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if len(attrsJSON) > 0 {
			if err := json.Unmarshal(attrsJSON, &p.Attributes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
			}
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return out, nil
}

// DeleteProfile removes a profile; its sessions cascade via the
// foreign key ON DELETE CASCADE.
func (s *Store) DeleteProfile(ctx context.Context, pubkey string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE pubkey = $1`, pubkey)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
