package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/sage-connect/session"
	"github.com/sage-x-project/sage-connect/store"
)

// SaveSession upserts sess under ownerPubkey.
func (s *Store) SaveSession(ctx context.Context, ownerPubkey string, sess *session.Session) error {
	relays, err := json.Marshal(sess.Relays)
	if err != nil {
		return fmt.Errorf("failed to marshal relays: %w", err)
	}
	perms, err := json.Marshal(sess.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		INSERT INTO sessions (session_id, owner, ours, theirs, secret, relays, permissions, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE
		SET theirs = EXCLUDED.theirs, status = EXCLUDED.status,
		    relays = EXCLUDED.relays, permissions = EXCLUDED.permissions
	`
	_, err = s.pool.Exec(ctx, query,
		sess.SessionID, ownerPubkey, sess.Ours, sess.Theirs, sess.Secret,
		relays, perms, string(sess.Status), sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSessions returns every session owned by ownerPubkey.
func (s *Store) LoadSessions(ctx context.Context, ownerPubkey string) ([]*session.Session, error) {
	query := `
		SELECT session_id, ours, theirs, secret, relays, permissions, status, created_at
		FROM sessions WHERE owner = $1 ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, ownerPubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		var sess session.Session
		var status string
		var relaysJSON, permsJSON []byte

		if err := rows.Scan(&sess.SessionID, &sess.Ours, &sess.Theirs, &sess.Secret,
			&relaysJSON, &permsJSON, &status, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.Status = session.Status(status)
		if err := json.Unmarshal(relaysJSON, &sess.Relays); err != nil {
			return nil, fmt.Errorf("failed to unmarshal relays: %w", err)
		}
		if err := json.Unmarshal(permsJSON, &sess.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
		out = append(out, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return out, nil
}

// DeleteSession removes a session by id.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
