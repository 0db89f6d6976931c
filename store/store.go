// Package store defines the external collaborators the core protocol
// treats as abstract: a Profile Store for profiles and their sessions,
// and a Secure Key Store for the long-term private key.
package store

import (
	"context"
	"errors"

	"github.com/sage-x-project/sage-connect/session"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// ProfileRecord is the persisted form of a profile: its public key and
// display attributes, opaque to the core protocol.
type ProfileRecord struct {
	Pubkey      string
	DisplayName string
	Attributes  map[string]string
}

// ProfileStore loads and saves profiles and their sessions.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p *ProfileRecord) error
	LoadProfile(ctx context.Context, pubkey string) (*ProfileRecord, error)
	ListProfiles(ctx context.Context) ([]*ProfileRecord, error)
	DeleteProfile(ctx context.Context, pubkey string) error

	SaveSession(ctx context.Context, ownerPubkey string, s *session.Session) error
	LoadSessions(ctx context.Context, ownerPubkey string) ([]*session.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// KeyStore reads and writes a long-term private key. Implementations
// must not let the returned bytes outlive the call that requested
// them across an async suspension point.
type KeyStore interface {
	SavePrivateKey(ctx context.Context, pubkey string, d []byte) error
	PrivateKey(ctx context.Context, pubkey string) ([]byte, error)
}
