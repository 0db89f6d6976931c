// Package memory is an in-process store.ProfileStore and store.KeyStore
// implementation, used for tests and the CLI demo.
package memory

import (
	"context"
	"sync"

	"github.com/sage-x-project/sage-connect/session"
	"github.com/sage-x-project/sage-connect/store"
)

// Store implements both store.ProfileStore and store.KeyStore in
// memory, guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*store.ProfileRecord
	sessions map[string]*session.Session
	keys     map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		profiles: make(map[string]*store.ProfileRecord),
		sessions: make(map[string]*session.Session),
		keys:     make(map[string][]byte),
	}
}

func (s *Store) SaveProfile(ctx context.Context, p *store.ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.Pubkey] = &cp
	return nil
}

func (s *Store) LoadProfile(ctx context.Context, pubkey string) (*store.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[pubkey]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListProfiles returns every stored profile.
func (s *Store) ListProfiles(ctx context.Context) ([]*store.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*store.ProfileRecord, 0, len(s.profiles))
	for _, p := range s.profiles {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// DeleteProfile removes a profile and cascades to its sessions, per
// the ownership rule that a profile owns its sessions.
func (s *Store) DeleteProfile(ctx context.Context, pubkey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[pubkey]; !ok {
		return store.ErrNotFound
	}
	delete(s.profiles, pubkey)
	for id, sess := range s.sessions {
		if sess.Ours == pubkey {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *Store) SaveSession(ctx context.Context, ownerPubkey string, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.SessionID] = &cp
	return nil
}

func (s *Store) LoadSessions(ctx context.Context, ownerPubkey string) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*session.Session
	for _, sess := range s.sessions {
		if sess.Ours == ownerPubkey {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return store.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// keyStoreKey mirrors the secure key store's "userkeypair_" ∥ pubkey
// naming convention, even though this backend's map never surfaces the
// key externally.
func keyStoreKey(pubkey string) string {
	return "userkeypair_" + pubkey
}

func (s *Store) SavePrivateKey(ctx context.Context, pubkey string, d []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), d...)
	s.keys[keyStoreKey(pubkey)] = cp
	return nil
}

func (s *Store) PrivateKey(ctx context.Context, pubkey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.keys[keyStoreKey(pubkey)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), d...), nil
}
