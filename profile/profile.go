// Package profile implements the identity façade (C9): it owns the
// active profile's long-term key, its session engine, and the relay
// façade feeding it, and wires the three into the create/open/scan
// operations a client or remote signer application drives directly.
package profile

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/sage-x-project/sage-connect/connecturi"
	"github.com/sage-x-project/sage-connect/crypto/cipher"
	"github.com/sage-x-project/sage-connect/crypto/curve"
	"github.com/sage-x-project/sage-connect/crypto/event"
	"github.com/sage-x-project/sage-connect/internal/logger"
	"github.com/sage-x-project/sage-connect/relay"
	"github.com/sage-x-project/sage-connect/rpc"
	"github.com/sage-x-project/sage-connect/session"
	"github.com/sage-x-project/sage-connect/store"
)

var (
	ErrNoActiveProfile      = errors.New("profile: no active profile")
	ErrInvalidPrivateKeyHex = errors.New("profile: invalid private key hex")
)

// Metadata is the subset of a bootstrap URI's display fields a caller
// supplies when opening a session.
type Metadata struct {
	Name  string
	URL   string
	Image string
}

// Hooks are the identity façade's events, fired for the active
// profile's sessions only.
type Hooks struct {
	OnSessionStateChanged func(*session.Session)
	OnPingReceived        func(*rpc.Response)
}

// Profile is the identity façade: the active profile's pubkey, its
// secure key store, its session engine, and the relay façade that
// feeds inbound events to it.
type Profile struct {
	mu     sync.Mutex
	pubkey string

	profiles store.ProfileStore
	keys     store.KeyStore
	facade   *relay.Facade
	engine   *session.Engine
	hooks    Hooks
	log      logger.Logger
}

// New constructs a Profile with no active identity. Call CreateProfile
// before open_session/on_scan.
func New(profiles store.ProfileStore, keys store.KeyStore, transport relay.Transport, hooks Hooks, log logger.Logger) *Profile {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	p := &Profile{profiles: profiles, keys: keys, hooks: hooks, log: log}

	facade := relay.NewFacade(transport, p.handleEvent, log)
	p.facade = facade
	p.engine = session.NewEngine(keys, facade, session.Hooks{
		OnStateChanged: p.onStateChanged,
		OnPingReceived: hooks.OnPingReceived,
	}, log)
	return p
}

// ActivePubkey returns the active profile's public key, or "" if none
// has been created or loaded yet.
func (p *Profile) ActivePubkey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pubkey
}

// CreateProfile generates a fresh private key, or imports privateKeyHex
// if non-empty, derives its public key, persists both, and installs the
// result as the active profile.
func (p *Profile) CreateProfile(ctx context.Context, privateKeyHex string) (string, error) {
	var d []byte
	if privateKeyHex == "" {
		var err error
		d, err = generatePrivateKey()
		if err != nil {
			return "", err
		}
	} else {
		var err error
		d, err = hex.DecodeString(privateKeyHex)
		if err != nil || len(d) != 32 {
			return "", ErrInvalidPrivateKeyHex
		}
		if err := curve.ValidatePrivate(d); err != nil {
			return "", err
		}
	}

	xOnly, err := curve.XOnlyPub(d)
	if err != nil {
		return "", err
	}
	pubkey := hex.EncodeToString(xOnly)

	if err := p.keys.SavePrivateKey(ctx, pubkey, d); err != nil {
		return "", err
	}
	if err := p.profiles.SaveProfile(ctx, &store.ProfileRecord{Pubkey: pubkey}); err != nil {
		return "", err
	}

	p.mu.Lock()
	p.pubkey = pubkey
	p.mu.Unlock()
	return pubkey, nil
}

// generatePrivateKey draws 32 random bytes until one lands in the
// valid scalar range: the out-of-range case is astronomically rare but
// must not silently produce an invalid key.
func generatePrivateKey() ([]byte, error) {
	for {
		d := make([]byte, 32)
		if _, err := rand.Read(d); err != nil {
			return nil, err
		}
		if curve.ValidatePrivate(d) == nil {
			return d, nil
		}
	}
}

// OpenSession allocates a session in AwaitingScan for the active
// profile, registers its secret as a pending connect entry, starts
// listening for the eventual connect response on relays, and returns
// the bootstrap URI to hand off out-of-band (as a link or QR code).
func (p *Profile) OpenSession(ctx context.Context, relays []string, permissions []string, md Metadata) (string, *session.Session, error) {
	pubkey := p.ActivePubkey()
	if pubkey == "" {
		return "", nil, ErrNoActiveProfile
	}

	secret, err := randomSecret()
	if err != nil {
		return "", nil, err
	}

	s := p.engine.OpenAwaitingScan(pubkey, relays, permissions, secret)

	if err := p.facade.Listen(ctx, pubkey, relays); err != nil {
		return "", nil, err
	}
	if err := p.profiles.SaveSession(ctx, pubkey, s); err != nil {
		return "", nil, err
	}

	uri, err := connecturi.Build(&connecturi.URI{
		Pubkey:      pubkey,
		Relays:      relays,
		Secret:      secret,
		Permissions: permissions,
		Name:        md.Name,
		URL:         md.URL,
		Image:       md.Image,
	})
	if err != nil {
		return "", nil, err
	}
	return uri, s, nil
}

// OnScan is the scanning side's acceptance of a bootstrap URI already
// decoded by the caller: it registers a session bound to peerPubkey,
// starts listening for further RPC on relays, and publishes the
// connect response that completes the handshake's first half.
func (p *Profile) OnScan(ctx context.Context, peerPubkey string, relays []string, secret string, permissions []string) (*session.Session, error) {
	pubkey := p.ActivePubkey()
	if pubkey == "" {
		return nil, ErrNoActiveProfile
	}

	s := p.engine.AcceptScan(pubkey, relays, permissions, secret, peerPubkey)

	if err := p.facade.Listen(ctx, pubkey, relays); err != nil {
		return nil, err
	}
	if err := p.engine.SendConnectResponse(ctx, s, secret); err != nil {
		return nil, err
	}
	if err := p.profiles.SaveSession(ctx, pubkey, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SendPing sends a keepalive ping on s.
func (p *Profile) SendPing(ctx context.Context, s *session.Session) error {
	return p.engine.SendPing(ctx, s)
}

// SendDisconnect sends a disconnect request on s. The session is
// removed from the engine once the peer's ack is received; the caller
// does not need to call DeleteSession itself.
func (p *Profile) SendDisconnect(ctx context.Context, s *session.Session) error {
	return p.engine.SendDisconnect(ctx, s)
}

// onStateChanged is the engine's OnStateChanged hook: it keeps the
// profile store's session collection in sync and forwards the event to
// the caller's hook.
func (p *Profile) onStateChanged(s *session.Session) {
	if s.Status == session.StatusDisconnected {
		if err := p.profiles.DeleteSession(context.Background(), s.SessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
			p.log.Warn("failed to remove disconnected session", logger.String("session_id", s.SessionID), logger.Error(err))
		}
	}
	if p.hooks.OnSessionStateChanged != nil {
		p.hooks.OnSessionStateChanged(s)
	}
}

// handleEvent is the relay façade's onEvent callback: it verifies the
// event's signature, decrypts its NIP-44 content against the active
// profile's key, and hands the plaintext to the session engine.
// Any failure here is an adversarial or stale input and is dropped
// silently, per the core's decrypt/parse failure semantics.
func (p *Profile) handleEvent(theirs string, e *event.Event) {
	pubkey := p.ActivePubkey()
	if pubkey == "" {
		return
	}
	if err := event.Verify(e); err != nil {
		p.log.Debug("dropping event with invalid signature", logger.String("event_id", e.ID), logger.Error(err))
		return
	}

	ctx := context.Background()
	d, err := p.keys.PrivateKey(ctx, pubkey)
	if err != nil {
		p.log.Warn("key store lookup failed", logger.Error(err))
		return
	}

	theirsBytes, err := hex.DecodeString(theirs)
	if err != nil {
		return
	}
	convKey, err := cipher.ConversationKey(d, theirsBytes)
	if err != nil {
		return
	}
	plaintext, err := cipher.Nip44Decrypt(e.Content, convKey)
	if err != nil {
		p.log.Debug("dropping event with undecryptable content", logger.String("event_id", e.ID))
		return
	}

	if err := p.engine.HandleInbound(ctx, theirs, []byte(plaintext)); err != nil {
		p.log.Warn("inbound dispatch failed", logger.String("event_id", e.ID), logger.Error(err))
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
