package profile_test

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sage-connect/connecturi"
	"github.com/sage-x-project/sage-connect/crypto/curve"
	"github.com/sage-x-project/sage-connect/profile"
	"github.com/sage-x-project/sage-connect/relay/memrelay"
	"github.com/sage-x-project/sage-connect/rpc"
	"github.com/sage-x-project/sage-connect/session"
	"github.com/sage-x-project/sage-connect/store/memory"
)

const testRelay = "wss://relay.test"

func TestHandshakeEndToEndThroughMemRelay(t *testing.T) {
	ctx := context.Background()
	mr := memrelay.New()

	var mu sync.Mutex
	var pings []*rpc.Response

	// The initiator sends the first ping once the connect response arrives,
	// so the pong (and the ping-received hook) lands on the initiator.
	initiator := profile.New(memory.New(), memory.New(), mr, profile.Hooks{
		OnPingReceived: func(r *rpc.Response) {
			mu.Lock()
			pings = append(pings, r)
			mu.Unlock()
		},
	}, nil)
	acceptor := profile.New(memory.New(), memory.New(), mr, profile.Hooks{}, nil)

	initiatorPub, err := initiator.CreateProfile(ctx, "")
	require.NoError(t, err)
	_, err = acceptor.CreateProfile(ctx, "")
	require.NoError(t, err)

	uri, initSession, err := initiator.OpenSession(ctx, []string{testRelay}, []string{"sign_event"}, profile.Metadata{Name: "test-app"})
	require.NoError(t, err)
	assert.Equal(t, session.StatusAwaitingScan, initSession.Status)

	parsed, err := connecturi.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, initiatorPub, parsed.Pubkey)
	assert.Equal(t, []string{testRelay}, parsed.Relays)

	acceptSession, err := acceptor.OnScan(ctx, parsed.Pubkey, parsed.Relays, parsed.Secret, parsed.Permissions)
	require.NoError(t, err)

	assert.Equal(t, session.StatusConnected, initSession.Status)
	assert.Equal(t, session.StatusConnected, acceptSession.Status)
	assert.Equal(t, acceptor.ActivePubkey(), initSession.Theirs)
	assert.Equal(t, initiatorPub, acceptSession.Theirs)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, pings, 1)
	assert.Equal(t, "pong", pings[0].Result.String())
}

func TestOpenSessionWithoutActiveProfileFails(t *testing.T) {
	mr := memrelay.New()
	p := profile.New(memory.New(), memory.New(), mr, profile.Hooks{}, nil)

	_, _, err := p.OpenSession(context.Background(), []string{testRelay}, nil, profile.Metadata{})
	assert.ErrorIs(t, err, profile.ErrNoActiveProfile)
}

func TestCreateProfileImportsProvidedKey(t *testing.T) {
	mr := memrelay.New()
	p1 := profile.New(memory.New(), memory.New(), mr, profile.Hooks{}, nil)
	p2 := profile.New(memory.New(), memory.New(), mr, profile.Hooks{}, nil)

	pub1, err := p1.CreateProfile(context.Background(), "")
	require.NoError(t, err)

	_, err = p2.CreateProfile(context.Background(), "not-hex")
	assert.ErrorIs(t, err, profile.ErrInvalidPrivateKeyHex)

	assert.Len(t, pub1, 64)

	d, err := hex.DecodeString(strings.Repeat("01", 32))
	require.NoError(t, err)
	wantPub, err := curve.XOnlyPub(d)
	require.NoError(t, err)

	pub2, err := p2.CreateProfile(context.Background(), strings.Repeat("01", 32))
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(wantPub), pub2)
	assert.Equal(t, pub2, p2.ActivePubkey())
}

func TestSendDisconnectRemovesBothSessions(t *testing.T) {
	ctx := context.Background()
	mr := memrelay.New()

	var mu sync.Mutex
	var states []session.Status
	initStore := memory.New()
	acceptStore := memory.New()
	initiator := profile.New(initStore, memory.New(), mr, profile.Hooks{
		OnSessionStateChanged: func(s *session.Session) {
			mu.Lock()
			states = append(states, s.Status)
			mu.Unlock()
		},
	}, nil)
	acceptor := profile.New(acceptStore, memory.New(), mr, profile.Hooks{}, nil)

	initPub, err := initiator.CreateProfile(ctx, "")
	require.NoError(t, err)
	acceptPub, err := acceptor.CreateProfile(ctx, "")
	require.NoError(t, err)

	uri, initSession, err := initiator.OpenSession(ctx, []string{testRelay}, nil, profile.Metadata{})
	require.NoError(t, err)
	parsed, err := connecturi.Parse(uri)
	require.NoError(t, err)

	_, err = acceptor.OnScan(ctx, parsed.Pubkey, parsed.Relays, parsed.Secret, parsed.Permissions)
	require.NoError(t, err)
	require.Equal(t, session.StatusConnected, initSession.Status)

	require.NoError(t, initiator.SendDisconnect(ctx, initSession))

	initSessions, err := initStore.LoadSessions(ctx, initPub)
	require.NoError(t, err)
	assert.Empty(t, initSessions)
	acceptSessions, err := acceptStore.LoadSessions(ctx, acceptPub)
	require.NoError(t, err)
	assert.Empty(t, acceptSessions)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.Equal(t, session.StatusDisconnected, states[len(states)-1])
}
