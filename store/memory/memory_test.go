package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sage-connect/session"
	"github.com/sage-x-project/sage-connect/store"
)

func TestProfileSaveLoadDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := &store.ProfileRecord{Pubkey: "abcd", DisplayName: "Alice"}
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.LoadProfile(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)

	require.NoError(t, s.DeleteProfile(ctx, "abcd"))
	_, err = s.LoadProfile(ctx, "abcd")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteProfileCascadesSessions(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveProfile(ctx, &store.ProfileRecord{Pubkey: "owner"}))
	require.NoError(t, s.SaveSession(ctx, "owner", &session.Session{SessionID: "s1", Ours: "owner"}))

	require.NoError(t, s.DeleteProfile(ctx, "owner"))

	sessions, err := s.LoadSessions(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	key := []byte("0123456789012345678901234567890")
	require.NoError(t, s.SavePrivateKey(ctx, "owner", key))

	got, err := s.PrivateKey(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestPrivateKeyNotFound(t *testing.T) {
	s := New()
	_, err := s.PrivateKey(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
