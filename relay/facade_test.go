package relay_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sage-connect/crypto/event"
	"github.com/sage-x-project/sage-connect/relay"
	"github.com/sage-x-project/sage-connect/relay/memrelay"
)

func TestFacadeListenAndPublishDeliversOnce(t *testing.T) {
	mr := memrelay.New()

	var mu sync.Mutex
	var received []*event.Event
	facade := relay.NewFacade(mr, func(theirs string, e *event.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}, nil)

	ctx := context.Background()
	require.NoError(t, facade.Listen(ctx, "peer-pubkey", []string{"wss://relay.test"}))

	e := &event.Event{
		ID:        "id1",
		Pubkey:    "sender-pubkey",
		CreatedAt: time.Now().Unix(),
		Kind:      relay.KindNostrConnect,
		Tags:      []event.Tag{{"p", "peer-pubkey"}},
		Content:   "ciphertext",
	}

	publisherFacade := relay.NewFacade(mr, nil, nil)
	require.NoError(t, publisherFacade.Listen(ctx, "sender-pubkey", []string{"wss://relay.test"}))
	require.NoError(t, publisherFacade.Publish(ctx, e))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "id1", received[0].ID)
}

func TestFacadeListenIsIdempotentPerPubkey(t *testing.T) {
	mr := memrelay.New()
	facade := relay.NewFacade(mr, func(string, *event.Event) {}, nil)

	ctx := context.Background()
	require.NoError(t, facade.Listen(ctx, "pub", []string{"wss://a", "wss://b"}))
	require.NoError(t, facade.Listen(ctx, "pub", []string{"wss://c"}))

	// Second Listen call is a no-op: relaysFor should still reflect the
	// first call's relay set via publish fan-out on that pubkey.
	facade.StopListening("pub")
	require.NoError(t, facade.Listen(ctx, "pub", []string{"wss://c"}))
}

func TestFacadePublishIgnoresUnregisteredPubkey(t *testing.T) {
	mr := memrelay.New()
	facade := relay.NewFacade(mr, nil, nil)

	e := &event.Event{ID: "x", Pubkey: "nobody-is-listening", Kind: relay.KindNostrConnect}
	assert.NoError(t, facade.Publish(context.Background(), e))
}
