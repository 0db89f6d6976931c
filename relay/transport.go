// Package relay adapts the abstract pub/sub Relay Transport external
// collaborator into the narrow publish/listen operations the session
// engine needs, and dedicates a subpackage to each concrete transport
// (relay/wsrelay, relay/memrelay).
package relay

import (
	"context"

	"github.com/sage-x-project/sage-connect/crypto/event"
)

// Filter selects which events a subscription receives.
type Filter struct {
	Kinds []int
	Since int64
	PTags []string
}

// Transport is the abstract Relay Transport: publish a signed event to
// a relay, subscribe for events matching a filter until the returned
// unsubscribe function is called.
type Transport interface {
	Publish(ctx context.Context, relayURL string, e *event.Event) error
	Subscribe(ctx context.Context, relayURL string, filter Filter, handler func(*event.Event)) (unsubscribe func(), err error)
}
