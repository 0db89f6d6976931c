package relay

import (
	"context"
	"sync"
	"time"

	"github.com/sage-x-project/sage-connect/crypto/event"
	"github.com/sage-x-project/sage-connect/internal/logger"
	"github.com/sage-x-project/sage-connect/internal/metrics"
)

// KindNostrConnect is the fixed event kind carrying the RPC envelope.
const KindNostrConnect = 24133

// subscriptionWindow is how far back a fresh listen() call looks for
// events it may otherwise miss during reconnect.
const subscriptionWindow = 30 * time.Second

// Facade is the thin adapter around a Transport described by C8: it
// subscribes for inbound RPC once per pubkey and publishes outbound
// signed events best-effort across a session's relays.
type Facade struct {
	transport Transport
	onEvent   func(theirs string, e *event.Event)
	log       logger.Logger

	mu          sync.Mutex
	unsubscribe map[string]func() // pubkey -> unsubscribe
	relaysFor   map[string][]string
	seen        map[string]struct{} // event ids already delivered, best-effort dedupe
}

// NewFacade constructs a Facade. onEvent is invoked once per inbound
// event with the peer pubkey that authored it.
func NewFacade(transport Transport, onEvent func(theirs string, e *event.Event), log logger.Logger) *Facade {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Facade{
		transport:   transport,
		onEvent:     onEvent,
		log:         log,
		unsubscribe: make(map[string]func()),
		relaysFor:   make(map[string][]string),
		seen:        make(map[string]struct{}),
	}
}

// Listen subscribes for inbound RPC events addressed to pubkey across
// relays. It is idempotent per pubkey: a second call for the same
// pubkey is a no-op unless the previous subscription was stopped.
func (f *Facade) Listen(ctx context.Context, pubkey string, relays []string) error {
	f.mu.Lock()
	if _, already := f.unsubscribe[pubkey]; already {
		f.mu.Unlock()
		return nil
	}
	f.relaysFor[pubkey] = relays
	f.mu.Unlock()

	filter := Filter{
		Kinds: []int{KindNostrConnect},
		Since: time.Now().Add(-subscriptionWindow).Unix(),
		PTags: []string{pubkey},
	}

	var unsubs []func()
	for _, relayURL := range relays {
		unsub, err := f.transport.Subscribe(ctx, relayURL, filter, f.deliver)
		if err != nil {
			f.log.Warn("relay subscribe failed", logger.String("relay", relayURL), logger.Error(err))
			continue
		}
		unsubs = append(unsubs, unsub)
	}

	f.mu.Lock()
	f.unsubscribe[pubkey] = func() {
		for _, u := range unsubs {
			u()
		}
	}
	f.mu.Unlock()
	return nil
}

// StopListening makes Listen idempotent in the other direction: it
// unsubscribes pubkey's subscription, if any.
func (f *Facade) StopListening(pubkey string) {
	f.mu.Lock()
	unsub, ok := f.unsubscribe[pubkey]
	delete(f.unsubscribe, pubkey)
	delete(f.relaysFor, pubkey)
	f.mu.Unlock()
	if ok {
		unsub()
	}
}

// deliver forwards an inbound event to onEvent, dropping duplicates by
// event id across all of this Facade's subscriptions. The set of seen ids
// is cleared once it holds more than 4096 entries, so a duplicate that
// arrives after that reset is delivered again.
func (f *Facade) deliver(e *event.Event) {
	f.mu.Lock()
	if _, dup := f.seen[e.ID]; dup {
		f.mu.Unlock()
		return
	}
	f.seen[e.ID] = struct{}{}
	if len(f.seen) > 4096 {
		f.seen = make(map[string]struct{}, 4096)
	}
	f.mu.Unlock()

	metrics.EventsReceived.Inc()
	if f.onEvent != nil {
		f.onEvent(e.Pubkey, e)
	}
}

// Publish delivers a signed event to every relay registered for the
// event's author pubkey. It is best-effort: each per-relay failure is
// logged, and an error is returned only when no relay accepted the
// event.
func (f *Facade) Publish(ctx context.Context, e *event.Event) error {
	f.mu.Lock()
	relays := f.relaysFor[e.Pubkey]
	f.mu.Unlock()

	if len(relays) == 0 {
		return nil
	}

	var lastErr error
	delivered := 0
	for _, relayURL := range relays {
		if err := f.transport.Publish(ctx, relayURL, e); err != nil {
			f.log.Warn("relay publish failed", logger.String("relay", relayURL), logger.Error(err))
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return lastErr
	}
	return nil
}
