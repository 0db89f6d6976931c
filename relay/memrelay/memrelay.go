// Package memrelay is an in-process Transport implementation used for
// tests and the CLI demo: Publish fans an event out to every matching
// in-memory subscription instead of dialing a real relay.
package memrelay

import (
	"context"
	"sync"

	"github.com/sage-x-project/sage-connect/crypto/event"
	"github.com/sage-x-project/sage-connect/relay"
)

type subscription struct {
	id      int
	filter  relay.Filter
	handler func(*event.Event)
}

// Relay is a single in-memory relay instance shared by every caller
// that dials the same *Relay value.
type Relay struct {
	mu        sync.Mutex
	nextID    int
	subsByURL map[string][]subscription
}

// New returns an empty in-memory relay.
func New() *Relay {
	return &Relay{subsByURL: make(map[string][]subscription)}
}

// Publish delivers e to every subscription on relayURL whose filter
// matches.
func (r *Relay) Publish(ctx context.Context, relayURL string, e *event.Event) error {
	r.mu.Lock()
	subs := append([]subscription(nil), r.subsByURL[relayURL]...)
	r.mu.Unlock()

	for _, s := range subs {
		if matches(s.filter, e) {
			s.handler(e)
		}
	}
	return nil
}

// Subscribe registers handler for events on relayURL matching filter.
func (r *Relay) Subscribe(ctx context.Context, relayURL string, filter relay.Filter, handler func(*event.Event)) (func(), error) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subsByURL[relayURL] = append(r.subsByURL[relayURL], subscription{id: id, filter: filter, handler: handler})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.subsByURL[relayURL]
		for i, s := range subs {
			if s.id == id {
				r.subsByURL[relayURL] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}, nil
}

func matches(f relay.Filter, e *event.Event) bool {
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if k == e.Kind {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if e.CreatedAt < f.Since {
		return false
	}
	if len(f.PTags) == 0 {
		return true
	}
	for _, want := range f.PTags {
		for _, tag := range e.Tags {
			if len(tag) == 2 && tag[0] == "p" && tag[1] == want {
				return true
			}
		}
	}
	return false
}
