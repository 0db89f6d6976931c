// Package wsrelay implements relay.Transport over the Nostr relay
// WebSocket wire protocol: "EVENT" to publish, "REQ"/"CLOSE" to
// subscribe, and "EVENT"/"OK"/"NOTICE"/"EOSE" frames read back.
package wsrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sage-x-project/sage-connect/crypto/event"
	"github.com/sage-x-project/sage-connect/internal/logger"
	"github.com/sage-x-project/sage-connect/relay"
)

// Transport dials a persistent WebSocket connection per relay URL and
// multiplexes subscriptions and publishes over it.
type Transport struct {
	dialTimeout time.Duration
	log         logger.Logger

	mu    sync.Mutex
	conns map[string]*relayConn
}

type relayConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
	subs map[string]func(*event.Event)
}

// New returns a Transport with a default 15-second dial timeout.
func New(log logger.Logger) *Transport {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Transport{dialTimeout: 15 * time.Second, log: log, conns: make(map[string]*relayConn)}
}

func (t *Transport) connFor(ctx context.Context, relayURL string) (*relayConn, error) {
	t.mu.Lock()
	if rc, ok := t.conns[relayURL]; ok {
		t.mu.Unlock()
		return rc, nil
	}
	t.mu.Unlock()

	dialer := &websocket.Dialer{HandshakeTimeout: t.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wsrelay: dial %s: %w", relayURL, err)
	}

	rc := &relayConn{conn: conn, subs: make(map[string]func(*event.Event))}
	t.mu.Lock()
	t.conns[relayURL] = rc
	t.mu.Unlock()

	go t.readLoop(relayURL, rc)
	return rc, nil
}

// Publish sends a Nostr "EVENT" frame to relayURL.
func (t *Transport) Publish(ctx context.Context, relayURL string, e *event.Event) error {
	rc, err := t.connFor(ctx, relayURL)
	if err != nil {
		return err
	}
	frame := []interface{}{"EVENT", e}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.conn.WriteJSON(frame)
}

// Subscribe sends a Nostr "REQ" frame and routes matching "EVENT"
// frames to handler until the returned function sends a "CLOSE".
func (t *Transport) Subscribe(ctx context.Context, relayURL string, filter relay.Filter, handler func(*event.Event)) (func(), error) {
	rc, err := t.connFor(ctx, relayURL)
	if err != nil {
		return nil, err
	}

	subID := fmt.Sprintf("sage-connect-%d", time.Now().UnixNano())
	wireFilter := map[string]interface{}{}
	if len(filter.Kinds) > 0 {
		wireFilter["kinds"] = filter.Kinds
	}
	if filter.Since > 0 {
		wireFilter["since"] = filter.Since
	}
	if len(filter.PTags) > 0 {
		wireFilter["#p"] = filter.PTags
	}

	req := []interface{}{"REQ", subID, wireFilter}
	rc.mu.Lock()
	rc.subs[subID] = handler
	err = rc.conn.WriteJSON(req)
	rc.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("wsrelay: subscribe %s: %w", relayURL, err)
	}

	return func() {
		rc.mu.Lock()
		delete(rc.subs, subID)
		_ = rc.conn.WriteJSON([]interface{}{"CLOSE", subID})
		rc.mu.Unlock()
	}, nil
}

// readLoop dispatches inbound relay frames until the connection
// closes. It is the single reader goroutine for relayURL.
func (t *Transport) readLoop(relayURL string, rc *relayConn) {
	defer func() {
		t.mu.Lock()
		delete(t.conns, relayURL)
		t.mu.Unlock()
	}()

	for {
		var msg []json.RawMessage
		if err := rc.conn.ReadJSON(&msg); err != nil {
			t.log.Warn("wsrelay read failed", logger.String("relay", relayURL), logger.Error(err))
			return
		}
		if len(msg) < 2 {
			continue
		}

		var frameType string
		if err := json.Unmarshal(msg[0], &frameType); err != nil {
			continue
		}

		switch frameType {
		case "EVENT":
			if len(msg) < 3 {
				continue
			}
			var subID string
			if err := json.Unmarshal(msg[1], &subID); err != nil {
				continue
			}
			var e event.Event
			if err := json.Unmarshal(msg[2], &e); err != nil {
				continue
			}

			rc.mu.Lock()
			handler := rc.subs[subID]
			rc.mu.Unlock()
			if handler != nil {
				handler(&e)
			}

		case "NOTICE":
			var text string
			_ = json.Unmarshal(msg[1], &text)
			t.log.Info("relay notice", logger.String("relay", relayURL), logger.String("text", text))

		case "OK", "EOSE":
			// Acknowledgements; nothing to dispatch.
		}
	}
}
