package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/sage-connect/crypto/cipher"
	"github.com/sage-x-project/sage-connect/crypto/curve"
	"github.com/sage-x-project/sage-connect/crypto/event"
	"github.com/sage-x-project/sage-connect/internal/logger"
	"github.com/sage-x-project/sage-connect/internal/metrics"
	"github.com/sage-x-project/sage-connect/relay"
	"github.com/sage-x-project/sage-connect/rpc"
)

// KindNostrConnect is the fixed event kind used for the RPC envelope.
// It is an alias of relay.KindNostrConnect, the canonical definition.
const KindNostrConnect = relay.KindNostrConnect

// KeyStore reads the long-term private key for a profile, once per
// operation. Implementations must not let callers cache the returned
// bytes across an async suspension point.
type KeyStore interface {
	PrivateKey(ctx context.Context, ours string) ([]byte, error)
}

// Publisher delivers a signed event to the relay network.
type Publisher interface {
	Publish(ctx context.Context, e *event.Event) error
}

// Hooks are the notifications the session engine fires for a higher
// layer (the identity façade) to subscribe to.
type Hooks struct {
	OnStateChanged func(*Session)
	OnPingReceived func(*rpc.Response)
}

// Engine owns the live session set for one profile, the pending-request
// table, and the inbound dispatch logic of the protocol.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byTheirs map[string]string

	pending *PendingTable
	keys    KeyStore
	pub     Publisher
	hooks   Hooks
	log     logger.Logger
}

// NewEngine constructs an Engine backed by keys and pub.
func NewEngine(keys KeyStore, pub Publisher, hooks Hooks, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Engine{
		sessions: make(map[string]*Session),
		byTheirs: make(map[string]string),
		pending:  NewPendingTable(),
		keys:     keys,
		pub:      pub,
		hooks:    hooks,
		log:      log,
	}
}

// Pending exposes the pending-request table for expiry sweeps run by a
// caller-owned background timer.
func (e *Engine) Pending() *PendingTable { return e.pending }

// NewSession allocates a session in Idle and registers it by id,
// counting it under the "initiator" role.
func (e *Engine) NewSession(ours string, relays, permissions []string, secret string) *Session {
	return e.newSession(ours, relays, permissions, secret, "initiator")
}

func (e *Engine) newSession(ours string, relays, permissions []string, secret, role string) *Session {
	s := &Session{
		SessionID:   uuid.NewString(),
		Ours:        ours,
		Secret:      secret,
		Relays:      relays,
		Permissions: permissions,
		Status:      StatusIdle,
		CreatedAt:   time.Now(),
	}
	e.mu.Lock()
	e.sessions[s.SessionID] = s
	e.mu.Unlock()
	metrics.SessionsCreated.WithLabelValues(role).Inc()
	metrics.SessionsActive.Inc()
	return s
}

// Get returns a registered session by id.
func (e *Engine) Get(sessionID string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[sessionID]
	return s, ok
}

// setStatus transitions s to status and fires the state-change hook.
func (e *Engine) setStatus(s *Session, status Status) {
	from := s.Status
	s.Status = status
	metrics.SessionStateTransitions.WithLabelValues(string(from), string(status)).Inc()
	if e.hooks.OnStateChanged != nil {
		e.hooks.OnStateChanged(s)
	}
}

// bindTheirs records the peer pubkey on s and indexes the session by it,
// enforcing the session's theirs-set/Idle-AwaitingScan invariant.
func (e *Engine) bindTheirs(s *Session, theirs string) {
	if s.theirsSet() {
		return
	}
	s.Theirs = theirs
	e.mu.Lock()
	e.byTheirs[theirs] = s.SessionID
	e.mu.Unlock()
}

func (e *Engine) sessionByTheirs(theirs string) (*Session, bool) {
	e.mu.RLock()
	sid, ok := e.byTheirs[theirs]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.Get(sid)
}

// removeSession drops a session from both indexes.
func (e *Engine) removeSession(s *Session) {
	e.mu.Lock()
	delete(e.sessions, s.SessionID)
	if s.Theirs != "" {
		delete(e.byTheirs, s.Theirs)
	}
	e.mu.Unlock()
	metrics.SessionsDisconnected.Inc()
	metrics.SessionsActive.Dec()
}

// HandleInbound is the dispatch entry point for a plaintext payload
// already decrypted from a peer-authored NIP-44 event, per §4.7.
func (e *Engine) HandleInbound(ctx context.Context, theirs string, plaintext []byte) error {
	if rpc.IsRequest(plaintext) {
		return e.handleInboundRequest(ctx, theirs, plaintext)
	}
	return e.handleInboundResponse(ctx, theirs, plaintext)
}

func (e *Engine) handleInboundRequest(ctx context.Context, theirs string, plaintext []byte) error {
	var probe struct {
		ID     string   `json:"id"`
		Method string   `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(plaintext, &probe); err != nil {
		return nil // adversarial input, drop silently
	}

	s, ok := e.sessionByTheirs(theirs)
	if !ok {
		metrics.PendingRequestsDropped.WithLabelValues("no_session").Inc()
		return nil
	}
	metrics.RequestsReceived.WithLabelValues(probe.Method).Inc()

	req, err := rpc.DecodeRequest(plaintext)
	if err != nil {
		return e.sendResponse(ctx, s, probe.ID, rpc.NewErrorResponse(probe.ID, fmt.Sprintf("Unknown method: %s", probe.Method)))
	}

	switch req.Method {
	case rpc.CommandConnect:
		e.bindTheirs(s, theirs)
		e.setStatus(s, StatusConnected)
		return e.sendResponse(ctx, s, req.ID, rpc.NewResultResponse(req.ID, rpc.NewString("ack")))

	case rpc.CommandPing:
		e.setStatus(s, StatusConnected)
		return e.sendResponse(ctx, s, req.ID, rpc.NewResultResponse(req.ID, rpc.NewString("pong")))

	case rpc.CommandDisconnect:
		err := e.sendResponse(ctx, s, req.ID, rpc.NewResultResponse(req.ID, rpc.NewString("ack")))
		e.removeSession(s)
		e.setStatus(s, StatusDisconnected)
		return err

	case rpc.CommandSignEvent:
		return e.handleSignEvent(ctx, s, req)

	case rpc.CommandGetPublicKey:
		return e.sendResponse(ctx, s, req.ID, rpc.NewResultResponse(req.ID, rpc.NewString(s.Ours)))

	case rpc.CommandNip04Encrypt, rpc.CommandNip04Decrypt, rpc.CommandNip44Encrypt, rpc.CommandNip44Decrypt:
		return e.handleCipherCommand(ctx, s, req)

	default:
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, fmt.Sprintf("Unknown method: %s", req.Method)))
	}
}

func (e *Engine) handleSignEvent(ctx context.Context, s *Session, req *rpc.Request) error {
	if len(req.Params) < 1 {
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, "sign_event: missing event parameter"))
	}

	var target event.Event
	if err := json.Unmarshal([]byte(req.Params[0].String()), &target); err != nil {
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, "sign_event: malformed event"))
	}
	target.Pubkey = s.Ours

	d, err := e.keys.PrivateKey(ctx, s.Ours)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("sign_event").Inc()
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
	}
	if err := event.Sign(&target, d); err != nil {
		metrics.CryptoErrors.WithLabelValues("sign_event").Inc()
		e.log.Error("sign_event failed", logger.Error(err), logger.String("session_id", s.SessionID))
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
	}
	metrics.CryptoOperations.WithLabelValues("sign", "schnorr").Inc()

	signed, err := json.Marshal(target)
	if err != nil {
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
	}
	return e.sendResponse(ctx, s, req.ID, rpc.NewResultResponse(req.ID, rpc.NewRaw(signed)))
}

func (e *Engine) handleCipherCommand(ctx context.Context, s *Session, req *rpc.Request) error {
	if len(req.Params) < 2 {
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, fmt.Sprintf("%s: requires two parameters", req.Method)))
	}
	thirdParty := req.Params[0].String()
	payload := req.Params[1].String()

	thirdPartyBytes, err := hex.DecodeString(thirdParty)
	if err != nil {
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, "invalid third-party pubkey"))
	}

	d, err := e.keys.PrivateKey(ctx, s.Ours)
	if err != nil {
		return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
	}

	var result string
	switch req.Method {
	case rpc.CommandNip04Encrypt, rpc.CommandNip04Decrypt:
		secret, err := cipher.Nip04SharedSecret(d, thirdPartyBytes)
		if err != nil {
			return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
		}
		if req.Method == rpc.CommandNip04Encrypt {
			result, err = cipher.Nip04Encrypt(payload, secret)
		} else {
			result, err = cipher.Nip04Decrypt(payload, secret)
		}
		if err != nil {
			metrics.CryptoErrors.WithLabelValues(string(req.Method)).Inc()
			return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
		}

	case rpc.CommandNip44Encrypt, rpc.CommandNip44Decrypt:
		convKey, err := cipher.ConversationKey(d, thirdPartyBytes)
		if err != nil {
			return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
		}
		if req.Method == rpc.CommandNip44Encrypt {
			result, err = cipher.Nip44Encrypt(payload, convKey)
		} else {
			result, err = cipher.Nip44Decrypt(payload, convKey)
		}
		if err != nil {
			metrics.CryptoErrors.WithLabelValues(string(req.Method)).Inc()
			return e.sendResponse(ctx, s, req.ID, rpc.NewErrorResponse(req.ID, err.Error()))
		}
	}

	metrics.CryptoOperations.WithLabelValues(string(req.Method), "cipher").Inc()
	return e.sendResponse(ctx, s, req.ID, rpc.NewResultResponse(req.ID, rpc.NewString(result)))
}

func (e *Engine) handleInboundResponse(ctx context.Context, theirs string, plaintext []byte) error {
	resp, err := rpc.DecodeResponse(plaintext)
	if err != nil {
		return nil
	}

	p, ok := e.pending.RemoveAndReturn(resp.ID)
	if !ok {
		metrics.PendingRequestsDropped.WithLabelValues("unknown_request_id").Inc()
		return nil
	}
	metrics.ResponsesReceived.WithLabelValues(p.Command, outcomeOf(resp)).Inc()
	metrics.PendingRequests.Set(float64(e.pending.Len()))

	s, ok := e.Get(p.SessionID)
	if !ok {
		return nil
	}

	switch p.Command {
	case string(rpc.CommandConnect):
		e.bindTheirs(s, theirs)
		e.setStatus(s, StatusConnected)
		return e.SendPing(ctx, s)

	case string(rpc.CommandPing):
		e.setStatus(s, StatusConnected)
		if e.hooks.OnPingReceived != nil {
			e.hooks.OnPingReceived(resp)
		}

	case string(rpc.CommandDisconnect):
		if resp.Result.String() == "ack" {
			e.removeSession(s)
			e.setStatus(s, StatusDisconnected)
		}
	}
	return nil
}

func outcomeOf(resp *rpc.Response) string {
	if resp.Error != "" {
		return "error"
	}
	return "success"
}

// OpenAwaitingScan allocates a session for the opening side of a
// handshake and registers secret as a pending connect entry keyed by
// the secret itself, so the eventual connect response, which carries
// no request id of its own beyond the echoed secret, can be correlated
// back to this session.
func (e *Engine) OpenAwaitingScan(ours string, relays, permissions []string, secret string) *Session {
	s := e.NewSession(ours, relays, permissions, secret)
	e.setStatus(s, StatusAwaitingScan)
	e.pending.Insert(PendingRequest{
		ID:        secret,
		SessionID: s.SessionID,
		Command:   string(rpc.CommandConnect),
		CreatedAt: time.Now(),
	})
	metrics.PendingRequests.Set(float64(e.pending.Len()))
	return s
}

// AcceptScan registers the session that results from the scanning side
// of a handshake: the peer pubkey, relays, and permissions come from a
// decoded bootstrap URI rather than from network traffic, so the
// session starts already bound to its peer, in QRScanned.
func (e *Engine) AcceptScan(ours string, relays, permissions []string, secret, theirs string) *Session {
	s := e.newSession(ours, relays, permissions, secret, "acceptor")
	e.bindTheirs(s, theirs)
	e.setStatus(s, StatusQRScanned)
	return s
}

// SendConnectResponse publishes the connect acknowledgement that begins
// a handshake from the scanning side: a Response whose id and result
// both equal secret, matching the pending entry the opening side
// registered under that same secret.
func (e *Engine) SendConnectResponse(ctx context.Context, s *Session, secret string) error {
	return e.publishFrame(ctx, s.Ours, s.Theirs, rpc.NewResultResponse(secret, rpc.NewString(secret)))
}

// SendConnectRequest sends the initial connect request that begins a
// handshake, transitioning the session to ResponseSent. A transport
// that delivers the peer's ack synchronously (as in tests) may advance
// the session past ResponseSent to Connected before this call returns;
// that further transition is left untouched.
func (e *Engine) SendConnectRequest(ctx context.Context, s *Session, theirs string, permissions []string) error {
	params := []string{theirs, s.Secret}
	if len(permissions) > 0 {
		csv := ""
		for i, p := range permissions {
			if i > 0 {
				csv += ","
			}
			csv += p
		}
		params = append(params, csv)
	}
	e.setStatus(s, StatusResponseSent)
	return e.sendRequest(ctx, s, theirs, rpc.CommandConnect, params)
}

// SendPing sends a keepalive ping to the session's peer.
func (e *Engine) SendPing(ctx context.Context, s *Session) error {
	return e.sendRequest(ctx, s, s.Theirs, rpc.CommandPing, nil)
}

// SendDisconnect sends a disconnect request to the session's peer.
func (e *Engine) SendDisconnect(ctx context.Context, s *Session) error {
	return e.sendRequest(ctx, s, s.Theirs, rpc.CommandDisconnect, nil)
}

func (e *Engine) sendRequest(ctx context.Context, s *Session, theirs string, cmd rpc.Command, params []string) error {
	id := uuid.NewString()

	rawParams := make([]rpc.RawOrString, len(params))
	for i, p := range params {
		rawParams[i] = rpc.NewString(p)
	}
	req := rpc.Request{ID: id, Method: cmd, Params: rawParams}

	e.pending.Insert(PendingRequest{
		ID:           id,
		SessionID:    s.SessionID,
		Command:      string(cmd),
		TargetPubkey: theirs,
		CreatedAt:    time.Now(),
		Parameters:   params,
	})
	metrics.PendingRequests.Set(float64(e.pending.Len()))

	if err := e.publishFrame(ctx, s.Ours, theirs, req); err != nil {
		e.pending.RemoveAndReturn(id)
		return err
	}
	metrics.RequestsSent.WithLabelValues(string(cmd)).Inc()
	return nil
}

func (e *Engine) sendResponse(ctx context.Context, s *Session, id string, resp rpc.Response) error {
	err := e.publishFrame(ctx, s.Ours, s.Theirs, resp)
	return err
}

// publishFrame NIP-44-encrypts frame for theirs, wraps it in a kind
// KindNostrConnect event tagged with theirs, signs it with ours'
// long-term key, and publishes it.
func (e *Engine) publishFrame(ctx context.Context, ours, theirs string, frame interface{}) error {
	body, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	d, err := e.keys.PrivateKey(ctx, ours)
	if err != nil {
		return err
	}

	theirsBytes, err := hex.DecodeString(theirs)
	if err != nil {
		return curve.ErrInvalidPublicKey
	}

	convKey, err := cipher.ConversationKey(d, theirsBytes)
	if err != nil {
		return err
	}
	ciphertext, err := cipher.Nip44Encrypt(string(body), convKey)
	if err != nil {
		return err
	}

	ev := &event.Event{
		Pubkey:    ours,
		CreatedAt: time.Now().Unix(),
		Kind:      KindNostrConnect,
		Tags:      []event.Tag{{"p", theirs}},
		Content:   ciphertext,
	}
	if err := event.Sign(ev, d); err != nil {
		return err
	}

	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("publish failed", logger.Error(err), logger.String("event_id", ev.ID))
		return err
	}
	metrics.EventsPublished.Inc()
	return nil
}
