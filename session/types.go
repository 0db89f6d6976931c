// Package session implements the peer-symmetric session state machine,
// the pending-request correlation table, and inbound RPC dispatch.
package session

import (
	"errors"
	"time"
)

// Status is a session's position in the pairing/keepalive state machine.
type Status string

const (
	StatusIdle          Status = "Idle"
	StatusAwaitingScan  Status = "AwaitingScan"
	StatusQRScanned     Status = "QRScanned"
	StatusResponseSent  Status = "ResponseSent"
	StatusConnected     Status = "Connected"
	StatusDisconnected  Status = "Disconnected"
	StatusError         Status = "Error"
)

var (
	ErrSessionNotFound  = errors.New("session: not found")
	ErrAlreadyConnected = errors.New("session: already connected")
)

// Session is one side of a paired signer/client relationship.
type Session struct {
	SessionID   string
	Ours        string
	Theirs      string
	Secret      string
	Relays      []string
	Permissions []string
	Status      Status
	CreatedAt   time.Time
}

// theirsSet reports whether the peer pubkey has been learned, which the
// data model ties to Status leaving {Idle, AwaitingScan}.
func (s *Session) theirsSet() bool {
	return s.Theirs != ""
}

// PendingRequest is an outbound RPC awaiting a matching response.
type PendingRequest struct {
	ID           string
	SessionID    string
	Command      string
	TargetPubkey string
	CreatedAt    time.Time
	Parameters   []string
}
