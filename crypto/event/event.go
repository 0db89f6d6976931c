// Package event implements the Nostr event codec: canonical
// serialization for id computation, signature attachment, and
// verification.
package event

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/sage-x-project/sage-connect/crypto/curve"
	"github.com/sage-x-project/sage-connect/crypto/schnorr"
)

var (
	ErrIdMismatch   = errors.New("event: id does not match canonical serialization")
	ErrBadSignature = errors.New("event: signature verification failed")
)

// Tag is an ordered sequence of strings; its first element is the tag
// key (e.g. "p" for a referenced pubkey).
type Tag []string

// Event is a signed Nostr event.
type Event struct {
	ID        string `json:"id"`
	Pubkey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// canonicalBytes returns the JSON array
// [0, pubkey_hex_lower, created_at, kind, tags, content] with no
// insignificant whitespace, per the canonical serialization rule used
// for id computation.
func canonicalBytes(e *Event) ([]byte, error) {
	tags := e.Tags
	if tags == nil {
		tags = []Tag{}
	}
	arr := []interface{}{0, e.Pubkey, e.CreatedAt, e.Kind, tags, e.Content}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(arr); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a trailing newline; the canonical form
	// has none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Hash returns the 32-byte SHA-256 digest of e's canonical serialization.
func Hash(e *Event) ([]byte, error) {
	b, err := canonicalBytes(e)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(b)
	return sum[:], nil
}

// ComputeID returns the lowercase hex id for e's canonical serialization.
func ComputeID(e *Event) (string, error) {
	h, err := Hash(e)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h), nil
}

// Sign recomputes e.ID from its canonical form, signs the 32-byte hash
// with d, and sets e.Sig. e.Pubkey must already equal the x-only public
// key corresponding to d.
func Sign(e *Event, d []byte) error {
	h, err := Hash(e)
	if err != nil {
		return err
	}
	sig, err := schnorr.Sign(h, d)
	if err != nil {
		return err
	}
	e.ID = hex.EncodeToString(h)
	e.Sig = hex.EncodeToString(sig)
	return nil
}

// Verify recomputes e's id and checks it against e.ID, then verifies
// e.Sig against e.Pubkey. It returns ErrIdMismatch or ErrBadSignature
// on failure.
func Verify(e *Event) error {
	h, err := Hash(e)
	if err != nil {
		return err
	}
	wantID := hex.EncodeToString(h)
	if wantID != e.ID {
		return ErrIdMismatch
	}

	sig, err := hex.DecodeString(e.Sig)
	if err != nil || len(sig) != 64 {
		return ErrBadSignature
	}
	pub, err := hex.DecodeString(e.Pubkey)
	if err != nil || len(pub) != 32 {
		return ErrBadSignature
	}

	if !schnorr.Verify(h, sig, pub) {
		return ErrBadSignature
	}
	return nil
}

// ValidatePubkeyHex reports whether s decodes to a 32-byte x-only
// public key.
func ValidatePubkeyHex(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return curve.ErrInvalidPublicKey
	}
	return nil
}
