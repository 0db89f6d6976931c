// Package cipher implements the two payload-encryption schemes carried
// inside Nostr-Connect events: the legacy NIP-04 AES-256-CBC scheme and
// the NIP-44 v2 ChaCha20/HMAC-SHA256 scheme. Both derive their key
// material from an x-only ECDH shared secret computed by crypto/curve.
package cipher

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/hkdf"

	"github.com/sage-x-project/sage-connect/crypto/curve"
)

const nip44Salt = "nip44-v2"

var ErrInvalidSharedSecret = errors.New("cipher: invalid shared secret")

// ConversationKey derives the NIP-44 conversation key for the pair (d,
// pub): the x-only ECDH shared x-coordinate run through
// HKDF-Extract(sha256, salt="nip44-v2").
func ConversationKey(d, pub []byte) ([]byte, error) {
	shared, err := curve.ECDH(d, pub)
	if err != nil {
		return nil, err
	}
	return hkdf.Extract(sha256.New, shared, []byte(nip44Salt)), nil
}

// Nip04SharedSecret derives the raw shared secret used by NIP-04:
// the x-only ECDH shared x-coordinate, used directly as an AES-256 key.
func Nip04SharedSecret(d, pub []byte) ([]byte, error) {
	shared, err := curve.ECDH(d, pub)
	if err != nil {
		return nil, err
	}
	if len(shared) != 32 {
		return nil, ErrInvalidSharedSecret
	}
	return shared, nil
}
