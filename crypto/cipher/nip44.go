package cipher

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math/bits"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

const (
	nip44Version     = 2
	minPlaintextSize = 1
	maxPlaintextSize = 65535
	minPaddedSize    = 32
	minPayloadSize   = 1 + 32 + minPaddedSize + 32
	maxPayloadSize   = 1 + 32 + (2 + maxPlaintextSize) + 32
)

var (
	ErrNip44UnsupportedVersion = errors.New("nip44: unsupported encryption version")
	ErrNip44InvalidPayload     = errors.New("nip44: invalid payload")
	ErrNip44InvalidMAC         = errors.New("nip44: invalid MAC")
	ErrNip44InvalidPlaintext   = errors.New("nip44: plaintext length out of range")
)

// calcPaddedLen implements the NIP-44 padding-bucket function: short
// messages round up to 32 bytes, longer ones to 1/8th of the next power
// of two (or to 32-byte chunks below that threshold).
func calcPaddedLen(unpaddedLen int) int {
	if unpaddedLen <= minPaddedSize {
		return minPaddedSize
	}

	nextPower := 1 << (bits.Len(uint(unpaddedLen-1)))
	chunk := 32
	if nextPower > 256 {
		chunk = nextPower / 8
	}
	return chunk * ((unpaddedLen-1)/chunk + 1)
}

func pad(plaintext []byte) ([]byte, error) {
	n := len(plaintext)
	if n < minPlaintextSize || n > maxPlaintextSize {
		return nil, ErrNip44InvalidPlaintext
	}

	out := make([]byte, 2+calcPaddedLen(n))
	binary.BigEndian.PutUint16(out[0:2], uint16(n))
	copy(out[2:], plaintext)
	return out, nil
}

func unpad(padded []byte) ([]byte, error) {
	if len(padded) < 2 {
		return nil, ErrNip44InvalidPayload
	}
	n := int(binary.BigEndian.Uint16(padded[0:2]))
	if n == 0 || n > len(padded)-2 {
		return nil, ErrNip44InvalidPayload
	}
	if len(padded) != 2+calcPaddedLen(n) {
		return nil, ErrNip44InvalidPayload
	}
	return padded[2 : 2+n], nil
}

// messageKeys derives the per-message ChaCha20 key, ChaCha20 nonce, and
// HMAC key from the conversation key and a 32-byte message nonce via
// HKDF-Expand.
func messageKeys(conversationKey, nonce []byte) (chachaKey, chachaNonce, hmacKey []byte, err error) {
	if len(conversationKey) != 32 || len(nonce) != 32 {
		return nil, nil, nil, ErrNip44InvalidPayload
	}

	keys := make([]byte, 76)
	if _, err := hkdf.Expand(sha256.New, conversationKey, nonce).Read(keys); err != nil {
		return nil, nil, nil, err
	}
	return keys[0:32], keys[32:44], keys[44:76], nil
}

func hmacAAD(key, message, aad []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(aad)
	h.Write(message)
	return h.Sum(nil)
}

// Nip44Encrypt encrypts plaintext under conversationKey using a fresh
// random 32-byte nonce.
func Nip44Encrypt(plaintext string, conversationKey []byte) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return nip44EncryptWithNonce(plaintext, conversationKey, nonce)
}

func nip44EncryptWithNonce(plaintext string, conversationKey, nonce []byte) (string, error) {
	chachaKey, chachaNonce, hmacKey, err := messageKeys(conversationKey, nonce)
	if err != nil {
		return "", err
	}

	padded, err := pad([]byte(plaintext))
	if err != nil {
		return "", err
	}

	stream, err := chacha20.NewUnauthenticatedCipher(chachaKey, chachaNonce)
	if err != nil {
		return "", err
	}
	ciphertext := make([]byte, len(padded))
	stream.XORKeyStream(ciphertext, padded)

	mac := hmacAAD(hmacKey, ciphertext, nonce)

	out := make([]byte, 1+32+len(ciphertext)+32)
	out[0] = nip44Version
	copy(out[1:33], nonce)
	copy(out[33:33+len(ciphertext)], ciphertext)
	copy(out[33+len(ciphertext):], mac)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Nip44Decrypt decrypts a payload produced by Nip44Encrypt, rejecting
// any payload whose MAC does not verify or whose padding is malformed.
func Nip44Decrypt(payload string, conversationKey []byte) (string, error) {
	if len(payload) > 0 && payload[0] == '#' {
		return "", ErrNip44UnsupportedVersion
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrNip44InvalidPayload
	}
	if len(data) < minPayloadSize || len(data) > maxPayloadSize {
		return "", ErrNip44InvalidPayload
	}

	if data[0] != nip44Version {
		return "", ErrNip44UnsupportedVersion
	}
	nonce := data[1:33]
	ciphertext := data[33 : len(data)-32]
	mac := data[len(data)-32:]

	chachaKey, chachaNonce, hmacKey, err := messageKeys(conversationKey, nonce)
	if err != nil {
		return "", err
	}

	if !hmac.Equal(hmacAAD(hmacKey, ciphertext, nonce), mac) {
		return "", ErrNip44InvalidMAC
	}

	stream, err := chacha20.NewUnauthenticatedCipher(chachaKey, chachaNonce)
	if err != nil {
		return "", err
	}
	padded := make([]byte, len(ciphertext))
	stream.XORKeyStream(padded, ciphertext)

	plaintext, err := unpad(padded)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
