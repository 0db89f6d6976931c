// Package schnorr implements BIP-340 Schnorr signatures over secp256k1:
// nonce derivation via tagged hashes over the key, the message and fresh
// auxiliary randomness, signing, and
// verification. Curve arithmetic is delegated to crypto/curve; the
// tagged-hash/nonce/challenge algorithm itself is implemented here.
package schnorr

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/sage-x-project/sage-connect/crypto/curve"
)

var (
	ErrInvalidMessageLength   = errors.New("schnorr: message must be 32 bytes")
	ErrInvalidSignatureLength = errors.New("schnorr: signature must be 64 bytes")
	ErrSigningFailed          = errors.New("schnorr: signing failed")
)

// taggedHash computes SHA256(SHA256(tag) || SHA256(tag) || msg...) as
// defined by BIP-340.
func taggedHash(tag string, msgs ...[]byte) []byte {
	sum := sha256.Sum256([]byte(tag))

	h := sha256.New()
	h.Write(sum[:])
	h.Write(sum[:])
	for _, m := range msgs {
		h.Write(m)
	}
	return h.Sum(nil)
}

func modN(b []byte) *big.Int {
	return new(big.Int).Mod(new(big.Int).SetBytes(b), curve.N())
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Sign produces a 64-byte BIP-340 signature (r || s) over msg32 using
// private key d, per the spec's deterministic-plus-auxiliary-randomness
// algorithm.
func Sign(msg32, d []byte) ([]byte, error) {
	if len(msg32) != 32 {
		return nil, ErrInvalidMessageLength
	}
	if err := curve.ValidatePrivate(d); err != nil {
		return nil, err
	}

	dInt := new(big.Int).SetBytes(d)
	px, py := curve.Curve.ScalarBaseMult(d)
	if py.Bit(0) != 0 {
		dInt = new(big.Int).Sub(curve.N(), dInt)
	}
	dBytes := curve.LeftPad32(dInt)
	pxBytes := curve.LeftPad32(px)

	aux := make([]byte, 32)
	if _, err := rand.Read(aux); err != nil {
		return nil, ErrSigningFailed
	}
	t := xorBytes(dBytes, taggedHash("BIP0340/aux", aux))

	k0 := modN(taggedHash("BIP0340/nonce", t, pxBytes, msg32))
	if k0.Sign() == 0 {
		return nil, ErrSigningFailed
	}

	rx, ry := curve.Curve.ScalarBaseMult(curve.LeftPad32(k0))
	k := k0
	if ry.Bit(0) != 0 {
		k = new(big.Int).Sub(curve.N(), k0)
	}
	rxBytes := curve.LeftPad32(rx)

	e := modN(taggedHash("BIP0340/challenge", rxBytes, pxBytes, msg32))

	s := new(big.Int).Mod(new(big.Int).Add(k, new(big.Int).Mul(e, dInt)), curve.N())

	sig := make([]byte, 64)
	copy(sig[:32], rxBytes)
	copy(sig[32:], curve.LeftPad32(s))

	if ok := Verify(msg32, sig, curve.LeftPad32(px)); !ok {
		return nil, ErrSigningFailed
	}
	return sig, nil
}

// Verify reports whether sig is a valid BIP-340 signature over msg32 by
// the holder of x-only public key px. It never panics: malformed r, s,
// or public-key inputs simply yield false.
func Verify(msg32, sig, px []byte) bool {
	if len(msg32) != 32 || len(sig) != 64 || len(px) != 32 {
		return false
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	if r.Cmp(curve.P()) >= 0 || s.Cmp(curve.N()) >= 0 {
		return false
	}

	pxInt, pyInt, err := curve.DecompressXOnlyBig(px, false)
	if err != nil {
		return false
	}

	e := modN(taggedHash("BIP0340/challenge", curve.LeftPad32(r), curve.LeftPad32(pxInt), msg32))

	sGx, sGy := curve.Curve.ScalarBaseMult(curve.LeftPad32(s))
	negE := new(big.Int).Sub(curve.N(), e)
	ePx, ePy := curve.Curve.ScalarMult(pxInt, pyInt, curve.LeftPad32(negE))

	rx, ry := curve.Curve.Add(sGx, sGy, ePx, ePy)
	if rx.Sign() == 0 && ry.Sign() == 0 {
		return false
	}
	if ry.Bit(0) != 0 {
		return false
	}
	return bytes.Equal(curve.LeftPad32(rx), curve.LeftPad32(r))
}
