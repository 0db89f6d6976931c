// Package curve implements secp256k1 scalar/point primitives: private-key
// validation, x-only and compressed public-key encodings, x-only point
// decompression, and x-only ECDH. Curve arithmetic (point addition, scalar
// multiplication) is delegated to the decred secp256k1 implementation via
// its crypto/elliptic-compatible curve; key validity, encoding, and the
// x-only/compressed wire conventions are implemented here per BIP-340.
package curve

import (
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	ErrInvalidPrivateKey = errors.New("curve: invalid private key")
	ErrInvalidPublicKey  = errors.New("curve: invalid public key")
	ErrNotOnCurve        = errors.New("curve: point not on curve")
)

// Curve is the secp256k1 curve, exposed as a standard library
// crypto/elliptic.Curve so callers can use Add/ScalarMult/ScalarBaseMult
// directly where convenient.
var Curve = secp256k1.S256()

// N returns the order of the base point G.
func N() *big.Int { return Curve.Params().N }

// P returns the field prime.
func P() *big.Int { return Curve.Params().P }

// LeftPad32 returns n's big-endian bytes, left-padded (or truncated from
// the left) to exactly 32 bytes.
func LeftPad32(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// ValidatePrivate checks that d is 32 bytes and satisfies 1 <= d < n.
func ValidatePrivate(d []byte) error {
	if len(d) != 32 {
		return ErrInvalidPrivateKey
	}
	x := new(big.Int).SetBytes(d)
	if x.Sign() == 0 || x.Cmp(N()) >= 0 {
		return ErrInvalidPrivateKey
	}
	return nil
}

// XOnlyPub returns the 32-byte big-endian x-coordinate of d*G.
func XOnlyPub(d []byte) ([]byte, error) {
	if err := ValidatePrivate(d); err != nil {
		return nil, err
	}
	x, _ := Curve.ScalarBaseMult(d)
	return LeftPad32(x), nil
}

// CompressedPub returns the 33-byte SEC1 compressed encoding of d*G
// (0x02/0x03 prefix by y-parity).
func CompressedPub(d []byte) ([]byte, error) {
	if err := ValidatePrivate(d); err != nil {
		return nil, err
	}
	x, y := Curve.ScalarBaseMult(d)
	out := make([]byte, 33)
	if y.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	copy(out[1:], LeftPad32(x))
	return out, nil
}

// DecompressXOnlyBig recovers the full point (x, y) for a 32-byte x-only
// public key, choosing the y matching oddY. It fails with ErrNotOnCurve
// when x has no square root in the field (the candidate is not a valid
// curve x-coordinate).
func DecompressXOnlyBig(x []byte, oddY bool) (px, py *big.Int, err error) {
	if len(x) != 32 {
		return nil, nil, ErrInvalidPublicKey
	}
	prefix := byte(0x02)
	if oddY {
		prefix = 0x03
	}
	buf := make([]byte, 33)
	buf[0] = prefix
	copy(buf[1:], x)
	pub, e := secp256k1.ParsePubKey(buf)
	if e != nil {
		return nil, nil, ErrNotOnCurve
	}
	return pub.X(), pub.Y(), nil
}

// DecompressXOnly is the byte-oriented form of DecompressXOnlyBig.
func DecompressXOnly(x []byte, oddY bool) (px, py []byte, err error) {
	bx, by, err := DecompressXOnlyBig(x, oddY)
	if err != nil {
		return nil, nil, err
	}
	return LeftPad32(bx), LeftPad32(by), nil
}

// ParsePublicKey accepts a 32-byte x-only, 33-byte compressed, or 65-byte
// uncompressed public key and returns its affine coordinates. For 32-byte
// x-only input the 0x02 (even-y) candidate is tried first, falling back to
// 0x03 (odd-y) if the even-y candidate is off-curve: the caller must treat
// the chosen parity as unspecified (see ECDH contract in the design notes).
func ParsePublicKey(q []byte) (x, y *big.Int, err error) {
	switch len(q) {
	case 33, 65:
		pub, e := secp256k1.ParsePubKey(q)
		if e != nil {
			return nil, nil, ErrInvalidPublicKey
		}
		return pub.X(), pub.Y(), nil
	case 32:
		if x, y, err = DecompressXOnlyBig(q, false); err == nil {
			return x, y, nil
		}
		if x, y, err = DecompressXOnlyBig(q, true); err == nil {
			return x, y, nil
		}
		return nil, nil, ErrInvalidPublicKey
	default:
		return nil, nil, ErrInvalidPublicKey
	}
}

// ECDH computes the x-only Diffie-Hellman shared secret between private
// scalar d and public point q (32/33/65-byte encoding).
func ECDH(d []byte, q []byte) ([]byte, error) {
	if err := ValidatePrivate(d); err != nil {
		return nil, err
	}
	qx, qy, err := ParsePublicKey(q)
	if err != nil {
		return nil, err
	}
	sx, _ := Curve.ScalarMult(qx, qy, d)
	return LeftPad32(sx), nil
}
