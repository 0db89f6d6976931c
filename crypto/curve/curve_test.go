package curve

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randScalar(t *testing.T) []byte {
	t.Helper()
	for {
		d := make([]byte, 32)
		_, err := rand.Read(d)
		require.NoError(t, err)
		if ValidatePrivate(d) == nil {
			return d
		}
	}
}

func TestValidatePrivate(t *testing.T) {
	t.Run("RejectsWrongLength", func(t *testing.T) {
		assert.ErrorIs(t, ValidatePrivate(make([]byte, 31)), ErrInvalidPrivateKey)
	})

	t.Run("RejectsZero", func(t *testing.T) {
		assert.ErrorIs(t, ValidatePrivate(make([]byte, 32)), ErrInvalidPrivateKey)
	})

	t.Run("RejectsGreaterThanOrEqualToN", func(t *testing.T) {
		assert.ErrorIs(t, ValidatePrivate(LeftPad32(N())), ErrInvalidPrivateKey)
	})

	t.Run("AcceptsValidScalar", func(t *testing.T) {
		assert.NoError(t, ValidatePrivate(randScalar(t)))
	})
}

func TestXOnlyAndCompressedPub(t *testing.T) {
	d := randScalar(t)

	xonly, err := XOnlyPub(d)
	require.NoError(t, err)
	assert.Len(t, xonly, 32)

	compressed, err := CompressedPub(d)
	require.NoError(t, err)
	assert.Len(t, compressed, 33)
	assert.Contains(t, []byte{0x02, 0x03}, compressed[0])
	assert.Equal(t, xonly, compressed[1:])
}

func TestDecompressXOnlyRoundTrip(t *testing.T) {
	d := randScalar(t)
	compressed, err := CompressedPub(d)
	require.NoError(t, err)

	odd := compressed[0] == 0x03
	_, y, err := DecompressXOnly(compressed[1:], odd)
	require.NoError(t, err)

	gotOdd := y[31]&1 == 1
	assert.Equal(t, odd, gotOdd)
}

func TestECDHSymmetric(t *testing.T) {
	dA := randScalar(t)
	dB := randScalar(t)

	pubA, err := CompressedPub(dA)
	require.NoError(t, err)
	pubB, err := CompressedPub(dB)
	require.NoError(t, err)

	secretAB, err := ECDH(dA, pubB)
	require.NoError(t, err)
	secretBA, err := ECDH(dB, pubA)
	require.NoError(t, err)

	assert.Equal(t, secretAB, secretBA)
	assert.Len(t, secretAB, 32)
}

func TestECDHAcceptsXOnlyPeerKey(t *testing.T) {
	dA := randScalar(t)
	dB := randScalar(t)

	xonlyB, err := XOnlyPub(dB)
	require.NoError(t, err)
	compressedB, err := CompressedPub(dB)
	require.NoError(t, err)

	secretViaXOnly, err := ECDH(dA, xonlyB)
	require.NoError(t, err)
	secretViaCompressed, err := ECDH(dA, compressedB)
	require.NoError(t, err)

	assert.Equal(t, secretViaCompressed, secretViaXOnly)
}

func TestParsePublicKeyRejectsBadLength(t *testing.T) {
	_, _, err := ParsePublicKey(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}
