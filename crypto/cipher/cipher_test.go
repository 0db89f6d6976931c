package cipher

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sage-connect/crypto/curve"
)

func randPrivate(t *testing.T) []byte {
	t.Helper()
	for {
		d := make([]byte, 32)
		_, err := rand.Read(d)
		require.NoError(t, err)
		if curve.ValidatePrivate(d) == nil {
			return d
		}
	}
}

func TestCalcPaddedLenTable(t *testing.T) {
	cases := map[int]int{
		1:     32,
		32:    32,
		33:    64,
		256:   256,
		257:   320,
		10000: 10240,
		65535: 65536,
	}
	for in, want := range cases {
		assert.Equalf(t, want, calcPaddedLen(in), "calcPaddedLen(%d)", in)
	}
}

func TestNip44RoundTrip(t *testing.T) {
	dA := randPrivate(t)
	dB := randPrivate(t)
	pubA, err := curve.XOnlyPub(dA)
	require.NoError(t, err)
	pubB, err := curve.XOnlyPub(dB)
	require.NoError(t, err)

	keyAB, err := ConversationKey(dA, pubB)
	require.NoError(t, err)
	keyBA, err := ConversationKey(dB, pubA)
	require.NoError(t, err)
	require.Equal(t, keyAB, keyBA)

	ciphertext, err := Nip44Encrypt("hello nostr-connect", keyAB)
	require.NoError(t, err)

	plaintext, err := Nip44Decrypt(ciphertext, keyBA)
	require.NoError(t, err)
	assert.Equal(t, "hello nostr-connect", plaintext)
}

func TestNip44DecryptRejectsTamperedMAC(t *testing.T) {
	dA := randPrivate(t)
	dB := randPrivate(t)
	pubB, err := curve.XOnlyPub(dB)
	require.NoError(t, err)

	key, err := ConversationKey(dA, pubB)
	require.NoError(t, err)

	ciphertext, err := Nip44Encrypt("payload", key)
	require.NoError(t, err)

	raw := []byte(ciphertext)
	raw[len(raw)-1] ^= 0x01

	_, err = Nip44Decrypt(string(raw), key)
	assert.Error(t, err)
}

func TestNip44DecryptRejectsFutureVersion(t *testing.T) {
	_, err := Nip44Decrypt("#unknown-version-marker", make([]byte, 32))
	assert.ErrorIs(t, err, ErrNip44UnsupportedVersion)
}

func TestNip44EncryptRejectsOutOfRangePlaintext(t *testing.T) {
	_, err := pad(nil)
	assert.ErrorIs(t, err, ErrNip44InvalidPlaintext)

	_, err = pad(make([]byte, maxPlaintextSize+1))
	assert.ErrorIs(t, err, ErrNip44InvalidPlaintext)
}

func TestNip04RoundTrip(t *testing.T) {
	dA := randPrivate(t)
	dB := randPrivate(t)
	pubA, err := curve.XOnlyPub(dA)
	require.NoError(t, err)
	pubB, err := curve.XOnlyPub(dB)
	require.NoError(t, err)

	secretAB, err := Nip04SharedSecret(dA, pubB)
	require.NoError(t, err)
	secretBA, err := Nip04SharedSecret(dB, pubA)
	require.NoError(t, err)
	require.Equal(t, secretAB, secretBA)

	ciphertext, err := Nip04Encrypt("legacy payload", secretAB)
	require.NoError(t, err)
	assert.True(t, strings.Contains(ciphertext, "?iv="))

	plaintext, err := Nip04Decrypt(ciphertext, secretBA)
	require.NoError(t, err)
	assert.Equal(t, "legacy payload", plaintext)
}

func TestNip04DecryptRejectsMalformedPayload(t *testing.T) {
	_, err := Nip04Decrypt("not-a-valid-payload", make([]byte, 32))
	assert.ErrorIs(t, err, ErrNip04InvalidPayload)
}
