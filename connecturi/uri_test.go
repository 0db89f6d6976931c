package connecturi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildThenParseRoundTrip(t *testing.T) {
	u := &URI{
		Pubkey:      strings.Repeat("ab", 32),
		Relays:      []string{"wss://relay.one", "wss://relay.two"},
		Secret:      "s3cr3t",
		Permissions: []string{"sign_event", "nip44_encrypt"},
		Name:        "demo client",
	}

	built, err := Build(u)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(built, "nostrconnect://"))

	parsed, err := Parse(built)
	require.NoError(t, err)
	assert.Equal(t, u.Pubkey, parsed.Pubkey)
	assert.Equal(t, u.Relays, parsed.Relays)
	assert.Equal(t, u.Secret, parsed.Secret)
	assert.Equal(t, u.Permissions, parsed.Permissions)
	assert.Equal(t, u.Name, parsed.Name)
}

func TestParseIsCaseInsensitiveOnScheme(t *testing.T) {
	raw := "NostrConnect://" + strings.Repeat("cd", 32) + "?relay=wss://r&secret=x"
	_, err := Parse(raw)
	assert.NoError(t, err)
}

func TestParsePreservesRelayOrder(t *testing.T) {
	raw := "nostrconnect://" + strings.Repeat("ab", 32) + "?relay=wss://a&relay=wss://b&relay=wss://c&secret=x"
	u, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://a", "wss://b", "wss://c"}, u.Relays)
}

func TestParseIgnoresUnknownParams(t *testing.T) {
	raw := "nostrconnect://" + strings.Repeat("ab", 32) + "?relay=wss://a&secret=x&bogus=1"
	u, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "x", u.Secret)
}

func TestParseRejectsMissingRelay(t *testing.T) {
	raw := "nostrconnect://" + strings.Repeat("ab", 32) + "?secret=x"
	_, err := Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestParseRejectsMissingSecret(t *testing.T) {
	raw := "nostrconnect://" + strings.Repeat("ab", 32) + "?relay=wss://a"
	_, err := Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestParseRejectsWrongScheme(t *testing.T) {
	raw := "https://" + strings.Repeat("ab", 32) + "?relay=wss://a&secret=x"
	_, err := Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestBuildRejectsMissingFields(t *testing.T) {
	_, err := Build(&URI{})
	assert.ErrorIs(t, err, ErrInvalidURI)
}
