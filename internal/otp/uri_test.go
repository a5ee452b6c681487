// ABOUTME: Tests for otpauth URI rendering and parsing
// ABOUTME: Exercises round trips, defaults, and malformed input handling

package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURI_RoundTrip(t *testing.T) {
	secret, err := SecretFromBase32("GEZDGNBVGY3TQOJQ")
	require.NoError(t, err)

	orig := NewToken(TypeTOTP)
	orig.Secret = secret
	orig.SetIssuer("Example")
	orig.Label = "alice@example.com"
	orig.Algorithm = "SHA256"
	orig.Digits = 8
	orig.Period = 60

	parsed, err := ParseURI(orig.URI())
	require.NoError(t, err)
	assert.Equal(t, TypeTOTP, parsed.Type)
	assert.Equal(t, "Example", parsed.Issuer)
	assert.Equal(t, "alice@example.com", parsed.Label)
	assert.Equal(t, "SHA256", parsed.Algorithm)
	assert.Equal(t, 8, parsed.Digits)
	assert.Equal(t, 60, parsed.Period)
	assert.True(t, parsed.Secret.Equal(secret))
}

func TestURI_HOTPCarriesCounter(t *testing.T) {
	secret, err := SecretFromBase32("GEZDGNBVGY3TQOJQ")
	require.NoError(t, err)

	tok := NewToken(TypeHOTP)
	tok.Secret = secret
	tok.Label = "alice"
	tok.Counter = 42

	uri := tok.URI()
	assert.Contains(t, uri, "counter=42")
	assert.NotContains(t, uri, "period=")

	parsed, err := ParseURI(uri)
	require.NoError(t, err)
	assert.Equal(t, int64(42), parsed.Counter)
}

func TestURI_HOTPCounterZeroIncluded(t *testing.T) {
	tok := NewToken(TypeHOTP)
	tok.Secret = NewSecret([]byte("12345678901234567890"))
	tok.Label = "alice"
	assert.Contains(t, tok.URI(), "counter=0")
}

func TestURI_IssuerlessLabel(t *testing.T) {
	tok := NewToken(TypeTOTP)
	tok.Secret = NewSecret([]byte("12345678901234567890"))
	tok.Label = "alice@example.com"

	parsed, err := ParseURI(tok.URI())
	require.NoError(t, err)
	assert.Empty(t, parsed.Issuer)
	assert.Equal(t, "alice@example.com", parsed.Label)
}

func TestParseURI_Defaults(t *testing.T) {
	parsed, err := ParseURI("otpauth://totp/alice?secret=GEZDGNBVGY3TQOJQ")
	require.NoError(t, err)
	assert.Equal(t, "SHA1", parsed.Algorithm)
	assert.Equal(t, 6, parsed.Digits)
	assert.Equal(t, 30, parsed.Period)
	assert.Equal(t, int64(0), parsed.Counter)
}

func TestParseURI_IssuerLabelSplit(t *testing.T) {
	parsed, err := ParseURI("otpauth://totp/Example:alice?secret=GEZDGNBVGY3TQOJQ")
	require.NoError(t, err)
	assert.Equal(t, "Example", parsed.Issuer)
	assert.Equal(t, "Example", parsed.IssuerInt)
	assert.Equal(t, "Example", parsed.IssuerExt)
	assert.Equal(t, "alice", parsed.Label)
}

func TestParseURI_Errors(t *testing.T) {
	cases := []struct {
		name string
		uri  string
	}{
		{"wrong scheme", "https://totp/alice?secret=GEZDGNBVGY3TQOJQ"},
		{"unknown type", "otpauth://motp/alice?secret=GEZDGNBVGY3TQOJQ"},
		{"missing secret", "otpauth://totp/alice"},
		{"bad secret", "otpauth://totp/alice?secret=not%20base32!"},
		{"bad digits", "otpauth://totp/alice?secret=GEZDGNBVGY3TQOJQ&digits=six"},
		{"bad period", "otpauth://totp/alice?secret=GEZDGNBVGY3TQOJQ&period=soon"},
		{"bad counter", "otpauth://hotp/alice?secret=GEZDGNBVGY3TQOJQ&counter=x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseURI(tc.uri)
			assert.Error(t, err)
		})
	}
}

func TestParseURI_UnpaddedSecret(t *testing.T) {
	// Providers routinely drop base32 padding
	parsed, err := ParseURI("otpauth://totp/alice?secret=GEZA")
	require.NoError(t, err)
	assert.Equal(t, []byte("12"), parsed.Secret.Bytes())
}
