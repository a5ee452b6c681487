// ABOUTME: Secret wraps the shared symmetric key bytes of an OTP token
// ABOUTME: Converts losslessly between raw bytes, hex, Base32 and integer lists

package otp

import (
	"bytes"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSecret is returned when a secret encoding cannot be decoded
var ErrInvalidSecret = errors.New("invalid secret encoding")

// Secret is the shared symmetric key of a token. It is immutable once
// constructed; all conversions return copies.
type Secret struct {
	key []byte
}

// NewSecret creates a Secret from raw key bytes.
func NewSecret(key []byte) Secret {
	return Secret{key: append([]byte(nil), key...)}
}

// SecretFromHex decodes a hex digest string into a Secret.
// Embedded whitespace is tolerated. Returns ErrInvalidSecret on odd
// length or non-hex characters.
func SecretFromHex(s string) (Secret, error) {
	s = strings.Join(strings.Fields(s), "")
	key, err := hex.DecodeString(s)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return Secret{key: key}, nil
}

// SecretFromBase32 decodes a Base32 string into a Secret.
// Input is normalized first: spaces stripped, uppercased, and padded
// with '=' to a multiple of 8 characters. Returns ErrInvalidSecret on
// characters outside the Base32 alphabet.
func SecretFromBase32(s string) (Secret, error) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if n := len(s) % 8; n != 0 {
		s += strings.Repeat("=", 8-n)
	}
	key, err := base32.StdEncoding.DecodeString(s)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return Secret{key: key}, nil
}

// SecretFromIntList builds a Secret from a sequence of byte values.
// Each value is taken modulo 256, which accepts both unsigned [0,255]
// and the signed [-128,127] representation used by legacy FreeOTP
// backups.
func SecretFromIntList(values []int) Secret {
	key := make([]byte, len(values))
	for i, v := range values {
		key[i] = byte(((v % 256) + 256) % 256)
	}
	return Secret{key: key}
}

// Bytes returns a copy of the raw key bytes.
func (s Secret) Bytes() []byte {
	return append([]byte(nil), s.key...)
}

// Hex returns the key as a lowercase hex string.
func (s Secret) Hex() string {
	return hex.EncodeToString(s.key)
}

// Base32 returns the key as a padded uppercase Base32 string.
func (s Secret) Base32() string {
	return base32.StdEncoding.EncodeToString(s.key)
}

// IntList returns the key as a list of unsigned byte values.
func (s Secret) IntList() []int {
	values := make([]int, len(s.key))
	for i, b := range s.key {
		values[i] = int(b)
	}
	return values
}

// Len returns the key length in bytes.
func (s Secret) Len() int {
	return len(s.key)
}

// Equal reports whether two secrets hold the same key bytes.
func (s Secret) Equal(other Secret) bool {
	return bytes.Equal(s.key, other.key)
}

func (s Secret) String() string {
	return s.Hex()
}
