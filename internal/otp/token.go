// ABOUTME: Token entity and the HMAC-based one-time password computation
// ABOUTME: Implements RFC 4226 (HOTP) and RFC 6238 (TOTP) code generation

package otp

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"
)

// Token errors
var (
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrNotBound         = errors.New("token is not bound to a store")
)

// Type selects the code-generation algorithm of a token.
type Type string

// Known token types
const (
	TypeTOTP    Type = "TOTP"
	TypeHOTP    Type = "HOTP"
	TypeSecurID Type = "SecurID"
)

// ParseType matches a string against the known token types,
// case-insensitively. Returns ErrInvalidTokenType for anything else.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(s) {
	case "TOTP":
		return TypeTOTP, nil
	case "HOTP":
		return TypeHOTP, nil
	case "SECURID":
		return TypeSecurID, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTokenType, s)
	}
}

// Algorithms maps HMAC hash names to their constructors.
var Algorithms = map[string]func() hash.Hash{
	"SHA1":   sha1.New,
	"SHA256": sha256.New,
	"SHA512": sha512.New,
	"MD5":    md5.New,
}

// AlgorithmNames lists the supported HMAC hash names in display order.
var AlgorithmNames = []string{"SHA1", "SHA256", "SHA512", "MD5"}

// Defaults applied when a field is absent from a record or URI.
const (
	DefaultPeriod    = 30
	DefaultDigits    = 6
	DefaultAlgorithm = "SHA1"
)

// Deleter removes a persisted token by rowid. The token store
// implements it; tokens loaded from the store are bound to it so they
// can delete themselves.
type Deleter interface {
	Delete(ctx context.Context, rowid int64) error
}

// Token is one enrolled credential: its algorithm parameters, identity
// fields and secret. A zero RowID marks a transient token that has not
// been persisted yet.
//
// IssuerInt and IssuerExt exist for compatibility with the FreeOTP
// backup format, which historically carried two issuer strings. They
// stay synchronized to Issuer unless loaded from legacy data where
// they diverge; divergent values survive load/store round trips
// verbatim.
type Token struct {
	RowID     int64
	Type      Type
	Algorithm string
	Counter   int64 // HOTP only
	Digits    int
	IssuerInt string
	IssuerExt string
	Issuer    string
	Label     string
	Period    int // TOTP only

	// SecurID-only fields, carried but not computed here
	ExpDate string
	PIN     string
	Serial  string

	Secret Secret

	// SecurID is the injected external computation capability.
	// When nil, Calculate renders a placeholder for SecurID tokens.
	SecurID SecurIDComputer

	store Deleter
}

// NewToken returns a transient token of the given type with the
// default algorithm parameters applied.
func NewToken(typ Type) *Token {
	return &Token{
		Type:      typ,
		Algorithm: DefaultAlgorithm,
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
	}
}

// SetIssuer sets the canonical issuer and keeps the legacy dual
// issuer fields synchronized with it.
func (t *Token) SetIssuer(issuer string) {
	t.Issuer = issuer
	t.IssuerInt = issuer
	t.IssuerExt = issuer
}

// Bind attaches the token to the store it was loaded from, recording
// the assigned rowid. A bound token can delete itself.
func (t *Token) Bind(store Deleter, rowid int64) {
	t.store = store
	t.RowID = rowid
}

// Delete removes the token from the store it is bound to.
// Returns ErrNotBound for transient tokens.
func (t *Token) Delete(ctx context.Context) error {
	if t.store == nil || t.RowID == 0 {
		return ErrNotBound
	}
	return t.store.Delete(ctx, t.RowID)
}

// CodeOptions override the reference point used by Calculate.
type CodeOptions struct {
	Time    *time.Time // TOTP: compute for this instant instead of now
	Counter *int64     // HOTP: use this counter instead of the stored one
}

// Calculate computes the current one-time password as a zero-padded
// decimal string of exactly Digits characters.
//
// SecurID tokens delegate to the injected computer; when it is absent
// or fails, a placeholder of '?' characters is returned so that batch
// listings keep going past one broken token.
func (t *Token) Calculate(opts *CodeOptions) string {
	digits := t.digits()
	if t.Type == TypeSecurID {
		if t.SecurID != nil {
			if code, err := t.SecurID.Now(t); err == nil {
				return code
			}
		}
		return strings.Repeat("?", digits)
	}

	newHash := Algorithms[t.Algorithm]
	if newHash == nil {
		newHash = sha1.New
	}

	var value int64
	switch {
	case t.Type == TypeHOTP && opts != nil && opts.Counter != nil:
		value = *opts.Counter
	case t.Type == TypeHOTP:
		value = t.Counter
	case opts != nil && opts.Time != nil:
		value = opts.Time.Unix() / int64(t.period())
	default:
		value = time.Now().Unix() / int64(t.period())
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(value))
	mac := hmac.New(newHash, t.Secret.Bytes())
	mac.Write(msg[:])
	digest := mac.Sum(nil)

	// RFC 4226 dynamic truncation. The offset nibble ranges over 0-15,
	// which fits a 20-byte SHA1 digest; shorter digests (MD5) need the
	// offset clamped so the 4-byte window stays in range.
	offset := digest[len(digest)-1] & 0x0f
	if int(offset) > len(digest)-4 {
		offset = byte(len(digest) - 4)
	}
	code := binary.BigEndian.Uint32(digest[offset : offset+4])
	otp := int64(code&0x7fffffff) % pow10(digits)
	return fmt.Sprintf("%0*d", digits, otp)
}

// TimeLeft reports the seconds until the current TOTP code rolls over.
// The result is never 0: on a period boundary the full period is
// reported. The second value is false for HOTP and SecurID tokens,
// which have no time-based rollover.
func (t *Token) TimeLeft() (int, bool) {
	return t.TimeLeftAt(time.Now().UTC())
}

// TimeLeftAt is TimeLeft evaluated at the given instant.
func (t *Token) TimeLeftAt(at time.Time) (int, bool) {
	if t.Type != TypeTOTP {
		return 0, false
	}
	period := t.period()
	left := (period - at.Second()%period) % period
	if left == 0 {
		left = period
	}
	return left, true
}

// Spinner maps the remaining code lifetime onto one of the given glyph
// characters. Returns the empty string when the glyph set is empty or
// the token has no time-based rollover.
func (t *Token) Spinner(glyphs string) string {
	return t.spinnerAt(glyphs, time.Now().UTC())
}

func (t *Token) spinnerAt(glyphs string, at time.Time) string {
	runes := []rune(glyphs)
	if len(runes) == 0 {
		return ""
	}
	left, ok := t.TimeLeftAt(at)
	if !ok {
		return ""
	}
	i := left * len(runes) / t.period()
	if i > len(runes)-1 {
		i = len(runes) - 1
	}
	return string(runes[i])
}

// Details returns a key-value dump of all token fields for verbose
// display, with the secret rendered as Base32.
func (t *Token) Details() string {
	var lines []string
	add := func(key string, value any) {
		lines = append(lines, fmt.Sprintf("%-10s %v", key+":", value))
	}
	add("Type", t.Type)
	add("Algorithm", t.algorithm())
	if t.Type == TypeHOTP {
		add("Counter", t.Counter)
	}
	add("Digits", t.digits())
	add("Issuer", t.Issuer)
	add("Label", t.Label)
	add("Period", t.period())
	add("Secret", t.Secret.Base32())
	if t.ExpDate != "" {
		add("Exp_date", t.ExpDate)
	}
	if t.PIN != "" {
		add("Pin", t.PIN)
	}
	if t.Serial != "" {
		add("Serial", t.Serial)
	}
	return strings.Join(lines, "\n")
}

// String returns the display identity: "issuer:label" when the issuer
// is present, the label alone otherwise, "#rowid" for unnamed
// persisted tokens, and "?" as a last resort.
func (t *Token) String() string {
	var parts []string
	if s := strings.TrimSpace(t.Issuer); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(t.Label); s != "" {
		parts = append(parts, s)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ":")
	}
	if t.RowID != 0 {
		return fmt.Sprintf("#%d", t.RowID)
	}
	return "?"
}

func (t *Token) digits() int {
	if t.Digits > 0 {
		return t.Digits
	}
	return DefaultDigits
}

func (t *Token) period() int {
	if t.Period > 0 {
		return t.Period
	}
	return DefaultPeriod
}

func (t *Token) algorithm() string {
	if t.Algorithm != "" {
		return t.Algorithm
	}
	return DefaultAlgorithm
}

func pow10(n int) int64 {
	r := int64(1)
	for i := 0; i < n; i++ {
		r *= 10
	}
	return r
}
