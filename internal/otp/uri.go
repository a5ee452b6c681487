// ABOUTME: otpauth:// URI encoding and decoding for tokens
// ABOUTME: Round trip preserves type, algorithm, digits, period/counter and identity

package otp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URI renders the token as an otpauth:// URI.
//
// The secret is always present. Period is omitted for HOTP tokens;
// counter is always included for HOTP tokens, zero included, since
// zero is a legitimate starting counter.
func (t *Token) URI() string {
	q := url.Values{}
	if a := t.algorithm(); a != "" {
		q.Set("algorithm", a)
	}
	q.Set("digits", strconv.Itoa(t.digits()))
	if t.Type == TypeHOTP {
		q.Set("counter", strconv.FormatInt(t.Counter, 10))
	} else {
		q.Set("period", strconv.Itoa(t.period()))
	}
	q.Set("secret", t.Secret.Base32())

	var parts []string
	if s := strings.TrimSpace(t.Issuer); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(t.Label); s != "" {
		parts = append(parts, s)
	}
	u := url.URL{
		Scheme:   "otpauth",
		Host:     strings.ToLower(string(t.Type)),
		Path:     "/" + strings.Join(parts, ":"),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ParseURI builds a transient token from an otpauth:// URI.
//
// The host must name a known token type (case-insensitive) or the
// parse fails with ErrInvalidTokenType. The path is split on the first
// ':' into issuer and label. Absent query parameters fall back to the
// defaults: period 30, digits 6, algorithm SHA1, counter 0.
func ParseURI(raw string) (*Token, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing otpauth uri: %w", err)
	}
	if u.Scheme != "otpauth" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidTokenType, u.Scheme)
	}
	typ, err := ParseType(u.Host)
	if err != nil {
		return nil, err
	}

	t := NewToken(typ)
	q := u.Query()
	if v := q.Get("algorithm"); v != "" {
		t.Algorithm = v
	}
	if v := q.Get("digits"); v != "" {
		digits, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing digits %q: %w", v, err)
		}
		t.Digits = digits
	}
	if v := q.Get("period"); v != "" {
		period, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing period %q: %w", v, err)
		}
		t.Period = period
	}
	if v := q.Get("counter"); v != "" {
		counter, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing counter %q: %w", v, err)
		}
		t.Counter = counter
	}

	path := strings.Trim(u.Path, "/")
	if issuer, label, found := strings.Cut(path, ":"); found {
		t.SetIssuer(issuer)
		t.Label = label
	} else {
		t.Label = path
	}

	secret := q.Get("secret")
	if secret == "" {
		return nil, fmt.Errorf("%w: missing secret", ErrInvalidSecret)
	}
	t.Secret, err = SecretFromBase32(secret)
	if err != nil {
		return nil, err
	}
	return t, nil
}
