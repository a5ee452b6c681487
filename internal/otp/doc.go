// Package otp implements the one-time password engine: secrets, token
// records and deterministic code generation.
//
// # Token Types
//
// Three token types are supported:
//
//   - TOTP: time-based codes per RFC 6238; the counter is derived from
//     elapsed time steps of Period seconds
//   - HOTP: counter-based codes per RFC 4226; the counter is an
//     explicit incrementing integer
//   - SecurID: records are stored and validated, but code computation
//     is delegated to an injected SecurIDComputer
//
// # Code Computation
//
// Calculate follows RFC 4226: the 64-bit big-endian counter value is
// HMAC'd with the secret using the configured hash (SHA1, SHA256,
// SHA512 or MD5), four bytes are selected by dynamic truncation, and
// the result is reduced modulo 10^Digits and zero-padded.
//
// # Secrets
//
// Secret wraps the shared key bytes and converts between hex, Base32
// and the integer-list encoding used by FreeOTP backups. All
// conversions round-trip losslessly; Base32 input is normalized
// (spaces stripped, uppercased, padded) before decoding.
//
// # URIs
//
// Tokens serialize to and from otpauth:// URIs. ParseURI(t.URI())
// reconstructs an equivalent token.
//
// The package performs no I/O; persistence lives in internal/store.
package otp
