// ABOUTME: Injectable capability interface for external SecurID code computation
// ABOUTME: Absence of an implementation is a handled condition, not an error

package otp

import "errors"

// ErrSecurIDUnavailable is returned by SecurIDComputer implementations
// that cannot produce a code for the given token.
var ErrSecurIDUnavailable = errors.New("securid computation not available")

// SecurIDComputer computes codes for SecurID tokens. The engine stores
// and validates SecurID records but does not implement their
// proprietary algorithm; an implementation is injected by the caller.
// Calculate treats a nil computer, or any error from Now, as the
// normal "code unavailable" condition.
type SecurIDComputer interface {
	// Now returns the current code for the token.
	Now(t *Token) (string, error)
}
