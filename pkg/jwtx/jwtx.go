// Package jwtx signs and verifies the service's bearer tokens. Tokens are
// HMAC-SHA256 JWTs signed with a single server-side secret supplied at
// startup; there is no ambient secret lookup anywhere in request handling.
package jwtx

import "errors"

// Signer mints signed tokens from claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a token string and returns its claims if legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrTokenUse    = errors.New("jwtx: wrong token use")

	// ErrNoSecret is returned by NewHS256 when no signing secret was
	// configured. This is a startup-time error, never a per-request one.
	ErrNoSecret = errors.New("jwtx: signing secret is required")
)
