package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config captures what the HS256 codec needs up front. The secret comes from
// process configuration; constructing a codec without one fails hard.
type Config struct {
	// Secret is the symmetric signing key. Required.
	Secret []byte

	// Issuer is stamped into every token and enforced on verification.
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf. Defaults to
	// zero; time sync is never perfect, so a minute or two is reasonable.
	Leeway time.Duration
}

// HS256 signs and verifies tokens with HMAC-SHA256. It implements both
// Signer and Verifier: the same codec serves the 15-minute access token and
// the 7-day refresh token, TTL is a claims parameter rather than codec state.
type HS256 struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewHS256 builds the codec. Returns ErrNoSecret when cfg.Secret is empty so
// the caller can abort startup.
func NewHS256(cfg Config) (*HS256, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	return &HS256{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
	}, nil
}

// Sign serializes and signs the given claims.
func (c *HS256) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Verify parses and validates a token string. Failures are collapsed into
// the package error taxonomy so callers can switch on errors.Is without
// knowing the underlying JWT library:
//
//   - ErrMalformed:   not parseable as a JWT at all
//   - ErrInvalidSig:  structure fine, signature does not match
//   - ErrExpired:     signature fine, exp in the past
//   - ErrNotYetValid: nbf in the future
//   - ErrIssuer:      iss does not match the configured issuer
func (c *HS256) Verify(token string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithLeeway(c.leeway),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return ErrMalformed
	}
}
