package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short access tokens limit the blast radius of a leaked
// bearer credential; the refresh token trades that off for user convenience.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token use markers embedded in the "use" claim. A refresh token must never
// be accepted where an access token is expected, and vice versa.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims are the claims carried by both access and refresh tokens. The
// payload is signed, not encrypted: nothing secret goes in here.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the subject account, for caller convenience.
	Email string `json:"email,omitempty"`

	// TokenUse distinguishes access tokens from refresh tokens.
	TokenUse string `json:"use,omitempty"`
}

// NewClaims builds minimally-correct claims for a subject account.
func NewClaims(
	subject, email, tokenUse string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:    email,
		TokenUse: tokenUse,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. The jti
// is what the revocation list keys on, so it must be unique per issuance.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
