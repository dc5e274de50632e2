package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/revocation"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

var (
	// ErrInvalidRefresh covers every refresh failure the caller is allowed
	// to distinguish: malformed, bad signature, expired, revoked, wrong
	// token use, or subject account gone. The caller's only recovery is a
	// fresh login, so there is no point telling it which one happened.
	ErrInvalidRefresh = errors.New("invalid_or_expired_token")
)

// Codec signs and verifies the service's JWTs.
type Codec interface {
	jwtx.Signer
	jwtx.Verifier
}

// TokenService owns the access/refresh token lifecycle: pair issuance,
// refresh with rotation, and revocation on logout.
type TokenService struct {
	Codec       Codec
	Store       store.Store
	Revocations *revocation.List
	Issuer      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// IssuePair mints a fresh access/refresh token pair for an account. Every
// call produces new tokens: jtis are unique per issuance.
func (s *TokenService) IssuePair(ctx context.Context, acct domain.Account) (domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Codec.Sign(jwtx.NewClaims(
		acct.ID, acct.Email, jwtx.TokenUseAccess, s.AccessTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.Codec.Sign(jwtx.NewClaims(
		acct.ID, acct.Email, jwtx.TokenUseRefresh, s.RefreshTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL / time.Second),
	}, nil
}

// Refresh validates a refresh token and rotates it: the old token's jti goes
// onto the revocation list and a brand-new pair is issued.
//
// Reuse of an already-rotated refresh token is treated as theft: every
// outstanding refresh token for the account is revoked and the caller gets
// the same opaque failure.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	if claims.TokenUse != jwtx.TokenUseRefresh {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	issuedAt := time.Time{}
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	revoked, err := s.Revocations.IsRevoked(ctx, claims.Subject, claims.ID, issuedAt)
	if err != nil {
		// Fail closed but loudly: tokens that cannot be checked are not
		// accepted, and the backend being down is an operational problem.
		return domain.TokenPair{}, err
	}
	if revoked {
		l.Warn("revoked refresh token presented, revoking token family",
			"account_id", claims.Subject)
		if err := s.Revocations.RevokeAccount(ctx, claims.Subject, now); err != nil {
			l.Error("failed to revoke token family", "account_id", claims.Subject, "err", err)
		}
		recordAudit(ctx, s.Store, claims.Subject, domain.AuditRefreshReuse, "")
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	// Account may have been deleted since issuance.
	acct, err := s.Store.Accounts().GetAccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	// Rotate: the presented token is spent the moment a new pair exists.
	if claims.ExpiresAt != nil {
		if err := s.Revocations.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return domain.TokenPair{}, err
		}
	}

	return s.IssuePair(ctx, acct)
}

// Logout revokes the presented refresh token. Best effort: an unparseable
// token has nothing to revoke and is not an error.
func (s *TokenService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.Codec.Verify(refreshToken)
	if err != nil || claims.TokenUse != jwtx.TokenUseRefresh {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.Revocations.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
