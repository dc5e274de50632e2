// Package revocation tracks revoked refresh tokens in redis. Tokens are
// JWTs the server otherwise holds no record of, so revocation is an
// explicit denylist: individual jtis (rotation, logout) plus a per-account
// issued-before cutoff (password reset, reuse detection). Every key carries
// a TTL no longer than the refresh token lifetime, so the list cleans
// itself up.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the revocation backend is unreachable. Callers
// must fail closed: a refresh token that cannot be checked is not accepted.
var ErrUnavailable = errors.New("revocation backend unavailable")

// List is the redis-backed revocation list.
type List struct {
	redis redis.UniversalClient

	// maxTTL caps cutoff-key lifetimes; set it to the refresh token TTL.
	maxTTL time.Duration
}

// NewList creates a revocation list. maxTTL should equal the refresh token
// lifetime: no revocation record needs to outlive the tokens it covers.
func NewList(client redis.UniversalClient, maxTTL time.Duration) *List {
	return &List{redis: client, maxTTL: maxTTL}
}

func jtiKey(jti string) string        { return "rvk:jti:" + jti }
func cutoffKey(account string) string { return "rvk:acct:" + account }

// Revoke marks a single token (by jti) as revoked until it would have
// expired anyway.
func (l *List) Revoke(ctx context.Context, jti string, remaining time.Duration) error {
	if jti == "" || remaining <= 0 {
		return nil
	}
	if err := l.redis.Set(ctx, jtiKey(jti), "1", remaining).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RevokeAccount invalidates every refresh token issued to the account at or
// before now. Used on password reset and on refresh-token reuse.
func (l *List) RevokeAccount(ctx context.Context, accountID string, now time.Time) error {
	if accountID == "" {
		return nil
	}
	cutoff := strconv.FormatInt(now.UnixNano(), 10)
	if err := l.redis.Set(ctx, cutoffKey(accountID), cutoff, l.maxTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether a token is revoked, either individually by jti
// or by an account-wide cutoff at/after its issue time.
func (l *List) IsRevoked(ctx context.Context, accountID, jti string, issuedAt time.Time) (bool, error) {
	n, err := l.redis.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n > 0 {
		return true, nil
	}

	val, err := l.redis.Get(ctx, cutoffKey(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cutoff, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A garbled cutoff fails closed.
		return true, nil
	}
	return issuedAt.UnixNano() <= cutoff, nil
}

// Ping verifies the backend is reachable; used by readiness checks.
func (l *List) Ping(ctx context.Context) error {
	if err := l.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
