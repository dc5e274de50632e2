package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/revocation"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

func loginPair(t *testing.T, env *testEnv) domain.TokenPair {
	t.Helper()
	res, err := env.accounts.Login(context.Background(), "alice@example.com", "password1")
	require.NoError(t, err)
	return res.Tokens
}

func TestRefresh_RotatesPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	pair := loginPair(t, env)

	next, err := env.tokens.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)
	require.NotEmpty(t, next.RefreshToken)
	require.NotEqual(t, pair.AccessToken, next.AccessToken)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The new refresh token works.
	_, err = env.tokens.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	pair := loginPair(t, env)

	// An access token is a validly signed JWT but carries the wrong use.
	_, err := env.tokens.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefresh_RejectsGarbageAndTampered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	pair := loginPair(t, env)

	_, err := env.tokens.Refresh(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidRefresh)

	_, err = env.tokens.Refresh(ctx, pair.RefreshToken+"x")
	require.ErrorIs(t, err, ErrInvalidRefresh)

	_, err = env.tokens.Refresh(ctx, "")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefresh_ReuseRevokesFamily(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acct := env.signup(t, "alice@example.com", "password1")
	pair := loginPair(t, env)

	next, err := env.tokens.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// Replaying the rotated token is treated as theft.
	_, err = env.tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	require.Contains(t, env.auditEvents(t, acct.ID), domain.AuditRefreshReuse)

	// The whole family is dead, including the otherwise-fresh successor.
	_, err = env.tokens.Refresh(ctx, next.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// A new login starts a clean family. The iat claim has one-second
	// precision, so step past the revocation cutoff's second first.
	time.Sleep(1100 * time.Millisecond)
	fresh := loginPair(t, env)
	_, err = env.tokens.Refresh(ctx, fresh.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_BackendDownFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	pair := loginPair(t, env)

	env.redis.Close()

	_, err := env.tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, revocation.ErrUnavailable)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	pair := loginPair(t, env)

	require.NoError(t, env.tokens.Logout(ctx, pair.RefreshToken))

	_, err := env.tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Logout with garbage has nothing to revoke and succeeds.
	require.NoError(t, env.tokens.Logout(ctx, "not-a-jwt"))
}

func TestIssuePair_ClaimsShape(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	stored, err := env.store.Accounts().GetAccountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	pair, err := env.tokens.IssuePair(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64(jwtx.DefaultAccessTokenTTL/time.Second), pair.ExpiresIn)

	access, err := env.tokens.Codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, stored.ID, access.Subject)
	require.Equal(t, "alice@example.com", access.Email)
	require.Equal(t, jwtx.TokenUseAccess, access.TokenUse)
	require.Equal(t, "doorman-test", access.Issuer)

	refresh, err := env.tokens.Codec.Verify(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.TokenUseRefresh, refresh.TokenUse)
	require.NotEqual(t, access.ID, refresh.ID, "distinct jtis per token")
	require.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time),
		"refresh outlives access")

	// Issuing twice never repeats tokens.
	again, err := env.tokens.IssuePair(ctx, stored)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, again.AccessToken)
	require.NotEqual(t, pair.RefreshToken, again.RefreshToken)
}
