package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/lockout"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acct := env.signup(t, "alice@example.com", "password1")
	require.NotEmpty(t, acct.ID)
	require.Equal(t, "alice@example.com", acct.Email)
	require.Equal(t, "Test Account", acct.DisplayName)
	require.False(t, acct.EmailVerified, "new accounts start unverified")

	// The digest never appears in the projection and is argon2id on disk.
	stored, err := env.store.Accounts().GetAccountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "password1", stored.PasswordHash)
	require.Contains(t, stored.PasswordHash, "$argon2id$")

	require.Contains(t, env.auditEvents(t, acct.ID), domain.AuditSignup)
}

func TestSignup_SignsStraightIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.accounts.Signup(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)
	env.notifier.waitForToken(t)

	require.NotEmpty(t, res.Tokens.AccessToken)
	require.NotEmpty(t, res.Tokens.RefreshToken)
	require.Equal(t, "Bearer", res.Tokens.TokenType)

	claims, err := env.tokens.Codec.Verify(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.Account.ID, claims.Subject)

	// The pair is a real session: the refresh token rotates like any other.
	_, err = env.tokens.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)

	// A subsequent login mints its own tokens rather than replaying these.
	login, err := env.accounts.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err)
	require.NotEqual(t, res.Tokens.AccessToken, login.Tokens.AccessToken)
}

func TestSignup_EmailTaken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")

	_, err := env.accounts.Signup(ctx, "alice@example.com", "different2", "Other")
	require.ErrorIs(t, err, ErrEmailTaken)

	// Case-variant emails collide with the stored lowercase form.
	_, err = env.accounts.Signup(ctx, "Alice@Example.COM", "different2", "Other")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acct := env.signup(t, "alice@example.com", "password1")

	res, err := env.accounts.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err)
	require.Equal(t, acct.ID, res.Account.ID)
	require.NotEmpty(t, res.Tokens.AccessToken)
	require.NotEmpty(t, res.Tokens.RefreshToken)
	require.NotEqual(t, res.Tokens.AccessToken, res.Tokens.RefreshToken)
	require.Equal(t, "Bearer", res.Tokens.TokenType)

	// Email lookup is case-insensitive.
	_, err = env.accounts.Login(ctx, "ALICE@example.com", "password1")
	require.NoError(t, err)

	stored, err := env.store.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	require.Contains(t, env.auditEvents(t, acct.ID), domain.AuditLoginSuccess)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")

	// Wrong password and unknown email are indistinguishable.
	_, err := env.accounts.Login(ctx, "alice@example.com", "wrongpass1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.accounts.Login(ctx, "nobody@example.com", "password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_FailureCountResetOnSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acct := env.signup(t, "alice@example.com", "password1")

	for i := 0; i < 3; i++ {
		_, err := env.accounts.Login(ctx, "alice@example.com", "wrongpass1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, err := env.store.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.FailedLoginCount)
	require.Nil(t, stored.LockedUntil)

	_, err = env.accounts.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err)

	stored, err = env.store.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Zero(t, stored.FailedLoginCount, "success wipes the counter")
}

func TestLogin_LockoutEngagesAtThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acct := env.signup(t, "alice@example.com", "password1")

	// The first four failures report invalid credentials with no lock.
	for i := 0; i < lockout.DefaultThreshold-1; i++ {
		_, err := env.accounts.Login(ctx, "alice@example.com", "wrongpass1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// The fifth failure engages the lock but still reports invalid
	// credentials: the attacker does not get told they hit the threshold.
	_, err := env.accounts.Login(ctx, "alice@example.com", "wrongpass1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := env.store.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, lockout.DefaultThreshold, stored.FailedLoginCount)
	require.NotNil(t, stored.LockedUntil)
	require.Contains(t, env.auditEvents(t, acct.ID), domain.AuditAccountLocked)

	// From now on even the CORRECT password is rejected as locked.
	_, err = env.accounts.Login(ctx, "alice@example.com", "password1")
	var locked *AccountLockedError
	require.ErrorAs(t, err, &locked)
	require.Greater(t, locked.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, locked.RetryAfter, lockout.DefaultDuration)

	// Attempts during the lock do not advance the counter or the lock.
	before := *stored.LockedUntil
	_, err = env.accounts.Login(ctx, "alice@example.com", "wrongpass1")
	require.ErrorAs(t, err, &locked)

	after, err := env.store.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, lockout.DefaultThreshold, after.FailedLoginCount)
	require.WithinDuration(t, before, *after.LockedUntil, time.Second)
}

func TestLogin_LockExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Short lock so the test can outwait it without clock injection.
	env.accounts.Lockout = lockout.Policy{Threshold: 2, Duration: 50 * time.Millisecond}

	env.signup(t, "alice@example.com", "password1")

	for i := 0; i < 2; i++ {
		_, err := env.accounts.Login(ctx, "alice@example.com", "wrongpass1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	var locked *AccountLockedError
	_, err := env.accounts.Login(ctx, "alice@example.com", "password1")
	require.ErrorAs(t, err, &locked)

	time.Sleep(60 * time.Millisecond)

	// Lock lapsed; the correct password works again.
	_, err = env.accounts.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err)
}
