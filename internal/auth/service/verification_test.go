package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
)

func TestSignupTriggersVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.accounts.Signup(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)
	acct := res.Account
	require.False(t, acct.EmailVerified)

	// Signup itself dispatched a verification link.
	token := env.notifier.waitForToken(t)
	require.NoError(t, env.verifications.Confirm(ctx, token))

	stored, err := env.store.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.True(t, stored.EmailVerified)
	require.Contains(t, env.auditEvents(t, acct.ID), domain.AuditEmailVerified)
}

func TestVerificationRequest_UnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.verifications.Request(ctx, "nobody@example.com"))

	select {
	case link := <-env.notifier.links:
		t.Fatalf("no notification expected for unknown email, got %q", link)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestVerificationRequest_AlreadyVerifiedIsSilent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	require.NoError(t, env.verifications.Request(ctx, "alice@example.com"))
	token := env.notifier.waitForToken(t)
	require.NoError(t, env.verifications.Confirm(ctx, token))

	// A verified account gets the same silence as an unknown email.
	require.NoError(t, env.verifications.Request(ctx, "alice@example.com"))
	select {
	case link := <-env.notifier.links:
		t.Fatalf("no notification expected for verified account, got %q", link)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestVerificationConfirm_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")
	require.NoError(t, env.verifications.Request(ctx, "alice@example.com"))
	token := env.notifier.waitForToken(t)

	require.NoError(t, env.verifications.Confirm(ctx, token))

	err := env.verifications.Confirm(ctx, token)
	require.ErrorIs(t, err, ErrVerificationUsed)
}

func TestVerificationConfirm_InvalidAndExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")

	err := env.verifications.Confirm(ctx, "made-up-token")
	require.ErrorIs(t, err, ErrVerificationNotFound)

	env.verifications.TTL = time.Millisecond
	require.NoError(t, env.verifications.Request(ctx, "alice@example.com"))
	token := env.notifier.waitForToken(t)

	time.Sleep(10 * time.Millisecond)

	err = env.verifications.Confirm(ctx, token)
	require.ErrorIs(t, err, ErrVerificationExpired)

	// The expired record was removed on encounter.
	err = env.verifications.Confirm(ctx, token)
	require.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationConfirm_ExpiryOutranksUsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")

	env.verifications.TTL = 50 * time.Millisecond
	require.NoError(t, env.verifications.Request(ctx, "alice@example.com"))
	token := env.notifier.waitForToken(t)

	require.NoError(t, env.verifications.Confirm(ctx, token))

	// Once the deadline passes, the spent record reports expired, not used.
	time.Sleep(60 * time.Millisecond)
	err := env.verifications.Confirm(ctx, token)
	require.ErrorIs(t, err, ErrVerificationExpired)
}

func TestVerificationRequest_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice@example.com", "password1")

	require.NoError(t, env.verifications.Request(ctx, "alice@example.com"))
	first := env.notifier.waitForToken(t)

	require.NoError(t, env.verifications.Request(ctx, "alice@example.com"))
	second := env.notifier.waitForToken(t)
	require.NotEqual(t, first, second)

	err := env.verifications.Confirm(ctx, first)
	require.ErrorIs(t, err, ErrVerificationNotFound, "superseded token is gone")

	require.NoError(t, env.verifications.Confirm(ctx, second))
}
