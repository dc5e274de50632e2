package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/lockout"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

var (
	// ErrEmailTaken is returned by Signup when the email already has an
	// account.
	ErrEmailTaken = errors.New("email_taken")

	// ErrInvalidCredentials is the single failure for login attempts with an
	// unknown email or a wrong password. The two cases are never
	// distinguished to the caller.
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// AccountLockedError rejects a login against a locked account and carries
// how long until the lock expires.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account_locked: retry after %s", e.RetryAfter.Round(time.Second))
}

// AccountService implements registration and credential login.
type AccountService struct {
	Store         store.Store
	Tokens        *TokenService
	Verifications *VerificationService
	Lockout       lockout.Policy
}

// LoginResult is a successful authentication: a fresh token pair plus the
// caller-safe account projection.
type LoginResult struct {
	Account domain.PublicAccount
	Tokens  domain.TokenPair
}

// Signup registers a new account and signs it straight in: the response
// carries a fresh token pair alongside the account, same shape as Login.
// Input is assumed validated (email shape, password strength) by the
// transport layer; the email is normalised here so every caller gets the
// same uniqueness semantics.
func (s *AccountService) Signup(ctx context.Context, email, password, displayName string) (LoginResult, error) {
	email = NormalizeEmail(email)
	now := time.Now().UTC()

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("hash password: %w", err)
	}

	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return LoginResult{}, ErrEmailTaken
		}
		return LoginResult{}, fmt.Errorf("create account: %w", err)
	}

	recordAudit(ctx, s.Store, acct.ID, domain.AuditSignup, "")

	// Kick off email verification for the new address. Failure to send is
	// not a failed signup.
	if s.Verifications != nil {
		if err := s.Verifications.RequestForAccount(ctx, acct); err != nil {
			slogx.FromContext(ctx).Warn("verification request on signup failed",
				"account_id", acct.ID, "err", err)
		}
	}

	pair, err := s.Tokens.IssuePair(ctx, acct)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue tokens: %w", err)
	}

	return LoginResult{Account: acct.Public(), Tokens: pair}, nil
}

// Login authenticates an email/password pair.
//
// Attempts against a locked account are rejected up front: they neither
// verify the password nor advance the failure counter, so hammering a locked
// account cannot extend the lock. A wrong password bumps the counter
// atomically in the store; crossing the threshold engages the lock in the
// same statement, but that attempt still reports invalid credentials. Only
// the NEXT attempt sees the lock.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time on a throwaway verify so unknown emails
			// are not distinguishable by response latency.
			_ = cryptox.VerifyPassword(password, decoyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	state := lockout.State{FailedCount: acct.FailedLoginCount, LockedUntil: acct.LockedUntil}
	if s.Lockout.IsLocked(state, now) {
		return LoginResult{}, &AccountLockedError{RetryAfter: s.Lockout.Remaining(state, now)}
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		res, ferr := s.Store.Accounts().RecordLoginFailure(
			ctx, acct.ID, now, s.Lockout.FailureThreshold(), now.Add(s.Lockout.LockDuration()))
		if ferr != nil {
			l.Error("failed to record login failure", "account_id", acct.ID, "err", ferr)
		}
		recordAudit(ctx, s.Store, acct.ID, domain.AuditLoginFailure,
			fmt.Sprintf("failed_count=%d", res.FailedCount))
		if res.LockedUntil != nil && res.LockedUntil.After(now) && acct.LockedUntil == nil {
			recordAudit(ctx, s.Store, acct.ID, domain.AuditAccountLocked,
				fmt.Sprintf("until=%s", res.LockedUntil.UTC().Format(time.RFC3339)))
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.Store.Accounts().RecordLoginSuccess(ctx, acct.ID, now); err != nil {
		return LoginResult{}, fmt.Errorf("record login: %w", err)
	}
	recordAudit(ctx, s.Store, acct.ID, domain.AuditLoginSuccess, "")

	pair, err := s.Tokens.IssuePair(ctx, acct)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue tokens: %w", err)
	}

	return LoginResult{Account: acct.Public(), Tokens: pair}, nil
}

// decoyHash is only ever compared against, never matched: it keeps the
// unknown-email path as slow as the wrong-password path.
const decoyHash = "$argon2id$v=19$m=19456,t=2,p=1$" +
	"AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// NormalizeEmail lowercases and trims an email address. Storage and lookup
// both go through this so "Bob@Example.com" and "bob@example.com" are the
// same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
