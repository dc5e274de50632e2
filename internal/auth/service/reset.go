package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/revocation"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// DefaultResetTTL is how long a password-reset token stays redeemable.
const DefaultResetTTL = time.Hour

var (
	// ErrResetNotFound means no reset record matches the presented token.
	ErrResetNotFound = errors.New("reset_token_invalid")

	// ErrResetExpired means the record existed but its window has passed.
	ErrResetExpired = errors.New("reset_token_expired")

	// ErrResetUsed means the record was already redeemed once.
	ErrResetUsed = errors.New("reset_token_used")
)

// ResetService implements the forgot/reset password flow.
type ResetService struct {
	Store       store.Store
	Revocations *revocation.List
	Notifier    Notifier
	Logger      *slog.Logger

	// BaseURL is the public origin reset links are built against.
	BaseURL string

	// TTL for new reset tokens. Zero means DefaultResetTTL.
	TTL time.Duration
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultResetTTL
	}
	return s.TTL
}

// Forgot starts a password reset for the given email. It always succeeds
// from the caller's point of view: whether or not the email has an account,
// the response is identical, so the endpoint cannot be used to probe for
// registered addresses. The actual token only ever travels over the
// notification channel.
func (s *ResetService) Forgot(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	// Requesting again supersedes any earlier outstanding token.
	if err := s.Store.PasswordResets().DeleteAccountPasswordResets(ctx, acct.ID); err != nil {
		return fmt.Errorf("clear old resets: %w", err)
	}

	rec := domain.PasswordReset{
		ID:               idx.New().String(),
		AccountID:        acct.ID,
		TokenFingerprint: cryptox.FingerprintToken(token),
		ExpiresAt:        now.Add(s.ttl()),
		CreatedAt:        now,
	}
	if err := s.Store.PasswordResets().CreatePasswordReset(ctx, rec); err != nil {
		return fmt.Errorf("create reset: %w", err)
	}

	recordAudit(ctx, s.Store, acct.ID, domain.AuditResetRequested, "")
	notifyAsync(s.Logger, s.Notifier, acct.Email, "Reset your password",
		s.link("/reset-password", token))

	return nil
}

// Reset redeems a reset token and sets a new password. The redemption, the
// password update and the lockout clear commit in one transaction: there is
// no window where the token is spent but the password unchanged.
//
// A successful reset also revokes every outstanding refresh token for the
// account. Anyone holding a session obtained with the old password is logged
// out.
func (s *ResetService) Reset(ctx context.Context, token, newPassword string) error {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)
	fp := cryptox.FingerprintToken(token)

	rec, err := s.Store.PasswordResets().GetPasswordResetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetNotFound
		}
		return fmt.Errorf("lookup reset: %w", err)
	}

	// Expiry outranks the used flag: once a record is past its deadline it
	// is expired, whether or not it was ever redeemed.
	if !now.Before(rec.ExpiresAt) {
		// Lazy expiry: housekeeping would get it eventually, but there is
		// no reason to keep a dead record around.
		if err := s.Store.PasswordResets().DeletePasswordReset(ctx, rec.ID); err != nil {
			l.Warn("failed to delete expired reset", "reset_id", rec.ID, "err", err)
		}
		return ErrResetExpired
	}
	if rec.UsedAt != nil {
		return ErrResetUsed
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PasswordResets().MarkPasswordResetUsed(ctx, rec.ID, now); err != nil {
			return err
		}
		if err := tx.Accounts().UpdatePasswordHash(ctx, rec.AccountID, hash); err != nil {
			return err
		}
		// A proven mailbox owner should not stay locked out by whoever was
		// guessing passwords.
		return tx.Accounts().ClearLockout(ctx, rec.AccountID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// MarkUsed guards on used_at IS NULL; losing that race means a
			// concurrent redemption won.
			return ErrResetUsed
		}
		return fmt.Errorf("redeem reset: %w", err)
	}

	recordAudit(ctx, s.Store, rec.AccountID, domain.AuditPasswordReset, "")

	// Best effort after commit. The password change itself stands either
	// way; an unreachable revocation backend only delays session cutoff
	// until the refresh tokens expire on their own.
	if err := s.Revocations.RevokeAccount(ctx, rec.AccountID, now); err != nil {
		l.Error("failed to revoke sessions after password reset",
			"account_id", rec.AccountID, "err", err)
	}

	return nil
}

func (s *ResetService) link(path, token string) string {
	return s.BaseURL + path + "?token=" + url.QueryEscape(token)
}
