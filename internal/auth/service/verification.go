package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// DefaultVerificationTTL is how long an email-verification token stays
// redeemable. Generous on purpose: people open these hours later.
const DefaultVerificationTTL = 24 * time.Hour

var (
	// ErrVerificationNotFound means no verification record matches the token.
	ErrVerificationNotFound = errors.New("verification_token_invalid")

	// ErrVerificationExpired means the record existed but its window passed.
	ErrVerificationExpired = errors.New("verification_token_expired")

	// ErrVerificationUsed means the record was already redeemed.
	ErrVerificationUsed = errors.New("verification_token_used")
)

// VerificationService implements the email-verification flow. Same
// single-use hashed-token protocol as password reset, minus the credential
// change.
type VerificationService struct {
	Store    store.Store
	Notifier Notifier
	Logger   *slog.Logger

	// BaseURL is the public origin verification links are built against.
	BaseURL string

	// TTL for new verification tokens. Zero means DefaultVerificationTTL.
	TTL time.Duration
}

func (s *VerificationService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultVerificationTTL
	}
	return s.TTL
}

// Request starts (or restarts) verification for the given email. Like
// password-reset requests, the response never reveals whether the email has
// an account, or whether it was already verified.
func (s *VerificationService) Request(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	l := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("verification requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}
	if acct.EmailVerified {
		return nil
	}

	return s.RequestForAccount(ctx, acct)
}

// RequestForAccount issues a fresh verification token for a known account.
// Signup calls this directly; any earlier outstanding token is superseded.
func (s *VerificationService) RequestForAccount(ctx context.Context, acct domain.Account) error {
	now := time.Now().UTC()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	if err := s.Store.EmailVerifications().DeleteAccountEmailVerifications(ctx, acct.ID); err != nil {
		return fmt.Errorf("clear old verifications: %w", err)
	}

	rec := domain.EmailVerification{
		ID:               idx.New().String(),
		AccountID:        acct.ID,
		TokenFingerprint: cryptox.FingerprintToken(token),
		ExpiresAt:        now.Add(s.ttl()),
		CreatedAt:        now,
	}
	if err := s.Store.EmailVerifications().CreateEmailVerification(ctx, rec); err != nil {
		return fmt.Errorf("create verification: %w", err)
	}

	recordAudit(ctx, s.Store, acct.ID, domain.AuditVerifyRequested, "")
	notifyAsync(s.Logger, s.Notifier, acct.Email, "Verify your email address",
		s.link("/verify-email", token))

	return nil
}

// Confirm redeems a verification token and marks the account's email
// verified. Confirming an already-verified account again with a fresh token
// is harmless and succeeds.
func (s *VerificationService) Confirm(ctx context.Context, token string) error {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)
	fp := cryptox.FingerprintToken(token)

	rec, err := s.Store.EmailVerifications().GetEmailVerificationByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrVerificationNotFound
		}
		return fmt.Errorf("lookup verification: %w", err)
	}

	// Same ordering as password resets: expiry outranks the used flag.
	if !now.Before(rec.ExpiresAt) {
		if err := s.Store.EmailVerifications().DeleteEmailVerification(ctx, rec.ID); err != nil {
			l.Warn("failed to delete expired verification", "verification_id", rec.ID, "err", err)
		}
		return ErrVerificationExpired
	}
	if rec.UsedAt != nil {
		return ErrVerificationUsed
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.EmailVerifications().MarkEmailVerificationUsed(ctx, rec.ID, now); err != nil {
			return err
		}
		return tx.Accounts().MarkEmailVerified(ctx, rec.AccountID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrVerificationUsed
		}
		return fmt.Errorf("confirm verification: %w", err)
	}

	recordAudit(ctx, s.Store, rec.AccountID, domain.AuditEmailVerified, "")
	return nil
}

func (s *VerificationService) link(path, token string) string {
	return s.BaseURL + path + "?token=" + url.QueryEscape(token)
}
