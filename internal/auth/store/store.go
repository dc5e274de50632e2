package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Accounts() Accounts
	PasswordResets() PasswordResets
	EmailVerifications() EmailVerifications
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back if fn errors,
	// committed otherwise. Preferred over Tx for multi-step operations that
	// must be atomic (e.g., reset redemption + password update).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// FailureResult is the lockout state after an atomic failed-login bump.
type FailureResult struct {
	FailedCount int
	LockedUntil *time.Time
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail looks up by the lowercased email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by the app via
	// ULID). Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error

	// RecordLoginFailure bumps the failed-login counter in a single atomic
	// statement. threshold and lockUntil are computed by the lockout policy:
	// when the incremented count reaches threshold, locked_until is set to
	// lockUntil inside the same statement. Returns the post-update state.
	RecordLoginFailure(ctx context.Context, accountID string, at time.Time, threshold int, lockUntil time.Time) (FailureResult, error)

	// RecordLoginSuccess clears the failure counter and lock, and stamps
	// last_login_at.
	RecordLoginSuccess(ctx context.Context, accountID string, at time.Time) error

	// ClearLockout resets the failure counter and lock without touching
	// last_login_at (used by password reset).
	ClearLockout(ctx context.Context, accountID string) error

	// MarkEmailVerified flips email_verified and bumps updated_at.
	MarkEmailVerified(ctx context.Context, accountID string) error
}

type PasswordResets interface {
	// CreatePasswordReset writes a new reset record (token_fingerprint is
	// the SHA-256 of the opaque token).
	CreatePasswordReset(ctx context.Context, r domain.PasswordReset) error

	// GetPasswordResetByFingerprint fetches a record by its fingerprint
	// when redeeming.
	GetPasswordResetByFingerprint(ctx context.Context, fp string) (domain.PasswordReset, error)

	// MarkPasswordResetUsed sets used_at (transaction-friendly).
	MarkPasswordResetUsed(ctx context.Context, id string, at time.Time) error

	// DeletePasswordReset removes a single record (lazy expiry).
	DeletePasswordReset(ctx context.Context, id string) error

	// DeleteAccountPasswordResets removes all records for an account; run
	// before creating a new one so at most one stays redeemable.
	DeleteAccountPasswordResets(ctx context.Context, accountID string) error

	// DeleteExpiredPasswordResets is housekeeping.
	DeleteExpiredPasswordResets(ctx context.Context) error
}

type EmailVerifications interface {
	// CreateEmailVerification writes a new verification record.
	CreateEmailVerification(ctx context.Context, v domain.EmailVerification) error

	// GetEmailVerificationByFingerprint fetches a record when confirming.
	GetEmailVerificationByFingerprint(ctx context.Context, fp string) (domain.EmailVerification, error)

	// MarkEmailVerificationUsed sets used_at.
	MarkEmailVerificationUsed(ctx context.Context, id string, at time.Time) error

	// DeleteEmailVerification removes a single record (lazy expiry).
	DeleteEmailVerification(ctx context.Context, id string) error

	// DeleteAccountEmailVerifications removes all records for an account.
	DeleteAccountEmailVerifications(ctx context.Context, accountID string) error

	// DeleteExpiredEmailVerifications is housekeeping.
	DeleteExpiredEmailVerifications(ctx context.Context) error
}

type AuditEvents interface {
	// InsertAuditEvent appends one audit row.
	InsertAuditEvent(ctx context.Context, e domain.AuditEvent) error

	// ListAccountAuditEvents returns an account's events, newest first.
	ListAccountAuditEvents(ctx context.Context, accountID string, limit int) ([]domain.AuditEvent, error)

	// DeleteAuditEventsBefore prunes events older than cutoff (housekeeping).
	DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error
}
