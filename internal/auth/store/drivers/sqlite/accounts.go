package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, email, display_name, password_hash, email_verified,
	failed_login_count, last_failed_at, locked_until, last_login_at,
	created_at, updated_at`

func (r *accountsRepo) scanAccount(row *sql.Row) (domain.Account, error) {
	var a domain.Account
	var lastFailed, lockedUntil, lastLogin sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.DisplayName,
		&a.PasswordHash,
		&a.EmailVerified,
		&a.FailedLoginCount,
		&lastFailed,
		&lockedUntil,
		&lastLogin,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.LastFailedAt = mapNullTimePtr(lastFailed)
	a.LockedUntil = mapNullTimePtr(lockedUntil)
	a.LastLoginAt = mapNullTimePtr(lastLogin)
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return r.scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return r.scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (id, email, display_name, password_hash, email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.EmailVerified, a.CreatedAt, a.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RecordLoginFailure is a single conditional UPDATE: the increment and the
// lock decision happen atomically in the database, so two concurrent wrong
// password attempts can never both read count=4 and both write count=5.
func (r *accountsRepo) RecordLoginFailure(
	ctx context.Context,
	accountID string,
	at time.Time,
	threshold int,
	lockUntil time.Time,
) (store.FailureResult, error) {
	row := r.q.QueryRowContext(ctx, `
		UPDATE accounts
		SET failed_login_count = failed_login_count + 1,
		    last_failed_at = ?,
		    locked_until = CASE
		        WHEN failed_login_count + 1 >= ? THEN ?
		        ELSE locked_until
		    END,
		    updated_at = ?
		WHERE id = ?
		RETURNING failed_login_count, locked_until`,
		at, threshold, lockUntil, at, accountID,
	)

	var result store.FailureResult
	var lockedUntil sql.NullTime
	if err := row.Scan(&result.FailedCount, &lockedUntil); err != nil {
		return store.FailureResult{}, mapNotFound(err)
	}
	result.LockedUntil = mapNullTimePtr(lockedUntil)
	return result, nil
}

func (r *accountsRepo) RecordLoginSuccess(ctx context.Context, accountID string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET failed_login_count = 0,
		    locked_until = NULL,
		    last_failed_at = NULL,
		    last_login_at = ?,
		    updated_at = ?
		WHERE id = ?`,
		at, at, accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) ClearLockout(ctx context.Context, accountID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET failed_login_count = 0,
		    locked_until = NULL,
		    last_failed_at = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) MarkEmailVerified(ctx context.Context, accountID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET email_verified = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
