package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
)

type passwordResetsRepo struct {
	q querier
}

func (r *passwordResetsRepo) CreatePasswordReset(ctx context.Context, pr domain.PasswordReset) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO password_resets (id, account_id, token_fingerprint, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		pr.ID, pr.AccountID, pr.TokenFingerprint, pr.ExpiresAt, pr.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *passwordResetsRepo) GetPasswordResetByFingerprint(ctx context.Context, fp string) (domain.PasswordReset, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, account_id, token_fingerprint, expires_at, used_at, created_at
		FROM password_resets WHERE token_fingerprint = ?`, fp)

	var pr domain.PasswordReset
	var usedAt sql.NullTime
	err := row.Scan(&pr.ID, &pr.AccountID, &pr.TokenFingerprint, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if err != nil {
		return domain.PasswordReset{}, mapNotFound(err)
	}
	pr.UsedAt = mapNullTimePtr(usedAt)
	return pr, nil
}

func (r *passwordResetsRepo) MarkPasswordResetUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE id = ? AND used_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *passwordResetsRepo) DeletePasswordReset(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM password_resets WHERE id = ?`, id)
	return err
}

func (r *passwordResetsRepo) DeleteAccountPasswordResets(ctx context.Context, accountID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM password_resets WHERE account_id = ?`, accountID)
	return err
}

func (r *passwordResetsRepo) DeleteExpiredPasswordResets(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}
