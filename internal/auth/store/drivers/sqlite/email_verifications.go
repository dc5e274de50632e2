package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
)

type emailVerificationsRepo struct {
	q querier
}

func (r *emailVerificationsRepo) CreateEmailVerification(ctx context.Context, v domain.EmailVerification) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO email_verifications (id, account_id, token_fingerprint, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.AccountID, v.TokenFingerprint, v.ExpiresAt, v.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *emailVerificationsRepo) GetEmailVerificationByFingerprint(ctx context.Context, fp string) (domain.EmailVerification, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, account_id, token_fingerprint, expires_at, used_at, created_at
		FROM email_verifications WHERE token_fingerprint = ?`, fp)

	var v domain.EmailVerification
	var usedAt sql.NullTime
	err := row.Scan(&v.ID, &v.AccountID, &v.TokenFingerprint, &v.ExpiresAt, &usedAt, &v.CreatedAt)
	if err != nil {
		return domain.EmailVerification{}, mapNotFound(err)
	}
	v.UsedAt = mapNullTimePtr(usedAt)
	return v, nil
}

func (r *emailVerificationsRepo) MarkEmailVerificationUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE email_verifications SET used_at = ? WHERE id = ? AND used_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *emailVerificationsRepo) DeleteEmailVerification(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM email_verifications WHERE id = ?`, id)
	return err
}

func (r *emailVerificationsRepo) DeleteAccountEmailVerifications(ctx context.Context, accountID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM email_verifications WHERE account_id = ?`, accountID)
	return err
}

func (r *emailVerificationsRepo) DeleteExpiredEmailVerifications(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM email_verifications WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}
