package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
)

type auditEventsRepo struct {
	q querier
}

func (r *auditEventsRepo) InsertAuditEvent(ctx context.Context, e domain.AuditEvent) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO audit_events (id, account_id, event, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, e.Event, e.Detail, e.CreatedAt,
	)
	return err
}

func (r *auditEventsRepo) ListAccountAuditEvents(ctx context.Context, accountID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, account_id, event, detail, created_at
		FROM audit_events
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Event, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *auditEventsRepo) DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	return err
}
