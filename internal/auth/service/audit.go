package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// recordAudit appends a security audit event. Audit failures are logged but
// never fail the operation that produced them; the audit log is an
// observability aid, not a ledger.
func recordAudit(ctx context.Context, st store.Store, accountID, event, detail string) {
	e := domain.AuditEvent{
		ID:        idx.New().String(),
		AccountID: accountID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.AuditEvents().InsertAuditEvent(ctx, e); err != nil {
		slogx.FromContext(ctx).Warn("failed to record audit event",
			"event", event,
			"account_id", accountID,
			"err", err,
		)
	}
}
