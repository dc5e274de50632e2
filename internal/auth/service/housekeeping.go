package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

// Housekeeping defaults. Expired token records are also handled lazily at
// redemption, so the sweep only needs to keep the tables from growing.
const (
	DefaultSweepInterval  = time.Hour
	DefaultAuditRetention = 90 * 24 * time.Hour

	// sweepTimeout bounds a single sweep's deletes.
	sweepTimeout = time.Minute
)

// Housekeeper periodically removes expired password-reset and
// email-verification records and prunes old audit events.
type Housekeeper struct {
	Store  store.Store
	Logger *slog.Logger

	// Interval between sweeps. Zero means DefaultSweepInterval.
	Interval time.Duration

	// AuditRetention is how long audit events are kept. Zero means
	// DefaultAuditRetention.
	AuditRetention time.Duration
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// Intended to be launched as a goroutine from the application.
func (h *Housekeeper) Run(ctx context.Context) {
	interval := h.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	h.sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep runs under its own bounded context so that cancelling Run stops
// scheduling new sweeps without aborting one mid-delete.
func (h *Housekeeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	retention := h.AuditRetention
	if retention <= 0 {
		retention = DefaultAuditRetention
	}

	if err := h.Store.PasswordResets().DeleteExpiredPasswordResets(ctx); err != nil {
		h.Logger.Error("housekeeping: expired password resets", "err", err)
	}
	if err := h.Store.EmailVerifications().DeleteExpiredEmailVerifications(ctx); err != nil {
		h.Logger.Error("housekeeping: expired email verifications", "err", err)
	}

	cutoff := time.Now().UTC().Add(-retention)
	if err := h.Store.AuditEvents().DeleteAuditEventsBefore(ctx, cutoff); err != nil {
		h.Logger.Error("housekeeping: audit retention", "err", err)
	}
}
