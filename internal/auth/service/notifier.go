package service

import (
	"context"
	"log/slog"
	"time"
)

// Notifier delivers a link to an account holder out-of-band. The real
// transport (email, SMS) lives outside this service; the core only needs
// the function shape.
type Notifier interface {
	Notify(ctx context.Context, email, subject, link string) error
}

// notifyTimeout bounds how long a single out-of-band delivery may take when
// dispatched in the background.
const notifyTimeout = 5 * time.Second

// notifyAsync dispatches a notification without blocking the caller.
// Delivery failures are logged and swallowed: the caller's response must not
// depend on the notification channel (and for ForgotPassword, must not
// reveal anything about it).
func notifyAsync(logger *slog.Logger, n Notifier, email, subject, link string) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := n.Notify(ctx, email, subject, link); err != nil {
			logger.Warn("notification delivery failed", "subject", subject, "err", err)
		}
	}()
}

// LogNotifier is the default Notifier: it writes the link to the service
// log. Useful for development and tests; production wires a real transport.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, email, subject, link string) error {
	n.Logger.Info("outbound notification", "email", email, "subject", subject, "link", link)
	return nil
}
