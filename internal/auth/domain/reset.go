package domain

import "time"

// PasswordReset is one outstanding password-reset request. Only the SHA-256
// fingerprint of the token is stored; the raw token goes out via the
// notification channel and never touches the database. A nil UsedAt means
// the record is still redeemable (subject to expiry).
type PasswordReset struct {
	ID               string
	AccountID        string
	TokenFingerprint string
	ExpiresAt        time.Time
	UsedAt           *time.Time
	CreatedAt        time.Time
}

// Redeemable reports whether the record can still authorize a reset at now.
func (r PasswordReset) Redeemable(now time.Time) bool {
	return r.UsedAt == nil && now.Before(r.ExpiresAt)
}
