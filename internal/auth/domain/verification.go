package domain

import "time"

// EmailVerification is one outstanding email-verification request. Same
// single-use hashed-token protocol as PasswordReset.
type EmailVerification struct {
	ID               string
	AccountID        string
	TokenFingerprint string
	ExpiresAt        time.Time
	UsedAt           *time.Time
	CreatedAt        time.Time
}

// Redeemable reports whether the record can still verify an email at now.
func (v EmailVerification) Redeemable(now time.Time) bool {
	return v.UsedAt == nil && now.Before(v.ExpiresAt)
}
