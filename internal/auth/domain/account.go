package domain

import "time"

// Account is a registered identity. Emails are stored lowercased and are
// unique across all accounts. The failed-login counter and locked_until pair
// form the lockout state; both reset on every successful login or password
// reset.
type Account struct {
	ID               string
	Email            string
	DisplayName      string
	PasswordHash     string // argon2id PHC encoded
	EmailVerified    bool
	FailedLoginCount int
	LastFailedAt     *time.Time
	LockedUntil      *time.Time
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicAccount is the caller-safe projection of an Account. The password
// digest never leaves the service.
type PublicAccount struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	EmailVerified bool   `json:"email_verified"`
}

// Public returns the caller-safe projection.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:            a.ID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		EmailVerified: a.EmailVerified,
	}
}
