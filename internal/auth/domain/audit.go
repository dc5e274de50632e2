package domain

import "time"

// Audit event names recorded by the services.
const (
	AuditSignup          = "signup"
	AuditLoginSuccess    = "login_success"
	AuditLoginFailure    = "login_failure"
	AuditAccountLocked   = "account_locked"
	AuditRefreshReuse    = "refresh_token_reuse"
	AuditPasswordReset   = "password_reset"
	AuditResetRequested  = "password_reset_requested"
	AuditEmailVerified   = "email_verified"
	AuditVerifyRequested = "email_verification_requested"
)

// AuditEvent is one row of the security audit log. AccountID is empty when
// the event could not be tied to an account (e.g. login with an unknown
// email is deliberately not recorded against anyone).
type AuditEvent struct {
	ID        string
	AccountID string
	Event     string
	Detail    string
	CreatedAt time.Time
}
