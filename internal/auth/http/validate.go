package http

import (
	"fmt"
	"strings"
	"unicode"
)

// Input limits. These bound request fields before anything touches the
// store; argon2 in particular should never see multi-kilobyte passwords.
const (
	maxEmailLength       = 254
	minPasswordLength    = 8
	maxPasswordLength    = 512
	maxDisplayNameLength = 100
)

// validateEmail applies a deliberately simple shape check: one "@" with a
// non-empty local part and a domain containing a dot. Real validation
// happens when the verification email arrives; anything stricter here just
// rejects valid addresses.
func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return fmt.Errorf("email is not a valid address")
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("email is not a valid address")
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("email is not a valid address")
	}
	return nil
}

// validatePassword enforces the strength floor: minimum length and at least
// one letter and one digit.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain at least one letter and one digit")
	}
	return nil
}

// validateDisplayName allows empty (it is optional) but bounds the length.
func validateDisplayName(name string) error {
	if len(name) > maxDisplayNameLength {
		return fmt.Errorf("display name must be at most %d characters", maxDisplayNameLength)
	}
	return nil
}
