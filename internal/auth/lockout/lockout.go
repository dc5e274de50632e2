// Package lockout implements the failed-login lockout state machine as a
// pure policy over (failed count, locked-until). Persistence of the state
// lives on the account row; this package only decides transitions.
package lockout

import "time"

// Defaults: the fifth consecutive failure locks the account for 15 minutes.
const (
	DefaultThreshold = 5
	DefaultDuration  = 15 * time.Minute
)

// State is the lockout-relevant slice of an account.
type State struct {
	FailedCount int
	LockedUntil *time.Time
}

// Policy holds the lockout tuning knobs.
type Policy struct {
	// Threshold is the consecutive-failure count at which the lock engages.
	Threshold int
	// Duration is how long the lock lasts once engaged.
	Duration time.Duration
}

// Default returns the standard policy.
func Default() Policy {
	return Policy{Threshold: DefaultThreshold, Duration: DefaultDuration}
}

// FailureThreshold returns the configured threshold, falling back to the
// default when unset.
func (p Policy) FailureThreshold() int {
	if p.Threshold <= 0 {
		return DefaultThreshold
	}
	return p.Threshold
}

// LockDuration returns the configured lock duration, falling back to the
// default when unset.
func (p Policy) LockDuration() time.Duration {
	if p.Duration <= 0 {
		return DefaultDuration
	}
	return p.Duration
}

// OnFailure returns the state after one more failed attempt at now. The
// caller must not invoke this while IsLocked is true: attempts during a lock
// are rejected before password verification, so they neither count nor push
// the lock further out.
func (p Policy) OnFailure(s State, now time.Time) State {
	next := State{FailedCount: s.FailedCount + 1, LockedUntil: s.LockedUntil}
	if next.FailedCount >= p.FailureThreshold() {
		until := now.Add(p.LockDuration())
		next.LockedUntil = &until
	}
	return next
}

// OnSuccess returns the cleared state: a successful login or password reset
// wipes the counter and any lock.
func (p Policy) OnSuccess() State {
	return State{}
}

// IsLocked reports whether the account is locked at now. An expired
// locked_until needs no special transition; it simply stops being a lock.
func (p Policy) IsLocked(s State, now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}

// Remaining returns how much lock time is left at now, or zero when not
// locked.
func (p Policy) Remaining(s State, now time.Time) time.Duration {
	if !p.IsLocked(s, now) {
		return 0
	}
	return s.LockedUntil.Sub(now)
}
