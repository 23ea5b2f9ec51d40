package auth

import "time"

const (
	DefaultInactivityTimeout     = 30 * time.Minute
	DefaultRememberMeTimeout     = 7 * 24 * time.Hour
	DefaultActivityTouchInterval = 30 * time.Minute
)

// Policy holds the session lifetimes.
type Policy struct {
	InactivityTimeout     time.Duration
	RememberMeTimeout     time.Duration
	ActivityTouchInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		InactivityTimeout:     DefaultInactivityTimeout,
		RememberMeTimeout:     DefaultRememberMeTimeout,
		ActivityTouchInterval: DefaultActivityTouchInterval,
	}
}

func (p Policy) Timeout(rememberMe bool) time.Duration {
	if rememberMe {
		return p.RememberMeTimeout
	}
	return p.InactivityTimeout
}

func (p Policy) ExpiresAt(now time.Time, rememberMe bool) time.Time {
	return now.Add(p.Timeout(rememberMe))
}

// ShouldTouch reports whether last activity is stale enough to be rewritten.
func (p Policy) ShouldTouch(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) > p.ActivityTouchInterval
}
