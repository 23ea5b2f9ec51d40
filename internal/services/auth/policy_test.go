package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	p := Policy{InactivityTimeout: 15 * time.Minute, RememberMeTimeout: 48 * time.Hour, ActivityTouchInterval: 10 * time.Minute}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 15*time.Minute, p.Timeout(false))
	assert.Equal(t, 48*time.Hour, p.Timeout(true))
	assert.Equal(t, now.Add(15*time.Minute), p.ExpiresAt(now, false))
	assert.Equal(t, now.Add(48*time.Hour), p.ExpiresAt(now, true))

	assert.True(t, p.ShouldTouch(nil, now))
	last := now.Add(-10 * time.Minute)
	assert.False(t, p.ShouldTouch(&last, now))
	last = now.Add(-10*time.Minute - time.Nanosecond)
	assert.True(t, p.ShouldTouch(&last, now))
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	assert.NoError(t, err)
	b, err := NewToken()
	assert.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
