package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_INACTIVITY_TIMEOUT_MINUTES", "")
	t.Setenv("SESSION_REMEMBER_ME_DAYS", "")
	t.Setenv("STORE", "")
	t.Setenv("APP_ENV", "")

	conf := ReadConfig()

	assert.Equal(t, "postgres", conf.STORE)
	assert.Equal(t, 30*time.Minute, conf.InactivityTimeout())
	assert.Equal(t, 7*24*time.Hour, conf.RememberMeTimeout())
	assert.Equal(t, 30*time.Minute, conf.ActivityTouchInterval())
	assert.Equal(t, 8, conf.DEFAULT_MAX_CAPACITY)
	assert.False(t, conf.IsProduction())
}

func TestReadConfig_Overrides(t *testing.T) {
	t.Setenv("SESSION_INACTIVITY_TIMEOUT_MINUTES", "15")
	t.Setenv("DEFAULT_MAX_CAPACITY", "not-a-number")
	t.Setenv("APP_ENV", "production")

	conf := ReadConfig()

	assert.Equal(t, 15*time.Minute, conf.InactivityTimeout())
	assert.Equal(t, 8, conf.DEFAULT_MAX_CAPACITY)
	assert.True(t, conf.IsProduction())
}
