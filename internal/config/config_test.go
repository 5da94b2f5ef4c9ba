package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("BCRYPT_COST", "")

	cfg := Load()

	assert.Equal(t, EnvDevelopment, cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 90*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 90*24*time.Hour, cfg.JWTCookieExpiresIn)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_EXPIRES_IN", "30d")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "15m")
	t.Setenv("EMAIL_PORT", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTCookieExpiresIn)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 2525, cfg.EmailPort)
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty uses default", value: "", want: time.Minute},
		{name: "days suffix", value: "2d", want: 48 * time.Hour},
		{name: "go duration", value: "90s", want: 90 * time.Second},
		{name: "garbage uses default", value: "soon", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvDuration("TEST_DURATION", time.Minute))
		})
	}
}
