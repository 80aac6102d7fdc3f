package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "access-secret", cfg.Auth.AccessSecret)
	assert.Equal(t, "refresh-secret", cfg.Auth.RefreshSecret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)

	// Значения по умолчанию
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.EphemeralTokenTTL)
	assert.Equal(t, 5, cfg.RateLimit.ResetRequests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.ResetWindow)
	assert.Equal(t, ":8080", cfg.HTTPServer.Address)
}

func TestLoad_MissingSecrets(t *testing.T) {
	// t.Setenv регистрирует восстановление, Unsetenv реально убирает переменную
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_ACCESS_SECRET"))
	require.NoError(t, os.Unsetenv("JWT_REFRESH_SECRET"))

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestIsLocal(t *testing.T) {
	cfg := &Config{Env: "local"}
	assert.True(t, cfg.IsLocal())

	cfg.Env = "dev"
	assert.False(t, cfg.IsLocal())
}
