package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL())
	assert.Equal(t, "@hourly", cfg.Cron.TokenCleanupSpec)
	assert.Empty(t, cfg.Authz.DefaultsFile)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadModeScopedKeysWin(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("JWT_SECRET", "bare")
	t.Setenv("PROD_JWT_SECRET", "scoped")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ACCESS_TOKEN_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "scoped", cfg.JWT.Secret)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5, cfg.JWT.AccessTokenMins)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("APP_MODE", "staging")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("APP_MODE", "prod")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("APP_MODE", "dev")
	t.Setenv("REFRESH_TOKEN_DAYS", "0")
	_, err = Load()
	assert.Error(t, err)
}
