package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "3000", cfg.App.HTTPPort)
	assert.Equal(t, "http://localhost:5173", cfg.App.CORSOrigin)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/cv-hub.db", cfg.Database.Path)
	assert.Equal(t, GuardModeStrict, cfg.Guards.InviteMode)
	assert.Equal(t, GuardModeBypass, cfg.Guards.AdminMode)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 300*time.Second, cfg.Redis.TTL)
	assert.False(t, cfg.PDF.Enabled)
}

func TestFromEnv_DatabaseURLSelectsPostgres(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL": "postgres://cv:cv@localhost:5432/cv?sslmode=disable",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
}

func TestFromEnv_NodeEnvFallback(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"NODE_ENV": "production"}))
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnv_InvalidValuesAggregated(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{
		"PORT":        "-1",
		"CORS_ORIGIN": "not a url",
		"LOG_LEVEL":   "verbose",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, errInvalidEnv)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "CORS_ORIGIN")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestFromEnv_GuardModesAreNotValidatedAtLoad(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"EPIC_2_ADMIN_PLACEHOLDER_MODE": "maybe"}))
	require.NoError(t, err)
	assert.Equal(t, "maybe", cfg.Guards.AdminMode)
}
