package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 3, cfg.LookaheadDays)
	assert.Equal(t, time.Hour, cfg.OverdueSweepInterval)
	assert.True(t, cfg.RequireNoteFromOverdue)
	assert.False(t, cfg.RedisEnabled())
	assert.Len(t, cfg.JWTSecret, 64, "a secret is generated outside release mode")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LIFECYCLE_LOOKAHEAD_DAYS", "5")
	t.Setenv("OVERDUE_SWEEP_INTERVAL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "localhost:5173, *.muni.gob.ar")
	t.Setenv("REQUIRE_NOTE_FROM_OVERDUE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 5*24*time.Hour, cfg.Lookahead())
	assert.Equal(t, 15*time.Minute, cfg.OverdueSweepInterval)
	assert.Equal(t, []string{"localhost:5173", "*.muni.gob.ar"}, cfg.AllowedOrigins)
	assert.False(t, cfg.RequireNoteFromOverdue)
}

func TestLoad_ReleaseRequiresSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_InvalidSweepInterval(t *testing.T) {
	t.Setenv("OVERDUE_SWEEP_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_name: from_file\nport: \"9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from_file", cfg.DBName)
	assert.Equal(t, "9090", cfg.Port)
}
