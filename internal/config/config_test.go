package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: t.Parallel() is intentionally omitted in this package.
// These tests share process-global environment variables.

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "VIRTUAL_ENV", cfg.Env.Marker)
	assert.Equal(t, ".env", cfg.Env.File)
	assert.Equal(t, ".env.example", cfg.Env.Template)
	assert.Equal(t, "darwin", cfg.PathFix.GOOS)
	assert.Equal(t, []string{"/opt/homebrew/opt/libpq/bin"}, cfg.PathFix.Dirs)
	assert.Equal(t, "psql", cfg.Postgres.Client)
	assert.Equal(t, "SELECT 1", cfg.Postgres.ProbeQuery)
	assert.Equal(t, ModeCommand, cfg.Postgres.Mode)
	assert.Equal(t, "redis-cli", cfg.Redis.Client)
	assert.Equal(t, "0.0.0.0", cfg.Launch.Host)
	assert.Equal(t, 8000, cfg.Launch.Port)
	assert.True(t, cfg.Launch.Reload)
	assert.Equal(t, 10*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 5, cfg.Compose.Redis.Retries)
	assert.Equal(t, "schema_migrations", cfg.Migrate.Table)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DEVSTART_LAUNCH_PORT", "9000")
	t.Setenv("DEVSTART_POSTGRES_DATABASE", "scratch")
	t.Setenv("DEVSTART_REDIS_MODE", "driver")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Launch.Port)
	assert.Equal(t, "scratch", cfg.Postgres.Database)
	assert.Equal(t, ModeDriver, cfg.Redis.Mode)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devstart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env:
  marker: CONDA_PREFIX
postgres:
  database: journal_test
  mode: driver
launch:
  reload: false
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "CONDA_PREFIX", cfg.Env.Marker)
	assert.Equal(t, "journal_test", cfg.Postgres.Database)
	assert.Equal(t, ModeDriver, cfg.Postgres.Mode)
	assert.False(t, cfg.Launch.Reload)
	assert.Equal(t, 8000, cfg.Launch.Port)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("DEVSTART_POSTGRES_MODE", "telepathy")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.mode")
}

func TestLoad_EnvIsolation(t *testing.T) {
	require.Empty(t, os.Getenv("DEVSTART_LAUNCH_PORT"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Launch.Port)
}
