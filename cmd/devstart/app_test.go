package main

import (
	"os"
	"path/filepath"
	"testing"

	"reflective-journal/devstart/internal/config"
	"reflective-journal/devstart/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChecker_Order(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	checker := newChecker(cfg, &runner.Mock{})

	var names []string
	for _, c := range checker.Checks() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"virtualenv", "env-file", "path-fixup", "postgres", "redis"}, names)
}

func TestServiceURLs(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"DATABASE_URL=postgresql://localhost/journal_db\nREDIS_URL=redis://localhost:6379/1\n"), 0o600))

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Env.File = envFile

	u := serviceURLs(cfg)
	assert.Equal(t, "postgresql://localhost/journal_db", u.database)
	assert.Equal(t, "redis://localhost:6379/1", u.cache)

	cfg.Postgres.URL = "postgresql://db.internal/journal_db"
	u = serviceURLs(cfg)
	assert.Equal(t, "postgresql://db.internal/journal_db", u.database)

	cfg.Env.File = filepath.Join(dir, "missing.env")
	cfg.Postgres.URL = ""
	assert.Equal(t, urls{}, serviceURLs(cfg))
}

func TestLaunchSpec_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"uvicorn", "app.main:app", "--host", "0.0.0.0", "--port", "8000", "--reload"},
		launchSpec(cfg).Args())
}
