package compose

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflective-journal/devstart/internal/config"
)

func testConfig() config.ComposeConfig {
	return config.ComposeConfig{
		User:     "postgres",
		Password: "postgres",
		Postgres: config.ComposeServiceConfig{
			Image: "postgres:15-alpine", Port: 5433,
			Interval: 10 * time.Second, Timeout: 5 * time.Second, Retries: 5,
		},
		Redis: config.ComposeServiceConfig{
			Image: "redis:7-alpine", Port: 6379,
			Interval: 5 * time.Second, Timeout: 3 * time.Second, Retries: 10,
		},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	f := Build(testConfig(), "journal_db")
	require.Len(t, f.Services, 2)

	pg := f.Services["postgres"]
	assert.Equal(t, "postgres:15-alpine", pg.Image)
	assert.Equal(t, []string{"5433:5432"}, pg.Ports)
	assert.Equal(t, "journal_db", pg.Environment["POSTGRES_DB"])
	require.NotNil(t, pg.Healthcheck)
	assert.Equal(t, "10s", pg.Healthcheck.Interval)
	assert.Equal(t, "5s", pg.Healthcheck.Timeout)
	assert.Equal(t, 5, pg.Healthcheck.Retries)

	rd := f.Services["redis"]
	assert.Equal(t, []string{"CMD", "redis-cli", "ping"}, rd.Healthcheck.Test)
	assert.Equal(t, 10, rd.Healthcheck.Retries)
	assert.Equal(t, "3s", rd.Healthcheck.Timeout)
}

func TestEncode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Build(testConfig(), "journal_db").Encode(&buf))

	out := buf.String()
	assert.Contains(t, out, "services:\n  postgres:\n")
	assert.Contains(t, out, "image: redis:7-alpine")
	assert.Contains(t, out, "postgres_data: {}")

	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "pg_isready -U postgres", parsed.Services["postgres"].Healthcheck.Test[1])
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, Build(testConfig(), "journal_db").WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, parsed.Services, 2)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("services: [unterminated"))
	assert.Error(t, err)
}
