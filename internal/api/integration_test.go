package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reflective-journal/devstart/internal/clients"
	"reflective-journal/devstart/internal/preflight"
	"reflective-journal/devstart/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatusServer_RealChecker wires a real Checker with command probes
// backed by a mock runner and drives it over HTTP.
func TestStatusServer_RealChecker(t *testing.T) {
	t.Parallel()

	r := &runner.Mock{
		Missing: map[string]bool{"redis-cli": true},
		RunFunc: func(context.Context, string, ...string) ([]byte, error) {
			return []byte("1\n"), nil
		},
	}

	checker := preflight.New(time.Second,
		&preflight.MarkerCheck{Var: "VIRTUAL_ENV", Getenv: func(string) string { return "/venv" }},
		&preflight.ProbeCheck{
			CheckName: "postgres", Cat: preflight.CategoryDatastore,
			Prober: clients.NewPsqlProbe(r, "psql", "journal_db", "SELECT 1"),
		},
		&preflight.ProbeCheck{
			CheckName: "redis", Cat: preflight.CategoryCache,
			Prober:      clients.NewRedisCLIProbe(r, "redis-cli", ""),
			MissingHint: "brew install redis",
		},
	)

	srv := httptest.NewServer(NewRouter(checker, "devstart-test").Handler())
	defer srv.Close()
	client := srv.Client()

	resp, err := client.Get(srv.URL + "/health/deep")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var deep struct {
		Status string                  `json:"status"`
		Checks []preflight.CheckResult `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deep))
	require.Len(t, deep.Checks, 3)
	assert.Equal(t, preflight.StatusOK, deep.Checks[1].Status)
	assert.Equal(t, preflight.StatusError, deep.Checks[2].Status)
	assert.True(t, deep.Checks[2].ClientMissing)
	assert.Equal(t, "brew install redis", deep.Checks[2].Hint)

	ready, err := client.Get(srv.URL + "/ready")
	require.NoError(t, err)
	ready.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, ready.StatusCode)
}
