package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"reflective-journal/devstart/internal/launch"
	"reflective-journal/devstart/internal/preflight"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	report *preflight.Report
	err    error
	calls  int
}

func (s *stubChecker) Run(context.Context) (*preflight.Report, error) {
	s.calls++
	return s.report, s.err
}

type recordingLauncher struct {
	specs []launch.Spec
	err   error
}

func (r *recordingLauncher) Launch(_ context.Context, spec launch.Spec) error {
	r.specs = append(r.specs, spec)
	return r.err
}

func defaultSpec() launch.Spec {
	return launch.Spec{Binary: "uvicorn", App: "app.main:app", Host: "0.0.0.0", Port: 8000, Reload: true}
}

func passingReport() *preflight.Report {
	return &preflight.Report{Status: preflight.StatusOK, Checks: []preflight.CheckResult{
		{Name: "virtualenv", Status: preflight.StatusOK},
		{Name: "env-file", Status: preflight.StatusOK},
		{Name: "path-fixup", Status: preflight.StatusSkipped},
		{Name: "postgres", Status: preflight.StatusOK},
		{Name: "redis", Status: preflight.StatusOK},
	}}
}

func TestRunUp_LaunchesOnceAfterAllChecksPass(t *testing.T) {
	t.Parallel()

	checker := &stubChecker{report: passingReport()}
	launcher := &recordingLauncher{}
	var out bytes.Buffer

	require.NoError(t, runUpWith(context.Background(), &out, checker, launcher, defaultSpec()))

	require.Len(t, launcher.specs, 1)
	args := launcher.specs[0].Args()
	assert.Equal(t, []string{"uvicorn", "app.main:app", "--host", "0.0.0.0", "--port", "8000", "--reload"}, args)
	assert.Contains(t, out.String(), "✓ redis")
	assert.Contains(t, out.String(), "- path-fixup (skipped)")
	assert.Contains(t, out.String(), "http://0.0.0.0:8000")
}

func TestRunUp_NoLaunchOnFailure(t *testing.T) {
	t.Parallel()

	failure := &preflight.Error{
		Check:    "redis",
		Category: preflight.CategoryCache,
		Err:      preflight.ErrUnreachable,
	}
	checker := &stubChecker{
		report: &preflight.Report{Status: preflight.StatusError, Checks: []preflight.CheckResult{
			{Name: "virtualenv", Status: preflight.StatusOK},
			{Name: "redis", Status: preflight.StatusError, Error: "service unreachable"},
		}},
		err: failure,
	}
	launcher := &recordingLauncher{}
	var out bytes.Buffer

	err := runUpWith(context.Background(), &out, checker, launcher, defaultSpec())
	require.Error(t, err)

	assert.Empty(t, launcher.specs)
	assert.Equal(t, preflight.ExitCache, exitCode(err))
	assert.NotContains(t, out.String(), "starting")
}

func TestRunUp_Idempotent(t *testing.T) {
	t.Parallel()

	checker := &stubChecker{report: passingReport()}

	for i := 0; i < 2; i++ {
		launcher := &recordingLauncher{}
		require.NoError(t, runUpWith(context.Background(), &bytes.Buffer{}, checker, launcher, defaultSpec()))
		assert.Len(t, launcher.specs, 1)
	}
	assert.Equal(t, 2, checker.calls)
}

func TestRunUp_LaunchErrorSurfaces(t *testing.T) {
	t.Parallel()

	launcher := &recordingLauncher{err: fmt.Errorf("%w: uvicorn", launch.ErrBinaryMissing)}
	err := runUpWith(context.Background(), &bytes.Buffer{}, &stubChecker{report: passingReport()}, launcher, defaultSpec())

	require.Error(t, err)
	assert.Len(t, launcher.specs, 1)
	assert.Equal(t, preflight.ExitLaunch, exitCode(err))
}

func TestRunUp_ExecFailureExitsWithLaunchCode(t *testing.T) {
	t.Parallel()

	var execs int
	l := &launch.Launcher{
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		Exec: func(string, []string, []string) error {
			execs++
			return errors.New("permission denied")
		},
		Environ: func() []string { return nil },
		Getwd:   func() (string, error) { return "/src/journal", nil },
	}

	err := runUpWith(context.Background(), &bytes.Buffer{}, &stubChecker{report: passingReport()}, l, defaultSpec())

	require.Error(t, err)
	assert.Equal(t, 1, execs)
	assert.ErrorIs(t, err, launch.ErrExec)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, preflight.ExitLaunch, exitCode(err))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"explicit", &exitError{code: 4, err: errors.New("x")}, 4},
		{"wrapped explicit", fmt.Errorf("outer: %w", &exitError{code: 3, err: errors.New("x")}), 3},
		{"environment", &preflight.Error{Category: preflight.CategoryEnvironment, Err: preflight.ErrMarkerUnset}, preflight.ExitEnvironment},
		{"config", &preflight.Error{Category: preflight.CategoryConfig, Err: preflight.ErrEnvFileMissing}, preflight.ExitConfig},
		{"datastore", &preflight.Error{Category: preflight.CategoryDatastore, Err: preflight.ErrClientMissing}, preflight.ExitDatastore},
		{"launch binary missing", fmt.Errorf("%w: uvicorn", launch.ErrBinaryMissing), preflight.ExitLaunch},
		{"launch exec failure", fmt.Errorf("%w: exec /usr/bin/uvicorn: %w", launch.ErrExec, errors.New("permission denied")), preflight.ExitLaunch},
		{"anything else", errors.New("boom"), preflight.ExitGeneric},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}

func TestPrintError(t *testing.T) {
	t.Parallel()

	t.Run("with hint", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		printError(&buf, &preflight.Error{
			Check: "postgres", Category: preflight.CategoryDatastore,
			Hint: "createdb journal_db", Err: preflight.ErrUnreachable,
		})
		assert.Equal(t, "✗ postgres: service unreachable\n  hint: createdb journal_db\n", buf.String())
	})

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		printError(&buf, errors.New("loading config: bad yaml"))
		assert.Equal(t, "✗ loading config: bad yaml\n", buf.String())
	})

	t.Run("silent", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		printError(&buf, &exitError{code: 4, err: errors.New("postgres: down"), silent: true})
		assert.Empty(t, buf.String())
	})
}
