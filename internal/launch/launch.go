// Package launch hands the process over to the application web server once
// preflight has passed.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrBinaryMissing is returned when the server launcher is not on PATH.
var ErrBinaryMissing = errors.New("server launcher not found")

// ErrExec is returned when the server was found but could not be started.
var ErrExec = errors.New("starting server")

// Spec describes the server invocation.
type Spec struct {
	Binary     string
	App        string
	Host       string
	Port       int
	Reload     bool
	PythonPath string
}

// Args returns the full argv, including argv[0].
func (s Spec) Args() []string {
	args := []string{s.Binary, s.App, "--host", s.Host, "--port", strconv.Itoa(s.Port)}
	if s.Reload {
		args = append(args, "--reload")
	}
	return args
}

// Launcher replaces the current process with the server.
type Launcher struct {
	LookPath func(string) (string, error)
	Exec     func(path string, argv, env []string) error
	Environ  func() []string
	Getwd    func() (string, error)
}

func New() *Launcher {
	return &Launcher{
		LookPath: exec.LookPath,
		Exec:     execProcess,
		Environ:  os.Environ,
		Getwd:    os.Getwd,
	}
}

// Launch exports PYTHONPATH and execs the server. On success it does not
// return on platforms that support execve.
func (l *Launcher) Launch(ctx context.Context, spec Spec) error {
	path, err := l.LookPath(spec.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s (is the virtual environment complete? pip install -r requirements.txt)", ErrBinaryMissing, spec.Binary)
	}

	pythonPath := spec.PythonPath
	if pythonPath == "" {
		wd, err := l.Getwd()
		if err != nil {
			return fmt.Errorf("%w: resolving working directory: %w", ErrExec, err)
		}
		pythonPath = wd
	}

	env := withPythonPath(l.Environ(), pythonPath)
	argv := spec.Args()

	slog.InfoContext(ctx, "launching server",
		"binary", path,
		"app", spec.App,
		"addr", fmt.Sprintf("%s:%d", spec.Host, spec.Port),
		"reload", spec.Reload,
		"pythonpath", pythonPath,
	)

	if err := l.Exec(path, argv, env); err != nil {
		return fmt.Errorf("%w: exec %s: %w", ErrExec, path, err)
	}
	return nil
}

// withPythonPath prepends dir to PYTHONPATH in env, keeping any existing
// entries after it.
func withPythonPath(env []string, dir string) []string {
	const key = "PYTHONPATH="
	out := make([]string, 0, len(env)+1)
	value := dir
	for _, kv := range env {
		if strings.HasPrefix(kv, key) {
			if existing := strings.TrimPrefix(kv, key); existing != "" && existing != dir {
				value = dir + string(os.PathListSeparator) + existing
			}
			continue
		}
		out = append(out, kv)
	}
	return append(out, key+value)
}
