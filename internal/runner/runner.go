// Package runner abstracts external process execution so that the preflight
// checks can be exercised without real psql or redis-cli binaries.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotFound is returned by LookPath when the binary is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Runner resolves and executes external commands.
//
// Implementations must be safe for concurrent use.
type Runner interface {
	// LookPath resolves name against PATH. The error wraps ErrNotFound when
	// the binary is absent.
	LookPath(name string) (string, error)

	// Run executes the command to completion and returns its stdout. A
	// non-zero exit status is returned as an *ExitError.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// Exec implements Runner using os/exec.
type Exec struct{}

// NewExec returns a Runner that executes real processes.
func NewExec() *Exec {
	return &Exec{}
}

func (Exec) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return path, nil
}

func (Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &ExitError{
				Name:   name,
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("running %s: %w", name, err)
	}

	return stdout.Bytes(), nil
}
