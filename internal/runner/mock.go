package runner

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a test double for Runner.
//
// Binaries listed in Missing fail LookPath; every other name resolves to
// "/usr/bin/<name>". Run delegates to RunFunc, or succeeds with empty output
// when RunFunc is nil. Every invocation is recorded in Calls.
type Mock struct {
	Missing map[string]bool
	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

	mu    sync.Mutex
	calls []Call
}

// Call records a single Run invocation.
type Call struct {
	Name string
	Args []string
}

func (m *Mock) LookPath(name string) (string, error) {
	if m.Missing[name] {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return "/usr/bin/" + name, nil
}

func (m *Mock) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Name: name, Args: append([]string(nil), args...)})
	fn := m.RunFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, name, args...)
}

// Calls returns a copy of the recorded invocations.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Ran reports whether a command with the given name was executed.
func (m *Mock) Ran(name string) bool {
	for _, c := range m.Calls() {
		if c.Name == name {
			return true
		}
	}
	return false
}
