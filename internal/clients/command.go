package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reflective-journal/devstart/internal/preflight"
	"reflective-journal/devstart/internal/runner"
)

// CommandProbe checks a service by running its administrative client. The
// probe succeeds when the command exits zero and, if Expect is set, its
// trimmed stdout equals Expect.
type CommandProbe struct {
	ProbeName string
	Binary    string
	Args      []string
	Expect    string
	Runner    runner.Runner
}

// NewPsqlProbe runs `psql -d <database> -c <query>`.
func NewPsqlProbe(r runner.Runner, binary, database, query string) *CommandProbe {
	return &CommandProbe{
		ProbeName: postgresProbeName,
		Binary:    binary,
		Args:      []string{"-d", database, "-c", query},
		Runner:    r,
	}
}

// NewRedisCLIProbe runs `redis-cli ping`, adding `-u <url>` when a URL is
// known.
func NewRedisCLIProbe(r runner.Runner, binary, url string) *CommandProbe {
	args := []string{"ping"}
	if url != "" {
		args = []string{"-u", url, "ping"}
	}
	return &CommandProbe{
		ProbeName: redisProbeName,
		Binary:    binary,
		Args:      args,
		Expect:    "PONG",
		Runner:    r,
	}
}

func (p *CommandProbe) Probe(ctx context.Context) preflight.ProbeResult {
	start := time.Now()
	result := preflight.ProbeResult{Name: p.ProbeName}

	if _, err := p.Runner.LookPath(p.Binary); err != nil {
		result.ClientMissing = true
		result.Error = fmt.Sprintf("%s is not installed or not on PATH", p.Binary)
		result.LatencyMs = time.Since(start).Milliseconds()
		return result
	}

	out, err := p.Runner.Run(ctx, p.Binary, p.Args...)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		var exitErr *runner.ExitError
		if errors.As(err, &exitErr) && exitErr.Stderr != "" {
			result.Error = exitErr.Stderr
		} else {
			result.Error = err.Error()
		}
		return result
	}

	if got := strings.TrimSpace(string(out)); p.Expect != "" && got != p.Expect {
		result.Error = fmt.Sprintf("unexpected %s response: %q", p.Binary, got)
		return result
	}

	result.OK = true
	return result
}
