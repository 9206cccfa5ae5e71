package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"reflective-journal/devstart/internal/dotenv"
)

// Check is a single precondition verified before the server launches.
type Check interface {
	Name() string
	Category() Category
	// Run returns nil when the precondition holds. Failures should be
	// returned as *Error so that the hint reaches the operator.
	Run(ctx context.Context) error
}

// MarkerCheck verifies that an isolated runtime (e.g. a Python virtualenv)
// is active by looking for its marker variable.
type MarkerCheck struct {
	Var    string
	Getenv func(string) string
}

func NewMarkerCheck(name string) *MarkerCheck {
	return &MarkerCheck{Var: name, Getenv: os.Getenv}
}

func (c *MarkerCheck) Name() string       { return "virtualenv" }
func (c *MarkerCheck) Category() Category { return CategoryEnvironment }

func (c *MarkerCheck) Run(_ context.Context) error {
	if strings.TrimSpace(c.Getenv(c.Var)) != "" {
		return nil
	}
	return &Error{
		Check:    c.Name(),
		Category: c.Category(),
		Hint:     "activate the virtual environment first: source venv/bin/activate",
		Err:      fmt.Errorf("%w (%s is not set)", ErrMarkerUnset, c.Var),
	}
}

// EnvFileCheck verifies that the application's configuration file exists.
// With Strict set the file is also parsed and its settings validated.
type EnvFileCheck struct {
	Path     string
	Template string
	Strict   bool
}

func (c *EnvFileCheck) Name() string       { return "env-file" }
func (c *EnvFileCheck) Category() Category { return CategoryConfig }

func (c *EnvFileCheck) Run(_ context.Context) error {
	st, err := os.Stat(c.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Error{
			Check:    c.Name(),
			Category: c.Category(),
			Hint:     fmt.Sprintf("copy %s to %s and fill in your values (or run: devstart env init)", c.Template, c.Path),
			Err:      fmt.Errorf("%w: %s", ErrEnvFileMissing, c.Path),
		}
	case err != nil:
		return &Error{Check: c.Name(), Category: c.Category(), Err: err}
	case st.IsDir():
		return &Error{
			Check:    c.Name(),
			Category: c.Category(),
			Hint:     fmt.Sprintf("remove the directory and copy %s to %s", c.Template, c.Path),
			Err:      fmt.Errorf("%w: %s is a directory", ErrEnvFileMissing, c.Path),
		}
	}

	if !c.Strict {
		return nil
	}
	if _, err := dotenv.LoadSettings(c.Path); err != nil {
		return &Error{
			Check:    c.Name(),
			Category: c.Category(),
			Hint:     fmt.Sprintf("compare %s with %s", c.Path, c.Template),
			Err:      fmt.Errorf("invalid settings: %w", err),
		}
	}
	return nil
}

// PathFixup prepends known installation directories to PATH on one OS
// family so that client binaries installed outside the default PATH are
// found. It never fails.
type PathFixup struct {
	GOOS string
	Dirs []string

	// Overridable for tests.
	CurrentOS string
	Getenv    func(string) string
	Setenv    func(string, string) error
	Stat      func(string) (fs.FileInfo, error)
}

func NewPathFixup(goos string, dirs []string) *PathFixup {
	return &PathFixup{
		GOOS:      goos,
		Dirs:      dirs,
		CurrentOS: runtime.GOOS,
		Getenv:    os.Getenv,
		Setenv:    os.Setenv,
		Stat:      os.Stat,
	}
}

func (p *PathFixup) Name() string       { return "path-fixup" }
func (p *PathFixup) Category() Category { return CategoryPath }

func (p *PathFixup) Run(ctx context.Context) error {
	if p.GOOS == "" || p.CurrentOS != p.GOOS {
		return nil
	}

	path := p.Getenv("PATH")
	entries := filepath.SplitList(path)

	var prepend []string
	for _, dir := range p.Dirs {
		if slices.Contains(entries, dir) {
			continue
		}
		if st, err := p.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		prepend = append(prepend, dir)
	}
	if len(prepend) == 0 {
		return nil
	}

	updated := strings.Join(append(prepend, entries...), string(os.PathListSeparator))
	if err := p.Setenv("PATH", updated); err != nil {
		slog.WarnContext(ctx, "PATH update failed", "err", err)
		return nil
	}
	slog.DebugContext(ctx, "prepended to PATH", "dirs", prepend)
	return nil
}

// Prober is satisfied by the datastore and cache clients.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// ProbeCheck adapts a Prober to a Check. MissingHint is shown when the
// client binary is absent, UnreachableHint when the probe itself failed.
type ProbeCheck struct {
	CheckName       string
	Cat             Category
	Prober          Prober
	MissingHint     string
	UnreachableHint string
}

func (c *ProbeCheck) Name() string       { return c.CheckName }
func (c *ProbeCheck) Category() Category { return c.Cat }

func (c *ProbeCheck) Run(ctx context.Context) error {
	res := c.Prober.Probe(ctx)
	if res.OK {
		return nil
	}
	if res.ClientMissing {
		return &Error{
			Check:         c.Name(),
			Category:      c.Cat,
			Hint:          c.MissingHint,
			ClientMissing: true,
			Err:           fmt.Errorf("%w: %s", ErrClientMissing, res.Error),
		}
	}
	return &Error{
		Check:    c.Name(),
		Category: c.Cat,
		Hint:     c.UnreachableHint,
		Err:      fmt.Errorf("%w: %s", ErrUnreachable, res.Error),
	}
}
