// Package migrate applies the journal database's versioned schema changes.
//
// Each file in sql/ is one migration, named <version>_<name>.sql and applied
// in lexical order inside its own transaction. Applied versions are recorded
// in a tracking table so that re-running is a no-op.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var files embed.FS

// Migration is one embedded schema change.
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// Status reports whether a migration has been applied.
type Status struct {
	Version   string     `json:"version"`
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"appliedAt,omitempty"`
}

// Load returns the embedded migrations sorted by version.
func Load() ([]Migration, error) {
	return load(files)
}

func load(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, path := range names {
		base := strings.TrimSuffix(strings.TrimPrefix(path, "sql/"), ".sql")
		version, name, ok := strings.Cut(base, "_")
		if !ok || version == "" || name == "" {
			return nil, fmt.Errorf("migration %s: expected <version>_<name>.sql", path)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration %s: version %s already used by %s", path, version, prev)
		}
		seen[version] = path

		body, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(body)})
	}
	return migrations, nil
}

// Migrator applies migrations to one database.
type Migrator struct {
	db         *sql.DB
	table      string
	migrations []Migration
}

// New returns a Migrator over the embedded migrations, tracking applied
// versions in table.
func New(db *sql.DB, table string) (*Migrator, error) {
	migrations, err := Load()
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, table: pgx.Identifier{table}.Sanitize(), migrations: migrations}, nil
}

// Open connects to url through pgx's database/sql driver and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// Up applies every pending migration in order and returns those applied.
// It stops at the first failure; earlier migrations stay committed.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var done []Migration
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return done, err
		}
		slog.InfoContext(ctx, "migration applied", "version", mig.Version, "name", mig.Name)
		done = append(done, mig)
	}
	return done, nil
}

// Status lists every known migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := Status{Version: mig.Version, Name: mig.Name}
		if at, ok := applied[mig.Version]; ok {
			st.Applied = true
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+m.table+` (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("creating %s: %w", m.table, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]time.Time, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, `SELECT version, applied_at FROM `+m.table)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.table, err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var version string
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", m.table, err)
		}
		applied[version] = at
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: begin: %w", mig.Version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("migration %s_%s: %w", mig.Version, mig.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+m.table+` (version, name) VALUES ($1, $2)`,
		mig.Version, mig.Name,
	); err != nil {
		return fmt.Errorf("migration %s: recording: %w", mig.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %s: commit: %w", mig.Version, err)
	}
	return nil
}
