package main

import (
	"context"
	"log/slog"
	"time"

	"reflective-journal/devstart/internal/clients"
	"reflective-journal/devstart/internal/config"
	"reflective-journal/devstart/internal/dotenv"
	"reflective-journal/devstart/internal/launch"
	"reflective-journal/devstart/internal/preflight"
	"reflective-journal/devstart/internal/runner"
	"reflective-journal/devstart/internal/telemetry"
)

// AppContext holds all constructed application dependencies shared across
// subcommands. It is built once in PersistentPreRunE.
type AppContext struct {
	cfg       *config.Config
	telemetry *telemetry.Provider
	runner    runner.Runner
	checker   *preflight.Checker
	launcher  *launch.Launcher
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Creates the command runner
//  3. Builds the ordered preflight checks
//  4. Creates the server launcher
func buildAppContext(ctx context.Context, cfg *config.Config) *AppContext {
	if ctx == nil {
		ctx = context.Background()
	}
	app := &AppContext{
		cfg:       cfg,
		telemetry: telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPInsecure),
		runner:    runner.NewExec(),
		launcher:  launch.New(),
	}
	app.checker = newChecker(cfg, app.runner)
	return app
}

// newChecker builds the fixed check order: environment, config file, PATH
// fixup, datastore, cache.
func newChecker(cfg *config.Config, r runner.Runner) *preflight.Checker {
	urls := serviceURLs(cfg)

	var pg preflight.Prober
	if cfg.Postgres.Mode == config.ModeDriver {
		pg = clients.NewPostgresClient(urls.database, cfg.Postgres.ProbeQuery, cfg.Postgres.MaxConns,
			clients.NewCircuitBreaker("postgres", 30*time.Second))
	} else {
		pg = clients.NewPsqlProbe(r, cfg.Postgres.Client, cfg.Postgres.Database, cfg.Postgres.ProbeQuery)
	}

	var cache preflight.Prober
	if cfg.Redis.Mode == config.ModeDriver {
		cache = clients.NewRedisClient(urls.cache, clients.NewCircuitBreaker("redis", 30*time.Second))
	} else {
		cache = clients.NewRedisCLIProbe(r, cfg.Redis.Client, cfg.Redis.URL)
	}

	return preflight.New(cfg.Probe.Timeout,
		preflight.NewMarkerCheck(cfg.Env.Marker),
		&preflight.EnvFileCheck{Path: cfg.Env.File, Template: cfg.Env.Template, Strict: cfg.Env.Strict},
		preflight.NewPathFixup(cfg.PathFix.GOOS, cfg.PathFix.Dirs),
		&preflight.ProbeCheck{
			CheckName:       "postgres",
			Cat:             preflight.CategoryDatastore,
			Prober:          pg,
			MissingHint:     "install the PostgreSQL client (macOS: brew install libpq, Debian/Ubuntu: apt install postgresql-client)",
			UnreachableHint: "start PostgreSQL (docker compose up -d postgres) and create the database: createdb " + cfg.Postgres.Database,
		},
		&preflight.ProbeCheck{
			CheckName:       "redis",
			Cat:             preflight.CategoryCache,
			Prober:          cache,
			MissingHint:     "install the Redis client (macOS: brew install redis, Debian/Ubuntu: apt install redis-tools)",
			UnreachableHint: "start Redis (docker compose up -d redis, or redis-server)",
		},
	)
}

type urls struct {
	database string
	cache    string
}

// serviceURLs resolves connection URLs for the driver probes. Explicit
// config wins; otherwise the application's .env is consulted. A missing or
// unreadable .env is not an error here: the env-file check reports it.
func serviceURLs(cfg *config.Config) urls {
	u := urls{database: cfg.Postgres.URL, cache: cfg.Redis.URL}
	if u.database != "" && u.cache != "" {
		return u
	}

	env, err := dotenv.Read(cfg.Env.File)
	if err != nil {
		slog.Debug("env file not readable for service URLs", "path", cfg.Env.File, "err", err)
		return u
	}
	if u.database == "" {
		u.database = env["DATABASE_URL"]
	}
	if u.cache == "" {
		u.cache = env["REDIS_URL"]
	}
	return u
}

func launchSpec(cfg *config.Config) launch.Spec {
	return launch.Spec{
		Binary:     cfg.Launch.Binary,
		App:        cfg.Launch.App,
		Host:       cfg.Launch.Host,
		Port:       cfg.Launch.Port,
		Reload:     cfg.Launch.Reload,
		PythonPath: cfg.Launch.PythonPath,
	}
}
