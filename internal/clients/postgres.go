package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"

	"reflective-journal/devstart/internal/preflight"
)

const postgresProbeName = "postgres"

// dbPinger abstracts the pgxpool.Pool methods used in Probe so that tests
// can inject a fake without standing up a real database.
type dbPinger interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresClient probes Postgres natively through a pgx pool, guarded by a
// circuit breaker.
type PostgresClient struct {
	url      string
	query    string
	maxConns int32
	cb       *gobreaker.CircuitBreaker
	connect  func(ctx context.Context, url string, maxConns int32) (dbPinger, error)
}

// NewPostgresClient creates a PostgresClient for the given connection URL.
// No connection is made at construction time; each Probe opens and closes
// its own short-lived pool.
func NewPostgresClient(url, query string, maxConns int32, cb *gobreaker.CircuitBreaker) *PostgresClient {
	return &PostgresClient{
		url:      url,
		query:    query,
		maxConns: maxConns,
		cb:       cb,
		connect:  realConnect,
	}
}

// Probe pings the server and runs the probe query. Persistent failures trip
// the breaker after three consecutive errors.
func (c *PostgresClient) Probe(ctx context.Context) preflight.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		if c.url == "" {
			return nil, errors.New("no database URL configured (set DATABASE_URL in .env)")
		}

		pool, err := c.connect(ctx, c.url, c.maxConns)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}

		var one int
		if err := pool.QueryRow(ctx, c.query).Scan(&one); err != nil {
			return nil, fmt.Errorf("probe query %q: %w", c.query, err)
		}

		return nil, nil
	})

	return toProbeResult(postgresProbeName, start, err)
}

// realConnect opens a pgxpool.Pool for url.
func realConnect(ctx context.Context, url string, maxConns int32) (dbPinger, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres URL: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	return pool, nil
}

// toProbeResult converts a breaker outcome into a ProbeResult.
func toProbeResult(name string, start time.Time, err error) preflight.ProbeResult {
	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return preflight.ProbeResult{
			Name:      name,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return preflight.ProbeResult{
		Name:      name,
		OK:        true,
		LatencyMs: latency,
	}
}
