package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"reflective-journal/devstart/internal/preflight"
)

const redisProbeName = "redis"

// redisPinger is the interface used by RedisClient for health probing.
// It is implemented by the real go-redis client and by test doubles.
type redisPinger interface {
	PingResult(ctx context.Context) (string, error)
	Close() error
}

// realRedisPinger adapts a *redis.Client to redisPinger.
type realRedisPinger struct {
	client *redis.Client
}

func (r *realRedisPinger) PingResult(ctx context.Context) (string, error) {
	return r.client.Ping(ctx).Result()
}

func (r *realRedisPinger) Close() error {
	return r.client.Close()
}

// RedisClient probes Redis natively with go-redis, guarded by a circuit
// breaker.
type RedisClient struct {
	url    string
	cb     *gobreaker.CircuitBreaker
	pinger redisPinger
}

// NewRedisClient creates a RedisClient for a redis:// URL. The real
// go-redis client is built lazily on each Probe call.
func NewRedisClient(url string, cb *gobreaker.CircuitBreaker) *RedisClient {
	return &RedisClient{
		url: url,
		cb:  cb,
	}
}

// Probe sends PING and expects PONG.
func (c *RedisClient) Probe(ctx context.Context) preflight.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		p := c.pinger
		if p == nil {
			if c.url == "" {
				return nil, errors.New("no cache URL configured (set REDIS_URL in .env)")
			}
			opts, err := redis.ParseURL(c.url)
			if err != nil {
				return nil, fmt.Errorf("parsing redis URL: %w", err)
			}
			p = &realRedisPinger{client: redis.NewClient(opts)}
			defer p.Close() //nolint:errcheck
		}

		val, err := p.PingResult(ctx)
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		if val != "PONG" {
			return nil, fmt.Errorf("unexpected PING response: %q", val)
		}
		return nil, nil
	})

	return toProbeResult(redisProbeName, start, err)
}
