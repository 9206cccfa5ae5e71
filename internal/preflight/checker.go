package preflight

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "reflective-journal/devstart/preflight"

// Checker runs an ordered list of checks.
type Checker struct {
	checks       []Check
	probeTimeout time.Duration
	failures     metric.Int64Counter
}

// New constructs a Checker. Checks run in the order given. probeTimeout
// bounds each remote check; zero means no extra deadline.
func New(probeTimeout time.Duration, checks ...Check) *Checker {
	failures, err := otel.Meter(instrumentationName).Int64Counter(
		"devstart.preflight.failures",
		metric.WithDescription("Preflight checks that failed, by category."),
	)
	if err != nil {
		slog.Warn("preflight failure counter unavailable", "err", err)
	}
	return &Checker{
		checks:       checks,
		probeTimeout: probeTimeout,
		failures:     failures,
	}
}

// Checks returns the configured checks in order.
func (c *Checker) Checks() []Check {
	return c.checks
}

// Run executes the checks strictly in order and stops at the first failure.
// Checks after the failing one are not run and do not appear in the report.
// The returned error is the failing check's *Error.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "preflight.run")
	defer span.End()

	report := &Report{Status: StatusOK, Checks: make([]CheckResult, 0, len(c.checks))}

	for _, check := range c.checks {
		result, err := c.runOne(ctx, check)
		report.Checks = append(report.Checks, result)
		if err != nil {
			report.Status = StatusError
			span.SetAttributes(attribute.String("preflight.failed_check", check.Name()))
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
	}

	span.SetStatus(codes.Ok, "")
	slog.InfoContext(ctx, "preflight passed", "checks", len(report.Checks))
	return report, nil
}

// Diagnose runs every check without short-circuiting. Local checks run in
// order first; remote probes then run concurrently. The report keeps the
// declaration order regardless.
func (c *Checker) Diagnose(ctx context.Context) *Report {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "preflight.diagnose")
	defer span.End()

	results := make([]CheckResult, len(c.checks))
	var remote []int

	for i, check := range c.checks {
		if check.Category().Remote() {
			remote = append(remote, i)
			continue
		}
		results[i], _ = c.runOne(ctx, check)
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, i := range remote {
		g.Go(func() error {
			res, _ := c.runOne(ctx, c.checks[i])
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	// g.Wait() never returns an error because all goroutines return nil.
	_ = g.Wait()

	report := &Report{Status: StatusOK, Checks: results}
	if report.FirstFailure() != nil {
		report.Status = StatusError
		span.SetStatus(codes.Error, "one or more checks failed")
	}
	span.SetAttributes(attribute.String("preflight.status", report.Status))
	return report
}

func (c *Checker) runOne(ctx context.Context, check Check) (CheckResult, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "preflight.check")
	defer span.End()
	span.SetAttributes(
		attribute.String("check.name", check.Name()),
		attribute.String("check.category", string(check.Category())),
	)

	if c.probeTimeout > 0 && check.Category().Remote() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	start := time.Now()
	err := check.Run(ctx)
	result := CheckResult{
		Name:      check.Name(),
		Category:  check.Category(),
		Status:    StatusOK,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	if err == nil {
		slog.DebugContext(ctx, "preflight check ok", "check", result.Name)
		return result, nil
	}

	pe := asError(check, err)
	result.Status = StatusError
	result.Error = pe.reason()
	result.Hint = pe.Hint
	result.ClientMissing = pe.ClientMissing

	span.SetStatus(codes.Error, result.Error)
	if c.failures != nil {
		c.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("category", string(pe.Category))))
	}
	slog.WarnContext(ctx, "preflight check failed",
		"check", result.Name,
		"category", result.Category,
		"error", result.Error,
	)
	return result, pe
}
