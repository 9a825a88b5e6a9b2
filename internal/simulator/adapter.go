package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/metrics"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
)

// Oracle is the expensive black-box function behind the adapter
type Oracle func(ctx context.Context, x []float64) (float64, error)

// Evaluation is one entry of the adapter's call history
type Evaluation struct {
	Call     int64         `json:"call"`
	X        []float64     `json:"x"`
	Response float64       `json:"response"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Adapter is the only component allowed to invoke the oracle.
// It owns the call budget counter for one workflow.
type Adapter struct {
	name    string
	domain  models.Domain
	oracle  Oracle
	strict  bool
	retry   RetryPolicy
	calls   atomic.Int64
	mu      sync.Mutex
	history []Evaluation
	metrics *metrics.Collector
	logger  *slog.Logger
}

// Option configures an Adapter
type Option func(*Adapter)

// WithName sets the oracle name used in errors, logs and metrics
func WithName(name string) Option {
	return func(a *Adapter) { a.name = name }
}

// WithStrictDomain toggles rejection of out-of-domain points before invocation
func WithStrictDomain(strict bool) Option {
	return func(a *Adapter) { a.strict = strict }
}

// WithRetry re-invokes the oracle after failures according to p
func WithRetry(p RetryPolicy) Option {
	return func(a *Adapter) { a.retry = p }
}

// WithMetrics attaches a metrics collector
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Adapter) { a.metrics = c }
}

// WithLogger sets the adapter logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter wraps oracle for the given domain. Strict domain checking is on by default.
func NewAdapter(domain models.Domain, oracle Oracle, opts ...Option) *Adapter {
	a := &Adapter{
		name:   "oracle",
		domain: domain,
		oracle: oracle,
		strict: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrDefault(a.logger).With("component", "simulator", "oracle", a.name)
	return a
}

// Name returns the oracle name
func (a *Adapter) Name() string {
	return a.name
}

// Domain returns the adapter's domain
func (a *Adapter) Domain() models.Domain {
	return a.domain
}

// Calls returns the number of oracle invocations so far
func (a *Adapter) Calls() int64 {
	return a.calls.Load()
}

// History returns a copy of the call history in call order
func (a *Adapter) History() []Evaluation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Evaluation, len(a.history))
	copy(out, a.history)
	return out
}

// Evaluate invokes the oracle at x, retrying failures when a retry policy
// is set. Every invocation increments the call counter, whether it succeeds
// or fails, so a retried point costs one call per attempt.
// Points rejected by the strict domain check, or requests whose context is
// already done, never reach the oracle and are not counted.
func (a *Adapter) Evaluate(ctx context.Context, x []float64) (float64, error) {
	if len(x) != a.domain.Dim() {
		return 0, a.domain.Check(x)
	}
	if err := a.domain.Check(x); err != nil {
		if a.strict {
			return 0, err
		}
		a.logger.Warn("evaluating outside the domain; surrogate guarantees do not hold", "error", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("simulator %s: %w", a.name, err)
	}

	point := make([]float64, len(x))
	copy(point, x)

	for retry := 1; ; retry++ {
		y, err := a.evaluateOnce(ctx, point)
		if err == nil {
			return y, nil
		}
		if !a.retry.ShouldRetry(retry, err) {
			return 0, err
		}
		delay := a.retry.Delay(retry)
		a.logger.Warn("retrying simulation", "retry", retry, "max_retries", a.retry.MaxRetries, "delay", delay)
		if wait(ctx, delay) != nil {
			return 0, err
		}
	}
}

// evaluateOnce performs and records a single oracle invocation
func (a *Adapter) evaluateOnce(ctx context.Context, point []float64) (float64, error) {
	call := a.calls.Add(1)
	start := time.Now()
	y, err := a.invoke(ctx, point)
	elapsed := time.Since(start)

	if err == nil && (math.IsNaN(y) || math.IsInf(y, 0)) {
		err = ErrNonFinite
	}

	ev := Evaluation{Call: call, X: point, Response: y, Duration: elapsed}
	if err != nil {
		ev.Error = err.Error()
		err = &SimulationError{Oracle: a.name, Call: call, X: point, Cause: err}
	}

	a.mu.Lock()
	a.history = append(a.history, ev)
	a.mu.Unlock()

	a.metrics.ObserveSimulatorCall(a.name, elapsed, err)
	if err != nil {
		a.logger.Error("simulation failed", "call", call, "x", point, "error", err)
		return 0, err
	}
	a.logger.Debug("simulation completed", "call", call, "x", point, "response", y, "duration", elapsed)
	return y, nil
}

// invoke calls the oracle and converts a panic into an error
func (a *Adapter) invoke(ctx context.Context, x []float64) (y float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panic: %v", r)
		}
	}()
	return a.oracle(ctx, x)
}

// EvaluateDesign evaluates points in order and returns the training set.
// The first failure aborts the whole batch.
func (a *Adapter) EvaluateDesign(ctx context.Context, points []models.DesignPoint) (models.TrainingSet, error) {
	ts := make(models.TrainingSet, 0, len(points))
	for i, p := range points {
		y, err := a.Evaluate(ctx, p.X())
		if err != nil {
			return nil, fmt.Errorf("design point %d of %d: %w", i+1, len(points), err)
		}
		ts = append(ts, models.Sample{Point: p, Response: y})
	}
	return ts, nil
}
