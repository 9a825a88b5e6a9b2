// Package surrogated serves surrogate studies over HTTP and gRPC. Each study
// runs in its own goroutine and owns its adapter, model and training data.
package surrogated

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/metrics"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/study"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
)

// StudyExecutor manages asynchronous study execution and per-study cancellation
type StudyExecutor struct {
	store    *StudyStore
	metrics  *metrics.Collector
	notifier *Notifier
	limiter  *SubmitLimiter
	logger   *slog.Logger
	runOpts  []study.Option

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// ExecutorOption configures a StudyExecutor
type ExecutorOption func(*StudyExecutor)

// WithExecutorMetrics attaches the collector shared by every study
func WithExecutorMetrics(c *metrics.Collector) ExecutorOption {
	return func(e *StudyExecutor) { e.metrics = c }
}

// WithNotifier enables completion callbacks
func WithNotifier(n *Notifier) ExecutorOption {
	return func(e *StudyExecutor) { e.notifier = n }
}

// WithSubmitLimiter throttles submissions per client; see Admit
func WithSubmitLimiter(l *SubmitLimiter) ExecutorOption {
	return func(e *StudyExecutor) { e.limiter = l }
}

// WithRunnerOptions appends options to every study runner, for example an
// external oracle registered with study.WithOracle
func WithRunnerOptions(opts ...study.Option) ExecutorOption {
	return func(e *StudyExecutor) { e.runOpts = append(e.runOpts, opts...) }
}

// WithExecutorLogger sets the logger
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *StudyExecutor) { e.logger = l }
}

// Admit charges one submission to client against the submit limiter
func (e *StudyExecutor) Admit(client string) error {
	return e.limiter.Allow(client)
}

func NewStudyExecutor(store *StudyStore, opts ...ExecutorOption) *StudyExecutor {
	e := &StudyExecutor{
		store:   store,
		cancels: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrDefault(e.logger)
	return e
}

// Submit registers a study and starts it
func (e *StudyExecutor) Submit(id string, cfg *config.Config, cb Callback) (StudyRecord, error) {
	rec, err := e.store.Create(id, cfg, cb)
	if err != nil {
		return StudyRecord{}, err
	}
	return e.Start(rec.ID)
}

// Start begins executing a pending study asynchronously and returns its
// running state. Starting a running study is a no-op.
func (e *StudyExecutor) Start(id string) (StudyRecord, error) {
	if id == "" {
		return StudyRecord{}, ErrStudyIDMissing
	}
	updated, started, err := e.store.MarkRunning(id)
	if err != nil {
		return StudyRecord{}, err
	}
	if !started {
		return updated, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[id] = cancel
	e.mu.Unlock()
	// A Cancel between MarkRunning and registering the cancel func found nothing to stop
	if rec, ok := e.store.Get(id); ok && rec.Status.Terminal() {
		cancel()
	}

	e.wg.Add(1)
	go e.runStudy(ctx, updated)
	return updated, nil
}

// Cancel stops a pending or running study and marks it cancelled
func (e *StudyExecutor) Cancel(id string) (StudyRecord, error) {
	if id == "" {
		return StudyRecord{}, ErrStudyIDMissing
	}

	updated, err := e.store.SetStatus(id, StatusCancelled, "")
	if err != nil {
		return StudyRecord{}, err
	}

	e.mu.Lock()
	cancel, ok := e.cancels[id]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	e.metrics.ObserveStudy(string(StatusCancelled))
	e.logger.Info("study cancelled", "study_id", id)
	return updated, nil
}

// Shutdown cancels every running study and waits for them to stop
func (e *StudyExecutor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *StudyExecutor) cleanup(id string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[id]; ok {
		cancel()
		delete(e.cancels, id)
	}
	e.mu.Unlock()
}

func (e *StudyExecutor) runStudy(ctx context.Context, rec StudyRecord) {
	defer e.wg.Done()
	defer e.cleanup(rec.ID)

	log := e.logger.With("study_id", rec.ID)
	opts := append([]study.Option{
		study.WithStudyID(rec.ID),
		study.WithMetrics(e.metrics),
		study.WithLogger(log),
		study.WithProgress(func(stage string) { e.store.SetStage(rec.ID, stage) }),
	}, e.runOpts...)
	runner, err := study.NewRunner(rec.Config, opts...)
	if err != nil {
		e.finish(rec.ID, StatusFailed, fmt.Sprintf("invalid study: %v", err))
		return
	}

	log.Info("starting study", "oracle", rec.Config.Simulator.Oracle, "variant", rec.Config.Model.Variant)
	report, err := runner.Run(ctx)
	if report != nil {
		if setErr := e.store.SetReport(rec.ID, report); setErr != nil {
			log.Error("failed to store report", "error", setErr)
		}
	}

	switch {
	case ctx.Err() != nil:
		// Cancel has usually recorded the terminal state already; Shutdown has not
		if _, err := e.store.SetStatus(rec.ID, StatusCancelled, "study interrupted"); err == nil {
			e.metrics.ObserveStudy(string(StatusCancelled))
		}
		log.Info("study stopped after cancellation")
		e.notify(rec.ID)
	case err != nil:
		log.Error("study failed", "error", err)
		e.finish(rec.ID, StatusFailed, err.Error())
	default:
		log.Info("study completed", "simulator_calls", report.SimulatorCalls)
		e.finish(rec.ID, StatusCompleted, "")
	}
}

func (e *StudyExecutor) finish(id string, status Status, errMsg string) {
	if _, err := e.store.SetStatus(id, status, errMsg); err != nil {
		if !errors.Is(err, ErrStudyTerminal) {
			e.logger.Error("failed to set final status", "study_id", id, "status", status, "error", err)
		}
		return
	}
	e.metrics.ObserveStudy(string(status))
	e.notify(id)
}

func (e *StudyExecutor) notify(id string) {
	rec, ok := e.store.Get(id)
	if !ok || e.notifier == nil {
		return
	}
	e.notifier.Notify(rec)
}
