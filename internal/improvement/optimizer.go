// Package improvement searches a fitted surrogate for the best design that
// satisfies a response constraint and verifies the winner on the simulator.
package improvement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/metrics"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/simulator"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/surrogate"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// Optimizer runs the surrogate search and the single verification call
type Optimizer struct {
	problem     *Problem
	explorer    CandidateExplorer
	selector    SelectionStrategy
	parallelism int
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithExplorer replaces the candidate explorer chosen by the problem strategy
func WithExplorer(e CandidateExplorer) Option {
	return func(o *Optimizer) { o.explorer = e }
}

// WithSelection sets the selection strategy
func WithSelection(s SelectionStrategy) Option {
	return func(o *Optimizer) { o.selector = s }
}

// WithParallelism bounds concurrent surrogate evaluation
func WithParallelism(n int) Option {
	return func(o *Optimizer) { o.parallelism = n }
}

// WithMetrics attaches a metrics collector
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Optimizer) { o.metrics = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// SearchResult is the outcome of the surrogate-only phase
type SearchResult struct {
	Candidates []*Candidate
	Feasible   int
	Best       *Candidate
}

// OptimizationResult is the verified outcome of an optimisation
type OptimizationResult struct {
	Best              []float64 `json:"best" yaml:"best"`
	Predicted         float64   `json:"predicted" yaml:"predicted"`
	PredictedStdDev   float64   `json:"predicted_std_dev,omitempty" yaml:"predicted_std_dev,omitempty"`
	Verified          float64   `json:"verified" yaml:"verified"`
	AbsoluteError     float64   `json:"absolute_error" yaml:"absolute_error"`
	VerifiedFeasible  bool      `json:"verified_feasible" yaml:"verified_feasible"`
	Candidates        int       `json:"candidates" yaml:"candidates"`
	Feasible          int       `json:"feasible" yaml:"feasible"`
	Strategy          string    `json:"strategy" yaml:"strategy"`
	VerificationCalls int64     `json:"verification_calls" yaml:"verification_calls"`
	SimulatorCalls    int64     `json:"simulator_calls" yaml:"simulator_calls"`
}

// NewOptimizer validates problem and builds an optimizer. rng seeds the
// default LHS explorer.
func NewOptimizer(problem *Problem, rng *utils.RandSource, opts ...Option) (*Optimizer, error) {
	if problem == nil {
		return nil, &InvalidProblemError{Reason: "problem is required"}
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{
		problem:     problem,
		selector:    &ExtremalStrategy{},
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.explorer == nil {
		e, err := NewExplorer(problem.Strategy, rng)
		if err != nil {
			return nil, err
		}
		o.explorer = e
	}
	if o.parallelism < 1 {
		o.parallelism = 1
	}
	o.logger = logger.OrDefault(o.logger)
	return o, nil
}

// Search evaluates every candidate on the surrogate and selects the winner.
// It never calls the simulator.
func (o *Optimizer) Search(ctx context.Context, model surrogate.Model) (*SearchResult, error) {
	if !model.Fitted() {
		return nil, surrogate.ErrNotFitted
	}
	xs, err := o.explorer.Generate(o.problem)
	if err != nil {
		return nil, err
	}

	candidates, err := o.evaluate(ctx, model, xs)
	if err != nil {
		return nil, err
	}
	o.metrics.AddCandidates(len(candidates))

	res := &SearchResult{Candidates: candidates}
	closest := math.NaN()
	for _, c := range candidates {
		if c.Feasible {
			res.Feasible++
			continue
		}
		if math.IsNaN(closest) || o.problem.Constraint.Violation(c.Bound) < o.problem.Constraint.Violation(closest) {
			closest = c.Bound
		}
	}
	if res.Feasible == 0 {
		return res, &NoFeasibleDesignError{
			Candidates:    len(candidates),
			Constraint:    o.problem.Constraint,
			BestPredicted: closest,
		}
	}

	best, err := o.selector.SelectBest(candidates, o.problem.Objective)
	if err != nil {
		return nil, err
	}
	res.Best = best
	return res, nil
}

// Optimize searches the surrogate, then evaluates the winner exactly once on
// the simulator. When no candidate is feasible the simulator is not called
// and a NoFeasibleDesignError is returned.
func (o *Optimizer) Optimize(ctx context.Context, model surrogate.Model, adapter *simulator.Adapter) (*OptimizationResult, error) {
	search, err := o.Search(ctx, model)
	if err != nil {
		var infeasible *NoFeasibleDesignError
		if errors.As(err, &infeasible) {
			o.metrics.ObserveOptimization(metrics.OutcomeInfeasible)
			o.logger.Warn("no feasible design on surrogate", "candidates", len(search.Candidates), "constraint", o.problem.Constraint.String())
		} else {
			o.metrics.ObserveOptimization(metrics.OutcomeFailed)
		}
		return nil, err
	}

	best := search.Best
	if um, ok := model.(surrogate.UncertaintyModel); ok && best.StdDev == 0 {
		if _, variance, err := um.PredictWithUncertainty(best.X); err == nil {
			best.StdDev = math.Sqrt(variance)
		}
	}
	o.logger.Info("surrogate search complete",
		"candidates", len(search.Candidates),
		"feasible", search.Feasible,
		"best", best.X,
		"predicted", best.Predicted)

	before := adapter.Calls()
	verified, err := adapter.Evaluate(ctx, best.X)
	if err != nil {
		o.metrics.ObserveOptimization(metrics.OutcomeFailed)
		return nil, fmt.Errorf("verify optimum: %w", err)
	}
	after := adapter.Calls()
	o.metrics.ObserveOptimization(metrics.OutcomeVerified)

	result := &OptimizationResult{
		Best:              append([]float64(nil), best.X...),
		Predicted:         best.Predicted,
		PredictedStdDev:   best.StdDev,
		Verified:          verified,
		AbsoluteError:     math.Abs(verified - best.Predicted),
		VerifiedFeasible:  o.problem.Constraint.Satisfied(verified),
		Candidates:        len(search.Candidates),
		Feasible:          search.Feasible,
		Strategy:          o.explorer.Name(),
		VerificationCalls: after - before,
		SimulatorCalls:    after,
	}
	if !result.VerifiedFeasible {
		o.logger.Warn("verified optimum violates constraint",
			"verified", verified,
			"predicted", best.Predicted,
			"constraint", o.problem.Constraint.String())
	}
	return result, nil
}

// evaluate predicts every candidate, in parallel chunks when configured;
// results are stored by index so the order never depends on scheduling
func (o *Optimizer) evaluate(ctx context.Context, model surrogate.Model, xs [][]float64) ([]*Candidate, error) {
	out := make([]*Candidate, len(xs))
	if len(xs) == 0 {
		return out, nil
	}
	um, withVariance := model.(surrogate.UncertaintyModel)
	z := o.problem.ConfidenceZ
	withVariance = withVariance && z > 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	chunk := (len(xs) + o.parallelism - 1) / o.parallelism
	for start := 0; start < len(xs); start += chunk {
		start := start
		end := min(start+chunk, len(xs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := &Candidate{Index: i, X: xs[i]}
				if withVariance {
					mean, variance, err := um.PredictWithUncertainty(xs[i])
					if err != nil {
						return fmt.Errorf("candidate %d: %w", i, err)
					}
					c.Predicted = mean
					c.StdDev = math.Sqrt(variance)
				} else {
					y, err := model.Predict(xs[i])
					if err != nil {
						return fmt.Errorf("candidate %d: %w", i, err)
					}
					c.Predicted = y
				}
				c.Bound = o.problem.Constraint.Bound(c.Predicted, c.StdDev, z)
				c.Feasible = o.problem.Constraint.Satisfied(c.Bound)
				out[i] = c
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
