// Package study runs one complete surrogate study: design, simulation,
// fitting, validation, the quality gate and the verified optimisation.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/design"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/improvement"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/metrics"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/simulator"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/surrogate"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/validation"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// Stage names reported through the progress callback
const (
	StageDesign    = "design"
	StageSimulate  = "simulate"
	StageTestSet   = "test_set"
	StageFit       = "fit"
	StageValidate  = "validate"
	StageOptimize  = "optimize"
	StageCompleted = "completed"
)

// Runner executes one study configuration
type Runner struct {
	cfg        *config.Config
	studyID    string
	oracleName string
	oracle     simulator.Oracle
	metrics    *metrics.Collector
	logger     *slog.Logger
	progress   func(stage string)
}

// Option configures a Runner
type Option func(*Runner)

// WithStudyID sets the study id; a new one is generated otherwise
func WithStudyID(id string) Option {
	return func(r *Runner) { r.studyID = id }
}

// WithOracle replaces the built-in oracle named in the configuration
func WithOracle(name string, fn simulator.Oracle) Option {
	return func(r *Runner) {
		r.oracleName = name
		r.oracle = fn
	}
}

// WithMetrics attaches a metrics collector
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithProgress registers a callback invoked as each stage starts
func WithProgress(fn func(stage string)) Option {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner validates cfg and resolves its oracle
func NewRunner(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("study configuration is required")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid study configuration: %w", err)
	}

	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.studyID == "" {
		r.studyID = utils.GenerateStudyID()
	}

	if r.oracle == nil {
		spec, err := simulator.Lookup(cfg.Simulator.Oracle)
		if err != nil {
			return nil, err
		}
		if err := spec.CheckDim(len(cfg.Domain)); err != nil {
			return nil, err
		}
		r.oracleName = spec.Name
		r.oracle = spec.Fn
	}

	r.logger = logger.OrDefault(r.logger).With("study_id", r.studyID)
	return r, nil
}

// StudyID returns the id stamped on the report
func (r *Runner) StudyID() string {
	return r.studyID
}

// Run executes the study. A returned error is fatal unless it is a
// NoFeasibleDesignError or a QualityGateError; in those cases the partial
// report is returned alongside it.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	cfg := r.cfg
	domain := cfg.DomainModel()
	start := time.Now()

	rng := utils.NewRandSource(cfg.Seed)
	designRng := rng.Child()
	testRng := rng.Child()
	candidateRng := rng.Child()
	noiseRng := rng.Child()

	oracle := r.oracle
	if cfg.Simulator.NoiseStdDev > 0 {
		oracle = simulator.WithNoise(oracle, noiseRng, cfg.Simulator.NoiseStdDev)
	}
	adapter := simulator.NewAdapter(domain, oracle,
		simulator.WithName(r.oracleName),
		simulator.WithStrictDomain(cfg.Simulator.Strict()),
		simulator.WithRetry(simulator.RetryPolicyFromConfig(cfg.Simulator.Retry)),
		simulator.WithMetrics(r.metrics),
		simulator.WithLogger(r.logger),
	)

	report := &Report{
		StudyID:   r.studyID,
		Oracle:    r.oracleName,
		Domain:    append([]models.Variable(nil), cfg.Domain...),
		StartedAt: start,
	}
	finish := func() {
		report.SimulatorCalls = adapter.Calls()
		report.FinishedAt = time.Now()
		report.Duration = report.FinishedAt.Sub(start).String()
	}

	// Design
	r.stage(StageDesign)
	gen, err := design.New(cfg.Design, designRng)
	if err != nil {
		return nil, err
	}
	points, err := gen.Generate(domain)
	if err != nil {
		return nil, fmt.Errorf("generate design: %w", err)
	}
	report.Design = summarizeDesign(gen.Name(), points)
	if cfg.Model.Variant == config.VariantPolynomial {
		if terms := design.TermCount(domain.Dim(), cfg.Model.PolynomialDegree); len(points) < terms {
			return nil, &surrogate.RankDeficiencyError{Samples: len(points), Terms: terms, Rank: len(points), Degree: cfg.Model.PolynomialDegree}
		}
	}
	r.logger.Info("design generated", "strategy", gen.Name(), "points", len(points))

	// Training data
	r.stage(StageSimulate)
	train, err := adapter.EvaluateDesign(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("simulate training design: %w", err)
	}

	var test models.TrainingSet
	if n := cfg.Validation.TestSamples; n > 0 {
		r.stage(StageTestSet)
		testPoints, err := (&design.LHS{Samples: n, Rand: testRng}).Generate(domain)
		if err != nil {
			return nil, fmt.Errorf("generate test set: %w", err)
		}
		test, err = adapter.EvaluateDesign(ctx, testPoints)
		if err != nil {
			return nil, fmt.Errorf("simulate test set: %w", err)
		}
	}

	// Fit
	r.stage(StageFit)
	model, err := surrogate.New(cfg.Model, cfg.Seed)
	if err != nil {
		return nil, err
	}
	fitStart := time.Now()
	err = model.Fit(train)
	r.metrics.ObserveFit(string(model.Variant()), time.Since(fitStart), err)
	if err != nil {
		return nil, fmt.Errorf("fit %s surrogate: %w", model.Variant(), err)
	}
	if g, ok := model.(*surrogate.Kriging); ok {
		warnings := g.Warnings()
		r.metrics.AddKernelFitWarnings(len(warnings))
		for _, w := range warnings {
			report.Warnings = append(report.Warnings, w.String())
			r.logger.Warn("kernel fit warning", "restart", w.Restart, "status", w.Status)
		}
	}
	report.Model = surrogate.Summarize(model, domain.Names())
	r.logger.Info("surrogate fitted", "variant", model.Variant(), "samples", len(train), "duration", time.Since(fitStart))

	// Validate
	r.stage(StageValidate)
	validator := &validation.Validator{Folds: cfg.Validation.CVFolds, Seed: cfg.Seed}
	vr, err := validator.Validate(ctx, model, train, test)
	if err != nil {
		return nil, fmt.Errorf("validate surrogate: %w", err)
	}
	report.Validation = vr
	if vr.Test != nil && vr.Test.R2Defined {
		r.metrics.SetValidationR2(string(model.Variant()), "test", vr.Test.R2)
	}
	if vr.CVDefined {
		r.metrics.SetValidationR2(string(model.Variant()), "cv", vr.CVQ2)
	}
	if vr.FailedFolds > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d of %d cross-validation folds failed to refit", vr.FailedFolds, vr.CVFolds))
	}

	if minR2 := cfg.Validation.MinR2; minR2 > 0 {
		r2, kind, defined := vr.PrimaryR2()
		report.QualityGate = &GateResult{MinR2: minR2, R2: r2, Kind: kind, Passed: vr.Passes(minR2)}
		if !report.QualityGate.Passed {
			finish()
			r.logger.Warn("quality gate failed", "kind", kind, "r2", r2, "min_r2", minR2, "defined", defined)
			return report, &QualityGateError{R2: r2, MinR2: minR2, Kind: kind, Defined: defined}
		}
	}

	// Optimise
	if opt := cfg.Optimization; opt != nil && opt.Enabled {
		r.stage(StageOptimize)
		problem, err := improvement.ProblemFromConfig(domain, opt)
		if err != nil {
			return nil, err
		}
		optimizer, err := improvement.NewOptimizer(problem, candidateRng,
			improvement.WithParallelism(opt.Parallelism),
			improvement.WithMetrics(r.metrics),
			improvement.WithLogger(r.logger),
		)
		if err != nil {
			return nil, err
		}
		res, err := optimizer.Optimize(ctx, model, adapter)
		if err != nil {
			var infeasible *improvement.NoFeasibleDesignError
			if errors.As(err, &infeasible) {
				report.OptimizationError = err.Error()
				finish()
				return report, err
			}
			return nil, fmt.Errorf("optimize: %w", err)
		}
		report.Optimization = res
		if !res.VerifiedFeasible {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("verified response %g violates %s", res.Verified, problem.Constraint.String()))
		}
	}

	r.stage(StageCompleted)
	finish()
	r.logger.Info("study completed", "simulator_calls", report.SimulatorCalls, "duration", report.Duration)
	return report, nil
}

func (r *Runner) stage(name string) {
	r.logger.Debug("stage started", "stage", name)
	if r.progress != nil {
		r.progress(name)
	}
}

func summarizeDesign(strategy string, points []models.DesignPoint) DesignSummary {
	s := DesignSummary{Strategy: strategy, Points: len(points), Roles: map[string]int{}}
	for _, p := range points {
		s.Roles[string(p.Role())]++
	}
	return s
}
