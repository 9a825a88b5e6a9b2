package study

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/improvement"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/metrics"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/simulator"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/surrogate"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
)

const wallStudyYAML = `
log_level: warn
seed: 7
domain:
  - {name: k, low: 10, high: 400}
  - {name: q, low: 1000, high: 10000}
  - {name: L, low: 0.1, high: 1.0}
simulator:
  oracle: wall_conduction
design:
  strategy: ccd
  ccd_alpha: 1
  center_replicates: 6
model:
  variant: polynomial
  polynomial_degree: 2
validation:
  cv_folds: 5
  test_samples: 0
optimization:
  enabled: true
  candidate_count: 500
  constraint_threshold: 10
  constraint_sense: ge
  objective_variable: 2
  objective_sense: minimize
  free_variables: [2]
`

func parse(t *testing.T, text string) *config.Config {
	t.Helper()
	cfg, err := config.ParseConfigYAMLString(text)
	require.NoError(t, err)
	return cfg
}

func TestWallConductionStudyEndToEnd(t *testing.T) {
	cfg := parse(t, wallStudyYAML)
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	var stages []string
	runner, err := NewRunner(cfg,
		WithStudyID("study-wall"),
		WithMetrics(collector),
		WithLogger(logger.Discard()),
		WithProgress(func(s string) { stages = append(stages, s) }),
	)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "study-wall", report.StudyID)
	assert.Equal(t, "wall_conduction", report.Oracle)
	assert.Equal(t, 20, report.Design.Points)
	assert.Equal(t, map[string]int{"factorial": 8, "axial": 6, "center": 6}, report.Design.Roles)

	assert.Equal(t, surrogate.VariantPolynomial, report.Model.Variant)
	assert.Len(t, report.Model.Coefficients, 10)
	assert.Equal(t, 10, report.Model.Rank)
	assert.Equal(t, "1", report.Model.Terms[0])

	require.NotNil(t, report.Validation)
	assert.Nil(t, report.Validation.Test)
	assert.True(t, report.Validation.Training.R2Defined)
	assert.Equal(t, 5, report.Validation.CVFolds)

	opt := report.Optimization
	require.NotNil(t, opt)
	require.Len(t, opt.Best, 3)
	assert.InDelta(t, 205.0, opt.Best[0], 1e-9)
	assert.InDelta(t, 5500.0, opt.Best[1], 1e-9)
	assert.GreaterOrEqual(t, opt.Best[2], 0.1)
	assert.LessOrEqual(t, opt.Best[2], 1.0)
	assert.GreaterOrEqual(t, opt.Predicted, 10.0)
	assert.InDelta(t, 5500*opt.Best[2]/205, opt.Verified, 1e-9)
	assert.InDelta(t, 0, opt.AbsoluteError-math.Abs(opt.Verified-opt.Predicted), 1e-12)
	assert.EqualValues(t, 1, opt.VerificationCalls)

	// 20 design points plus exactly one verification
	assert.EqualValues(t, 21, report.SimulatorCalls)
	assert.Equal(t, 21.0, counterValue(t, reg, metrics.MetricSimulatorCalls))
	assert.Equal(t, []string{StageDesign, StageSimulate, StageFit, StageValidate, StageOptimize, StageCompleted}, stages)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestStudyIsDeterministicUnderSeed(t *testing.T) {
	run := func() *Report {
		r, err := NewRunner(parse(t, wallStudyYAML), WithLogger(logger.Discard()))
		require.NoError(t, err)
		rep, err := r.Run(context.Background())
		require.NoError(t, err)
		return rep
	}
	a, b := run(), run()
	assert.Equal(t, a.Model.Coefficients, b.Model.Coefficients)
	assert.Equal(t, a.Validation.CVQ2, b.Validation.CVQ2)
	assert.Equal(t, a.Optimization.Best, b.Optimization.Best)
	assert.NotEqual(t, a.StudyID, b.StudyID)
}

func TestStudyWithoutSeedIsRepeatable(t *testing.T) {
	text := strings.Replace(wallStudyYAML, "seed: 7\n", "", 1)
	run := func() *Report {
		cfg := parse(t, text)
		require.Equal(t, int64(config.DefaultSeed), cfg.Seed)
		r, err := NewRunner(cfg, WithLogger(logger.Discard()))
		require.NoError(t, err)
		rep, err := r.Run(context.Background())
		require.NoError(t, err)
		return rep
	}
	a, b := run(), run()
	assert.Equal(t, a.Validation.Folds, b.Validation.Folds)
	assert.Equal(t, a.Validation.CVQ2, b.Validation.CVQ2)
	assert.Equal(t, a.Optimization.Best, b.Optimization.Best)
}

func TestStudyWithTestSetCountsTestCalls(t *testing.T) {
	cfg := parse(t, wallStudyYAML)
	cfg.Validation.TestSamples = 8

	var stages []string
	r, err := NewRunner(cfg, WithLogger(logger.Discard()), WithProgress(func(s string) { stages = append(stages, s) }))
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Validation.Test)
	assert.Equal(t, 8, report.Validation.Test.N)
	assert.EqualValues(t, 20+8+1, report.SimulatorCalls)
	assert.Contains(t, stages, StageTestSet)
}

func TestStudyInfeasibleKeepsModelAndSkipsVerification(t *testing.T) {
	cfg := parse(t, wallStudyYAML)
	cfg.Optimization.ConstraintThreshold = 1e6

	r, err := NewRunner(cfg, WithLogger(logger.Discard()))
	require.NoError(t, err)
	report, err := r.Run(context.Background())

	var infeasible *improvement.NoFeasibleDesignError
	require.ErrorAs(t, err, &infeasible)
	require.NotNil(t, report)
	assert.Len(t, report.Model.Coefficients, 10)
	assert.NotNil(t, report.Validation)
	assert.Nil(t, report.Optimization)
	assert.NotEmpty(t, report.OptimizationError)
	assert.EqualValues(t, 20, report.SimulatorCalls)
}

func TestStudySimulationErrorAborts(t *testing.T) {
	boom := errors.New("mesh failed")
	var calls atomic.Int64
	oracle := func(_ context.Context, x []float64) (float64, error) {
		if calls.Add(1) == 5 {
			return 0, boom
		}
		return x[0], nil
	}

	r, err := NewRunner(parse(t, wallStudyYAML), WithOracle("flaky", oracle), WithLogger(logger.Discard()))
	require.NoError(t, err)
	report, err := r.Run(context.Background())

	assert.Nil(t, report)
	var simErr *simulator.SimulationError
	require.ErrorAs(t, err, &simErr)
	assert.Equal(t, "flaky", simErr.Oracle)
	assert.ErrorIs(t, err, boom)
}

func TestStudyRetriesTransientSimulatorFailure(t *testing.T) {
	cfg := parse(t, wallStudyYAML)
	cfg.Simulator.Retry = &config.Retry{MaxRetries: 1, Backoff: config.BackoffConstant}

	var calls atomic.Int64
	oracle := func(ctx context.Context, x []float64) (float64, error) {
		if calls.Add(1) == 5 {
			return 0, errors.New("license server busy")
		}
		return simulator.WallConduction(ctx, x)
	}
	r, err := NewRunner(cfg, WithOracle("wall_conduction", oracle), WithLogger(logger.Discard()))
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 22, report.SimulatorCalls, "the failed attempt is still charged")
	assert.Equal(t, 20, report.Design.Points)
	require.NotNil(t, report.Optimization)
}

func TestStudyTooSmallDesignFailsBeforeSimulating(t *testing.T) {
	cfg := parse(t, wallStudyYAML)
	cfg.Model.PolynomialDegree = 3
	cfg.Design.CenterReplicates = 1

	var calls atomic.Int64
	oracle := func(context.Context, []float64) (float64, error) {
		calls.Add(1)
		return 1, nil
	}
	r, err := NewRunner(cfg, WithOracle("counting", oracle), WithLogger(logger.Discard()))
	require.NoError(t, err)
	_, err = r.Run(context.Background())

	var rank *surrogate.RankDeficiencyError
	require.ErrorAs(t, err, &rank)
	assert.Equal(t, 15, rank.Samples)
	assert.Equal(t, 20, rank.Terms)
	assert.Zero(t, calls.Load())
}

func TestStudyQualityGateStopsBeforeOptimisation(t *testing.T) {
	cfg := parse(t, `
log_level: warn
seed: 3
domain:
  - {name: a, low: -5, high: 5}
  - {name: b, low: -5, high: 5}
simulator: {oracle: sphere}
design: {strategy: lhs, lhs_samples: 30}
model: {variant: polynomial, polynomial_degree: 1}
validation: {cv_folds: 5, min_r2: 0.9}
optimization:
  enabled: true
  constraint_threshold: 10
  objective_variable: 0
  free_variables: [0, 1]
`)
	r, err := NewRunner(cfg, WithLogger(logger.Discard()))
	require.NoError(t, err)
	report, err := r.Run(context.Background())

	var gate *QualityGateError
	require.ErrorAs(t, err, &gate)
	assert.Equal(t, "cv", gate.Kind)
	assert.Less(t, gate.R2, 0.9)
	require.NotNil(t, report)
	require.NotNil(t, report.QualityGate)
	assert.False(t, report.QualityGate.Passed)
	assert.Nil(t, report.Optimization)
	assert.EqualValues(t, 30, report.SimulatorCalls)
}

func TestKrigingStudyOnSphere(t *testing.T) {
	cfg := parse(t, `
log_level: warn
seed: 11
domain:
  - {name: a, low: -2, high: 2}
  - {name: b, low: -2, high: 2}
simulator: {oracle: sphere}
design: {strategy: lhs, lhs_samples: 20}
model: {variant: gaussian_process, kernel_restarts: 3}
validation: {cv_folds: 4, test_samples: 10, min_r2: 0.8}
optimization:
  enabled: true
  candidate_count: 200
  constraint_threshold: 2
  constraint_sense: le
  objective_variable: 0
  objective_sense: maximize
  free_variables: [0, 1]
`)
	r, err := NewRunner(cfg, WithLogger(logger.Discard()))
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, surrogate.VariantKriging, report.Model.Variant)
	require.NotNil(t, report.Model.Hyperparameters)
	assert.Len(t, report.Model.Hyperparameters.LengthScales, 2)
	require.NotNil(t, report.Validation.Test)
	assert.Greater(t, report.Validation.Test.R2, 0.8)
	require.NotNil(t, report.QualityGate)
	assert.Equal(t, "test", report.QualityGate.Kind)
	require.NotNil(t, report.Optimization)
	assert.EqualValues(t, 20+10+1, report.SimulatorCalls)
}

func TestNewRunnerRejectsBadConfig(t *testing.T) {
	_, err := NewRunner(nil)
	require.Error(t, err)

	cfg := parse(t, wallStudyYAML)
	cfg.Simulator.Oracle = "nope"
	_, err = NewRunner(cfg)
	var unknown *simulator.UnknownOracleError
	require.ErrorAs(t, err, &unknown)

	cfg = parse(t, wallStudyYAML)
	cfg.Simulator.Oracle = "branin"
	_, err = NewRunner(cfg)
	var dim *simulator.OracleDimensionError
	require.ErrorAs(t, err, &dim)

	cfg = parse(t, wallStudyYAML)
	cfg.Validation.CVFolds = 1
	_, err = NewRunner(cfg)
	require.Error(t, err)
}

func TestStudyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(parse(t, wallStudyYAML), WithLogger(logger.Discard()))
	require.NoError(t, err)
	_, err = r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
