package surrogate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// Kriging defaults
const (
	DefaultKernelRestarts   = 5
	DefaultKernelNoise      = 1e-6
	DefaultKernelJitter     = 1e-10
	DefaultKernelIterations = 400
)

const (
	// likelihoodPenalty stands in for an infeasible parameter vector so the
	// simplex moves away from it without seeing Inf or NaN
	likelihoodPenalty = 1e25
	// jitterAttempts bounds the diagonal escalation, 10x per attempt
	jitterAttempts = 7
	boundPenalty   = 10.0
)

var (
	logParamMin = math.Log(1e-2)
	logParamMax = math.Log(1e2)
	// random restarts are drawn from the inner part of the bounds
	logStartMin = -3.0
	logStartMax = 3.0
)

// KrigingOptions configures hyperparameter estimation
type KrigingOptions struct {
	Restarts      int
	Noise         float64
	Jitter        float64
	MaxIterations int
	Seed          int64 // restart draws; zero is time-seeded
}

// Hyperparameters are the fitted kernel parameters
type Hyperparameters struct {
	// LengthScales are in standardized input units
	LengthScales     []float64 `json:"length_scales" yaml:"length_scales"`
	SignalVariance   float64   `json:"signal_variance" yaml:"signal_variance"`
	Noise            float64   `json:"noise" yaml:"noise"`
	NegLogLikelihood float64   `json:"neg_log_likelihood" yaml:"neg_log_likelihood"`
	Restart          int       `json:"restart" yaml:"restart"`
}

// Kriging is a Gaussian-process regression model with a constant mean and a
// Matérn 5/2 ARD kernel. Inputs are standardized and responses centred and
// scaled before the marginal likelihood is maximised over the log length
// scales and log signal variance.
type Kriging struct {
	opts KrigingOptions

	fitted   bool
	scaler   *Standardizer
	yMean    float64
	yStd     float64
	zs       [][]float64
	kernel   Matern52
	chol     *mat.Cholesky
	alpha    *mat.VecDense
	hyper    Hyperparameters
	warnings []KernelFitWarning
}

var _ UncertaintyModel = (*Kriging)(nil)

// NewKriging creates an unfitted Kriging model, filling unset options with defaults
func NewKriging(opts KrigingOptions) *Kriging {
	if opts.Restarts <= 0 {
		opts.Restarts = DefaultKernelRestarts
	}
	if opts.Noise <= 0 {
		opts.Noise = DefaultKernelNoise
	}
	if opts.Jitter <= 0 {
		opts.Jitter = DefaultKernelJitter
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultKernelIterations
	}
	return &Kriging{opts: opts}
}

func (g *Kriging) Variant() Variant {
	return VariantKriging
}

func (g *Kriging) Fitted() bool {
	return g.fitted
}

func (g *Kriging) Clone() Model {
	return &Kriging{opts: g.opts}
}

// Options returns the effective options
func (g *Kriging) Options() KrigingOptions {
	return g.opts
}

// Fit estimates the hyperparameters from Restarts Nelder-Mead runs and keeps
// the run with the lowest negative log marginal likelihood. The first run
// starts from unit length scales and unit variance, the rest from seeded
// random points. Runs that stop without converging are kept as warnings.
func (g *Kriging) Fit(train models.TrainingSet) error {
	if err := train.Validate(); err != nil {
		return err
	}

	xs := train.Inputs()
	scaler := FitStandardizer(xs)
	zs := make([][]float64, len(xs))
	for i, x := range xs {
		zs[i] = scaler.Transform(x)
	}

	ys := train.Responses()
	yMean, yStd := meanPopStd(ys)
	yz := make([]float64, len(ys))
	for i, y := range ys {
		yz[i] = (y - yMean) / yStd
	}

	lik := &likelihood{
		zs:     zs,
		y:      mat.NewVecDense(len(yz), yz),
		noise:  g.opts.Noise,
		jitter: g.opts.Jitter,
	}

	k := train.Dim()
	rng := utils.NewRandSource(g.opts.Seed)
	var (
		warnings  []KernelFitWarning
		bestTheta []float64
		bestF     = math.Inf(1)
		bestRun   int
	)
	for r := 0; r < g.opts.Restarts; r++ {
		start := make([]float64, k+1)
		if r > 0 {
			for i := range start {
				start[i] = rng.UniformFloat64(logStartMin, logStartMax)
			}
		}

		theta, f, w := g.minimize(lik, start, r)
		if w != nil {
			warnings = append(warnings, *w)
		}
		if theta != nil && f < bestF {
			bestTheta, bestF, bestRun = theta, f, r
		}
	}
	if bestTheta == nil {
		return &KernelFitError{Restarts: g.opts.Restarts, Warnings: warnings}
	}

	kern := lik.kernel(bestTheta)
	chol, noise, ok := lik.factorize(kern)
	if !ok {
		return fmt.Errorf("surrogate: covariance matrix not positive definite at fitted hyperparameters")
	}
	alpha, err := solve(chol, lik.y)
	if err != nil {
		return fmt.Errorf("surrogate: solve covariance system: %w", err)
	}

	g.scaler = scaler
	g.yMean = yMean
	g.yStd = yStd
	g.zs = zs
	g.kernel = kern
	g.chol = chol
	g.alpha = alpha
	g.hyper = Hyperparameters{
		LengthScales:     append([]float64(nil), kern.LengthScales...),
		SignalVariance:   kern.Variance * yStd * yStd,
		Noise:            noise,
		NegLogLikelihood: bestF,
		Restart:          bestRun,
	}
	g.warnings = warnings
	g.fitted = true
	return nil
}

// minimize runs one restart and returns the clamped optimum and its objective
// value, or a nil theta when the run produced no finite likelihood
func (g *Kriging) minimize(lik *likelihood, start []float64, restart int) ([]float64, float64, *KernelFitWarning) {
	settings := &optimize.Settings{
		MajorIterations: g.opts.MaxIterations,
		FuncEvaluations: 4 * g.opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-8,
			Relative:   1e-8,
			Iterations: 50,
		},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: lik.objective}, start, settings, &optimize.NelderMead{})
	if res == nil {
		reason := "optimizer returned no result"
		if err != nil {
			reason = err.Error()
		}
		return nil, 0, &KernelFitWarning{Restart: restart, Status: optimize.Failure.String(), Likelihood: math.NaN(), Reason: reason}
	}

	theta := clampTheta(res.X)
	f := lik.nll(theta)

	var w *KernelFitWarning
	if err != nil || !converged(res.Status) {
		w = &KernelFitWarning{Restart: restart, Status: res.Status.String(), Likelihood: f}
		if err != nil {
			w.Reason = err.Error()
		}
	}
	if !(f < likelihoodPenalty) {
		if w == nil {
			w = &KernelFitWarning{Restart: restart, Status: res.Status.String(), Likelihood: f}
		}
		w.Reason = "no finite likelihood"
		return nil, 0, w
	}
	return theta, f, w
}

func (g *Kriging) Predict(x []float64) (float64, error) {
	mean, _, err := g.predict(x, false)
	return mean, err
}

// PredictWithUncertainty returns the posterior mean and the variance of the
// latent function at x, in response units. The variance is never negative.
func (g *Kriging) PredictWithUncertainty(x []float64) (float64, float64, error) {
	return g.predict(x, true)
}

func (g *Kriging) predict(x []float64, withVariance bool) (float64, float64, error) {
	if !g.fitted {
		return 0, 0, ErrNotFitted
	}
	if err := checkDim(g.scaler.Dim(), x); err != nil {
		return 0, 0, err
	}

	z := g.scaler.Transform(x)
	kstar := mat.NewVecDense(len(g.zs), nil)
	for i, zi := range g.zs {
		kstar.SetVec(i, g.kernel.Eval(z, zi))
	}
	mean := g.yMean + g.yStd*mat.Dot(kstar, g.alpha)
	if !withVariance {
		return mean, 0, nil
	}

	v, err := solve(g.chol, kstar)
	if err != nil {
		return 0, 0, fmt.Errorf("surrogate: predictive variance: %w", err)
	}
	variance := g.kernel.Variance - mat.Dot(kstar, v)
	if variance < 0 {
		variance = 0
	}
	return mean, variance * g.yStd * g.yStd, nil
}

// Hyperparameters returns the fitted kernel parameters
func (g *Kriging) Hyperparameters() Hyperparameters {
	h := g.hyper
	h.LengthScales = append([]float64(nil), g.hyper.LengthScales...)
	return h
}

// Warnings returns the non-converged restarts of the last fit
func (g *Kriging) Warnings() []KernelFitWarning {
	return append([]KernelFitWarning(nil), g.warnings...)
}

// likelihood evaluates the negative log marginal likelihood of standardized data
type likelihood struct {
	zs     [][]float64
	y      *mat.VecDense
	noise  float64
	jitter float64
}

// kernel decodes theta = [log l_1 .. log l_k, log s2]
func (l *likelihood) kernel(theta []float64) Matern52 {
	k := len(theta) - 1
	ls := make([]float64, k)
	for i := 0; i < k; i++ {
		ls[i] = math.Exp(theta[i])
	}
	return Matern52{LengthScales: ls, Variance: math.Exp(theta[k])}
}

// objective is the unconstrained function handed to Nelder-Mead: the
// likelihood at the clamped point plus a quadratic pull back inside the bounds
func (l *likelihood) objective(theta []float64) float64 {
	c := clampTheta(theta)
	excess := 0.0
	for i := range theta {
		d := theta[i] - c[i]
		excess += d * d
	}
	return l.nll(c) + boundPenalty*excess
}

func (l *likelihood) nll(theta []float64) float64 {
	chol, _, ok := l.factorize(l.kernel(theta))
	if !ok {
		return likelihoodPenalty
	}
	alpha, err := solve(chol, l.y)
	if err != nil {
		return likelihoodPenalty
	}
	n := float64(len(l.zs))
	f := 0.5*mat.Dot(l.y, alpha) + 0.5*chol.LogDet() + 0.5*n*math.Log(2*math.Pi)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return likelihoodPenalty
	}
	return f
}

// factorize builds K + (noise + jitter) I and factorizes it, escalating the
// jitter tenfold on failure. It returns the total diagonal addition used.
func (l *likelihood) factorize(kern Matern52) (*mat.Cholesky, float64, bool) {
	n := len(l.zs)
	base := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			base.SetSym(i, j, kern.Eval(l.zs[i], l.zs[j]))
		}
	}

	jitter := l.jitter
	k := mat.NewSymDense(n, nil)
	for attempt := 0; attempt < jitterAttempts; attempt++ {
		k.CopySym(base)
		for i := 0; i < n; i++ {
			k.SetSym(i, i, base.At(i, i)+l.noise+jitter)
		}
		var chol mat.Cholesky
		if chol.Factorize(k) {
			return &chol, l.noise + jitter, true
		}
		jitter *= 10
	}
	return nil, 0, false
}

// solve returns K^-1 b, accepting ill-conditioned but factorized systems
func solve(chol *mat.Cholesky, b mat.Vector) (*mat.VecDense, error) {
	var dst mat.VecDense
	if err := chol.SolveVecTo(&dst, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	return &dst, nil
}

func clampTheta(theta []float64) []float64 {
	out := make([]float64, len(theta))
	for i, v := range theta {
		out[i] = utils.ClampFloat64(v, logParamMin, logParamMax)
	}
	return out
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.MethodConverge, optimize.FunctionConvergence,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.FunctionThreshold:
		return true
	}
	return false
}
