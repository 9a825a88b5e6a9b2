package validation

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/surrogate"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// DefaultFolds is the cross-validation fold count when none is configured
const DefaultFolds = 5

// Validator runs test-set and cross-validation checks
type Validator struct {
	Folds int
	// Seed fixes the fold partition. Zero draws a time-based seed, so callers
	// wanting repeatable CV must set it; study runs pass the configured seed.
	Seed int64
	// Parallelism bounds concurrent fold refits; values below 1 run serially
	Parallelism int
}

// FoldResult is the outcome of one cross-validation fold
type FoldResult struct {
	Fold      int     `json:"fold" yaml:"fold"`
	Train     int     `json:"train" yaml:"train"`
	Held      int     `json:"held" yaml:"held"`
	R2        float64 `json:"r2" yaml:"r2"`
	R2Defined bool    `json:"r2_defined" yaml:"r2_defined"`
	Error     string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report collects every validation measure of one fitted model
type Report struct {
	Training    Metrics      `json:"training" yaml:"training"`
	Test        *Metrics     `json:"test,omitempty" yaml:"test,omitempty"`
	CVFolds     int          `json:"cv_folds" yaml:"cv_folds"`
	CVR2        float64      `json:"cv_r2" yaml:"cv_r2"`
	CVQ2        float64      `json:"cv_q2" yaml:"cv_q2"`
	CVDefined   bool         `json:"cv_defined" yaml:"cv_defined"`
	FailedFolds int          `json:"failed_folds" yaml:"failed_folds"`
	Folds       []FoldResult `json:"folds,omitempty" yaml:"folds,omitempty"`
}

// PrimaryR2 is the score the quality gate uses: the test-set R2 when a test
// set was given, the pooled cross-validated Q2 otherwise
func (r *Report) PrimaryR2() (float64, string, bool) {
	if r.Test != nil {
		return r.Test.R2, "test", r.Test.R2Defined
	}
	return r.CVQ2, "cv", r.CVDefined
}

// Passes reports whether the primary R2 reaches minR2. A minR2 of zero or
// less disables the gate; an undefined R2 never passes an enabled gate.
func (r *Report) Passes(minR2 float64) bool {
	if minR2 <= 0 {
		return true
	}
	r2, _, ok := r.PrimaryR2()
	return ok && r2 >= minR2
}

// Validate scores model, which must already be fitted on train, against test
// and by k-fold cross-validation on train. The model itself is never refitted:
// each fold fits a fresh Clone.
func (v *Validator) Validate(ctx context.Context, model surrogate.Model, train, test models.TrainingSet) (*Report, error) {
	if !model.Fitted() {
		return nil, surrogate.ErrNotFitted
	}

	trainPred, err := surrogate.PredictBatch(model, train.Inputs())
	if err != nil {
		return nil, fmt.Errorf("training predictions: %w", err)
	}
	report := &Report{
		Training: Compute(train.Responses(), trainPred),
		CVR2:     math.NaN(),
		CVQ2:     math.NaN(),
	}

	if len(test) > 0 {
		pred, err := surrogate.PredictBatch(model, test.Inputs())
		if err != nil {
			return nil, fmt.Errorf("test predictions: %w", err)
		}
		m := Compute(test.Responses(), pred)
		report.Test = &m
	}

	if err := v.crossValidate(ctx, model, train, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Assign returns the fold of every sample: a seeded shuffle followed by
// round-robin assignment, so fold sizes differ by at most one
func Assign(n, folds int, seed int64) []int {
	perm := utils.NewRandSource(seed).Perm(n)
	out := make([]int, n)
	for i, idx := range perm {
		out[idx] = i % folds
	}
	return out
}

type foldOutcome struct {
	held      []int
	predicted []float64
	err       error
}

func (v *Validator) crossValidate(ctx context.Context, model surrogate.Model, train models.TrainingSet, report *Report) error {
	folds := v.Folds
	if folds <= 0 {
		folds = DefaultFolds
	}
	if folds > len(train) {
		folds = len(train)
	}
	if folds < 2 {
		return nil
	}
	report.CVFolds = folds

	assign := Assign(len(train), folds, v.Seed)
	outcomes := make([]foldOutcome, folds)

	g, gctx := errgroup.WithContext(ctx)
	if v.Parallelism > 0 {
		g.SetLimit(v.Parallelism)
	} else {
		g.SetLimit(1)
	}
	for f := 0; f < folds; f++ {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[f] = runFold(model, train, assign, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var (
		allActual []float64
		allPred   []float64
		r2Sum     float64
		r2Count   int
		lastErr   error
	)
	for f, o := range outcomes {
		res := FoldResult{Fold: f, Held: len(o.held), Train: len(train) - len(o.held), R2: math.NaN()}
		if o.err != nil {
			res.Error = o.err.Error()
			report.FailedFolds++
			lastErr = o.err
			report.Folds = append(report.Folds, res)
			continue
		}
		actual := make([]float64, len(o.held))
		for i, idx := range o.held {
			actual[i] = train[idx].Response
		}
		m := Compute(actual, o.predicted)
		res.R2, res.R2Defined = m.R2, m.R2Defined
		if m.R2Defined {
			r2Sum += m.R2
			r2Count++
		}
		allActual = append(allActual, actual...)
		allPred = append(allPred, o.predicted...)
		report.Folds = append(report.Folds, res)
	}

	if report.FailedFolds == folds {
		return &CrossValidationError{Folds: folds, Cause: lastErr}
	}
	if r2Count > 0 {
		report.CVR2 = r2Sum / float64(r2Count)
	}
	report.CVQ2, report.CVDefined = pooledQ2(allActual, allPred)
	return nil
}

func runFold(model surrogate.Model, train models.TrainingSet, assign []int, fold int) foldOutcome {
	var trainIdx, held []int
	for i, f := range assign {
		if f == fold {
			held = append(held, i)
		} else {
			trainIdx = append(trainIdx, i)
		}
	}

	m := model.Clone()
	if err := m.Fit(train.Subset(trainIdx)); err != nil {
		return foldOutcome{held: held, err: err}
	}
	pred, err := surrogate.PredictBatch(m, train.Subset(held).Inputs())
	if err != nil {
		return foldOutcome{held: held, err: err}
	}
	return foldOutcome{held: held, predicted: pred}
}

// CrossValidationError is returned when every fold failed to refit
type CrossValidationError struct {
	Folds int
	Cause error
}

func (e *CrossValidationError) Error() string {
	return fmt.Sprintf("cross-validation: all %d folds failed: %v", e.Folds, e.Cause)
}

func (e *CrossValidationError) Unwrap() error {
	return e.Cause
}
