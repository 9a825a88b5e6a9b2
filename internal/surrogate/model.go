// Package surrogate implements the cheap approximations fitted to simulator
// samples: a polynomial response surface solved by least squares and a
// Gaussian-process (Kriging) model that also reports predictive variance.
package surrogate

import (
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
)

// Variant identifies a surrogate model family
type Variant string

const (
	VariantPolynomial Variant = config.VariantPolynomial
	VariantKriging    Variant = config.VariantGaussianProcess
)

// ErrNotFitted is returned by Predict before a successful Fit
var ErrNotFitted = errors.New("surrogate: model is not fitted")

// Model is a fitted-or-unfitted surrogate.
// Predict is safe for concurrent use once Fit has returned.
type Model interface {
	Variant() Variant
	// Fit replaces any previous fit. On error the previous state is kept.
	Fit(train models.TrainingSet) error
	Predict(x []float64) (float64, error)
	Fitted() bool
	// Clone returns an unfitted model with the same settings
	Clone() Model
}

// UncertaintyModel is a Model that also reports the posterior variance of its
// prediction. Only Kriging implements it; callers branch with a type assertion.
type UncertaintyModel interface {
	Model
	PredictWithUncertainty(x []float64) (mean, variance float64, err error)
}

// DimensionError reports an input of the wrong length
type DimensionError struct {
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("surrogate: input dimension %d, model expects %d", e.Got, e.Expected)
}

// PredictBatch predicts every row of xs, stopping at the first error
func PredictBatch(m Model, xs [][]float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		y, err := m.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		out[i] = y
	}
	return out, nil
}

// New creates an unfitted model from its configuration.
// seed drives the Kriging restart starts.
func New(cfg config.Model, seed int64) (Model, error) {
	switch Variant(cfg.Variant) {
	case VariantPolynomial:
		return NewPolynomial(cfg.PolynomialDegree), nil
	case VariantKriging:
		return NewKriging(KrigingOptions{
			Restarts:      cfg.KernelRestarts,
			Noise:         cfg.Noise,
			Jitter:        cfg.Jitter,
			MaxIterations: cfg.MaxIterations,
			Seed:          seed,
		}), nil
	default:
		return nil, fmt.Errorf("surrogate: unknown variant %q", cfg.Variant)
	}
}

func checkDim(expected int, x []float64) error {
	if len(x) != expected {
		return &DimensionError{Expected: expected, Got: len(x)}
	}
	return nil
}
