// Package validation measures how well a fitted surrogate reproduces the
// simulator, on a held-out test set and by k-fold cross-validation.
package validation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics are accuracy measures of predictions against true responses
type Metrics struct {
	N           int     `json:"n" yaml:"n"`
	R2          float64 `json:"r2" yaml:"r2"`
	R2Defined   bool    `json:"r2_defined" yaml:"r2_defined"`
	RMSE        float64 `json:"rmse" yaml:"rmse"`
	MAE         float64 `json:"mae" yaml:"mae"`
	MaxAbsError float64 `json:"max_abs_error" yaml:"max_abs_error"`
	MAPE        float64 `json:"mape" yaml:"mape"`
	MAPEDefined bool    `json:"mape_defined" yaml:"mape_defined"`
}

// Compute returns the metrics of predicted against actual. R2 is NaN and
// R2Defined false when actual has no variance; MAPE is undefined when any
// actual value is zero.
func Compute(actual, predicted []float64) Metrics {
	n := len(actual)
	m := Metrics{N: n, R2: math.NaN(), MAPE: math.NaN()}
	if n == 0 {
		m.RMSE, m.MAE = math.NaN(), math.NaN()
		return m
	}

	resid := make([]float64, n)
	floats.SubTo(resid, actual, predicted)

	sq := 0.0
	abs := 0.0
	pct := 0.0
	m.MAPEDefined = true
	for i, r := range resid {
		sq += r * r
		a := math.Abs(r)
		abs += a
		if a > m.MaxAbsError {
			m.MaxAbsError = a
		}
		if actual[i] == 0 {
			m.MAPEDefined = false
		} else {
			pct += math.Abs(r / actual[i])
		}
	}
	m.RMSE = math.Sqrt(sq / float64(n))
	m.MAE = abs / float64(n)
	if m.MAPEDefined {
		m.MAPE = 100 * pct / float64(n)
	}

	if _, variance := stat.PopMeanVariance(actual, nil); variance > 0 {
		m.R2 = stat.RSquaredFrom(predicted, actual, nil)
		m.R2Defined = true
	}
	return m
}

// pooledQ2 is the predictive R2 over all held-out predictions
func pooledQ2(actual, predicted []float64) (float64, bool) {
	m := Compute(actual, predicted)
	return m.R2, m.R2Defined
}
