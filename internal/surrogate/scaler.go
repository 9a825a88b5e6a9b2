package surrogate

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Standardizer maps inputs to zero mean and unit variance per dimension using
// statistics from the training inputs only. A zero-spread column keeps a unit
// scale, so it standardizes to all zeros.
type Standardizer struct {
	Mean []float64 `json:"mean" yaml:"mean"`
	Std  []float64 `json:"std" yaml:"std"`
}

// FitStandardizer computes per-dimension mean and population standard deviation
func FitStandardizer(xs [][]float64) *Standardizer {
	if len(xs) == 0 {
		return &Standardizer{}
	}
	k := len(xs[0])
	s := &Standardizer{Mean: make([]float64, k), Std: make([]float64, k)}
	col := make([]float64, len(xs))
	for j := 0; j < k; j++ {
		for i, x := range xs {
			col[i] = x[j]
		}
		mean, std := meanPopStd(col)
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return s
}

// Transform returns the standardized copy of x
func (s *Standardizer) Transform(x []float64) []float64 {
	z := make([]float64, len(x))
	for i := range x {
		z[i] = (x[i] - s.Mean[i]) / s.Std[i]
	}
	return z
}

// Inverse maps a standardized point back to input units
func (s *Standardizer) Inverse(z []float64) []float64 {
	x := make([]float64, len(z))
	for i := range z {
		x[i] = s.Mean[i] + z[i]*s.Std[i]
	}
	return x
}

// Dim returns the input dimension the standardizer was fitted on
func (s *Standardizer) Dim() int {
	return len(s.Mean)
}

func (s *Standardizer) clone() *Standardizer {
	return &Standardizer{
		Mean: append([]float64(nil), s.Mean...),
		Std:  append([]float64(nil), s.Std...),
	}
}

// meanPopStd returns the mean and population standard deviation, with a
// spread at rounding level replaced by 1
func meanPopStd(v []float64) (float64, float64) {
	mean, variance := stat.PopMeanVariance(v, nil)
	std := math.Sqrt(variance)
	if !(std > 1e-12*math.Max(1, math.Abs(mean))) {
		std = 1
	}
	return mean, std
}
