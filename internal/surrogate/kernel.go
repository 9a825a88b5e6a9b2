package surrogate

import (
	"math"
)

var sqrt5 = math.Sqrt(5)

// Matern52 is the Matérn covariance with smoothness 5/2 and one length scale
// per input dimension:
//
//	k(a, b) = s2 * (1 + sqrt(5) r + 5 r^2 / 3) * exp(-sqrt(5) r)
//	r^2     = sum_i ((a_i - b_i) / l_i)^2
type Matern52 struct {
	LengthScales []float64
	Variance     float64
}

// Eval returns the covariance between a and b
func (m Matern52) Eval(a, b []float64) float64 {
	r2 := 0.0
	for i := range a {
		d := (a[i] - b[i]) / m.LengthScales[i]
		r2 += d * d
	}
	r := math.Sqrt(r2)
	return m.Variance * (1 + sqrt5*r + 5*r2/3) * math.Exp(-sqrt5*r)
}
