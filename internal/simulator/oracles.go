package simulator

import (
	"context"
	"math"
	"sort"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// OracleSpec describes a built-in analytic oracle
type OracleSpec struct {
	Name string
	Dim  int // 0 accepts any dimension
	Fn   Oracle
}

var builtins = map[string]OracleSpec{
	"wall_conduction": {Name: "wall_conduction", Dim: 3, Fn: WallConduction},
	"branin":          {Name: "branin", Dim: 2, Fn: Branin},
	"sphere":          {Name: "sphere", Dim: 0, Fn: Sphere},
	"quadratic":       {Name: "quadratic", Dim: 0, Fn: StandardQuadratic},
}

// Lookup returns the named built-in oracle
func Lookup(name string) (OracleSpec, error) {
	spec, ok := builtins[name]
	if !ok {
		return OracleSpec{}, &UnknownOracleError{Name: name}
	}
	return spec, nil
}

// Names lists the built-in oracle names in sorted order
func Names() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CheckDim verifies the oracle accepts a k-dimensional domain
func (s OracleSpec) CheckDim(k int) error {
	if s.Dim != 0 && s.Dim != k {
		return &OracleDimensionError{Name: s.Name, Expected: s.Dim, Got: k}
	}
	return nil
}

// WithNoise adds zero-mean Gaussian noise drawn from rng to every response
func WithNoise(fn Oracle, rng *utils.RandSource, stddev float64) Oracle {
	if stddev <= 0 || rng == nil {
		return fn
	}
	return func(ctx context.Context, x []float64) (float64, error) {
		y, err := fn(ctx, x)
		if err != nil {
			return 0, err
		}
		return y + rng.NormFloat64(0, stddev), nil
	}
}

// WallConduction returns the steady temperature drop q*L/k across a plane wall
// with conductivity k [W/m.K], heat flux q [W/m^2] and thickness L [m]
func WallConduction(_ context.Context, x []float64) (float64, error) {
	k, q, l := x[0], x[1], x[2]
	return q * l / k, nil
}

// Branin is the two-dimensional Branin-Hoo test function
func Branin(_ context.Context, x []float64) (float64, error) {
	const (
		a = 1.0
		b = 5.1 / (4 * math.Pi * math.Pi)
		c = 5 / math.Pi
		r = 6.0
		s = 10.0
		t = 1 / (8 * math.Pi)
	)
	x1, x2 := x[0], x[1]
	term := x2 - b*x1*x1 + c*x1 - r
	return a*term*term + s*(1-t)*math.Cos(x1) + s, nil
}

// Sphere returns the sum of squared coordinates
func Sphere(_ context.Context, x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

// Quadratic is a full second-order polynomial
// y = C + sum_i Linear[i] x_i + sum_{i<=j} Quad[i][j] x_i x_j
type Quadratic struct {
	C      float64
	Linear []float64
	Quad   [][]float64 // upper triangle is used
}

// Eval evaluates the polynomial
func (q Quadratic) Eval(x []float64) float64 {
	y := q.C
	for i, v := range x {
		if i < len(q.Linear) {
			y += q.Linear[i] * v
		}
	}
	for i := range x {
		if i >= len(q.Quad) {
			break
		}
		for j := i; j < len(x) && j < len(q.Quad[i]); j++ {
			y += q.Quad[i][j] * x[i] * x[j]
		}
	}
	return y
}

// Oracle adapts the polynomial to the Oracle signature
func (q Quadratic) Oracle() Oracle {
	return func(_ context.Context, x []float64) (float64, error) {
		return q.Eval(x), nil
	}
}

// StandardQuadratic is 1 + sum (i+1) x_i + sum 0.5 x_i^2 + sum_{i<j} 0.25 x_i x_j
func StandardQuadratic(ctx context.Context, x []float64) (float64, error) {
	return StandardQuadraticFor(len(x)).Oracle()(ctx, x)
}

// StandardQuadraticFor builds the StandardQuadratic coefficients for k variables
func StandardQuadraticFor(k int) Quadratic {
	q := Quadratic{C: 1, Linear: make([]float64, k), Quad: make([][]float64, k)}
	for i := 0; i < k; i++ {
		q.Linear[i] = float64(i + 1)
		q.Quad[i] = make([]float64, k)
		q.Quad[i][i] = 0.5
		for j := i + 1; j < k; j++ {
			q.Quad[i][j] = 0.25
		}
	}
	return q
}
