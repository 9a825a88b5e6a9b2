package models

import (
	"fmt"
	"math"
)

// Role tags how a design point was produced
type Role string

const (
	RoleFactorial Role = "factorial"
	RoleAxial     Role = "axial"
	RoleCenter    Role = "center"
	RoleLHS       Role = "lhs-sample"
	RoleGrid      Role = "grid"
)

// Variable is one continuous design variable with a closed interval
type Variable struct {
	Name string  `json:"name" yaml:"name"`
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Width returns High - Low
func (v Variable) Width() float64 {
	return v.High - v.Low
}

// Mid returns the midpoint of the interval
func (v Variable) Mid() float64 {
	return v.Low + v.Width()/2
}

func (v Variable) clamp(x float64) float64 {
	return math.Max(v.Low, math.Min(v.High, x))
}

// Domain is the ordered tuple of design variables
type Domain struct {
	Variables []Variable `json:"variables" yaml:"variables"`
}

// NewDomain creates a domain from variables
func NewDomain(vars ...Variable) Domain {
	out := make([]Variable, len(vars))
	copy(out, vars)
	return Domain{Variables: out}
}

// Dim returns the number of variables k
func (d Domain) Dim() int {
	return len(d.Variables)
}

// Validate checks that the domain is well formed
func (d Domain) Validate() error {
	if len(d.Variables) == 0 {
		return fmt.Errorf("domain must have at least one variable")
	}
	seen := make(map[string]bool, len(d.Variables))
	for i, v := range d.Variables {
		if v.Name == "" {
			return fmt.Errorf("variable %d: name cannot be empty", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variable name: %s", v.Name)
		}
		seen[v.Name] = true
		if math.IsNaN(v.Low) || math.IsInf(v.Low, 0) || math.IsNaN(v.High) || math.IsInf(v.High, 0) {
			return fmt.Errorf("variable %s: bounds must be finite", v.Name)
		}
		if v.Low >= v.High {
			return fmt.Errorf("variable %s: low (%g) must be less than high (%g)", v.Name, v.Low, v.High)
		}
	}
	return nil
}

// Index returns the position of the named variable, or -1
func (d Domain) Index(name string) int {
	for i, v := range d.Variables {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the variable names in order
func (d Domain) Names() []string {
	names := make([]string, len(d.Variables))
	for i, v := range d.Variables {
		names[i] = v.Name
	}
	return names
}

// Mid returns the domain centre
func (d Domain) Mid() []float64 {
	x := make([]float64, len(d.Variables))
	for i, v := range d.Variables {
		x[i] = v.Mid()
	}
	return x
}

// Contains reports whether x lies inside the closed domain
func (d Domain) Contains(x []float64) bool {
	return d.Check(x) == nil
}

// Check returns a DomainViolationError for the first coordinate outside its bounds
func (d Domain) Check(x []float64) error {
	if len(x) != len(d.Variables) {
		return &DomainViolationError{Index: -1, Dim: len(x), Expected: len(d.Variables)}
	}
	for i, v := range d.Variables {
		if math.IsNaN(x[i]) || x[i] < v.Low || x[i] > v.High {
			return &DomainViolationError{
				Index:    i,
				Variable: v.Name,
				Value:    x[i],
				Low:      v.Low,
				High:     v.High,
				Dim:      len(x),
				Expected: len(d.Variables),
			}
		}
	}
	return nil
}

// FromUnit maps u in [0,1]^k affinely into the domain.
// Results are clamped to the bounds to absorb rounding.
func (d Domain) FromUnit(u []float64) []float64 {
	x := make([]float64, len(d.Variables))
	for i, v := range d.Variables {
		x[i] = v.clamp(v.Low + u[i]*v.Width())
	}
	return x
}

// ToUnit maps a domain point to [0,1]^k
func (d Domain) ToUnit(x []float64) []float64 {
	u := make([]float64, len(d.Variables))
	for i, v := range d.Variables {
		u[i] = (x[i] - v.Low) / v.Width()
	}
	return u
}

// FromCoded maps coded coordinates in [-1,1]^k affinely into the domain
func (d Domain) FromCoded(c []float64) []float64 {
	x := make([]float64, len(d.Variables))
	for i, v := range d.Variables {
		x[i] = v.clamp(v.Mid() + c[i]*v.Width()/2)
	}
	return x
}

// Sub returns the domain restricted to the given variable indices
func (d Domain) Sub(indices []int) Domain {
	vars := make([]Variable, len(indices))
	for i, idx := range indices {
		vars[i] = d.Variables[idx]
	}
	return Domain{Variables: vars}
}

// DesignPoint is a k-dimensional point with an optional role tag.
// The coordinates are unexported so a generated point cannot be mutated.
type DesignPoint struct {
	x    []float64
	role Role
}

// NewDesignPoint copies x into a new design point
func NewDesignPoint(x []float64, role Role) DesignPoint {
	c := make([]float64, len(x))
	copy(c, x)
	return DesignPoint{x: c, role: role}
}

// X returns a copy of the coordinates
func (p DesignPoint) X() []float64 {
	c := make([]float64, len(p.x))
	copy(c, p.x)
	return c
}

// At returns coordinate i
func (p DesignPoint) At(i int) float64 {
	return p.x[i]
}

// Dim returns the dimension of the point
func (p DesignPoint) Dim() int {
	return len(p.x)
}

// Role returns the role tag
func (p DesignPoint) Role() Role {
	return p.role
}

// Sample is a design point with its observed response
type Sample struct {
	Point    DesignPoint
	Response float64
}

// TrainingSet is an ordered sequence of samples
type TrainingSet []Sample

// Dim returns the input dimension, 0 for an empty set
func (ts TrainingSet) Dim() int {
	if len(ts) == 0 {
		return 0
	}
	return ts[0].Point.Dim()
}

// Inputs returns copies of all input vectors
func (ts TrainingSet) Inputs() [][]float64 {
	out := make([][]float64, len(ts))
	for i, s := range ts {
		out[i] = s.Point.X()
	}
	return out
}

// Responses returns the observed responses
func (ts TrainingSet) Responses() []float64 {
	out := make([]float64, len(ts))
	for i, s := range ts {
		out[i] = s.Response
	}
	return out
}

// Subset returns the samples at the given indices, in that order
func (ts TrainingSet) Subset(indices []int) TrainingSet {
	out := make(TrainingSet, len(indices))
	for i, idx := range indices {
		out[i] = ts[idx]
	}
	return out
}

// Validate checks that all samples share one dimension and carry finite values
func (ts TrainingSet) Validate() error {
	if len(ts) == 0 {
		return fmt.Errorf("training set is empty")
	}
	k := ts.Dim()
	for i, s := range ts {
		if s.Point.Dim() != k {
			return fmt.Errorf("sample %d: dimension %d, expected %d", i, s.Point.Dim(), k)
		}
		if math.IsNaN(s.Response) || math.IsInf(s.Response, 0) {
			return fmt.Errorf("sample %d: response is not finite", i)
		}
		for j := 0; j < k; j++ {
			v := s.Point.At(j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("sample %d: coordinate %d is not finite", i, j)
			}
		}
	}
	return nil
}

// DomainViolationError reports a point outside the domain bounds
type DomainViolationError struct {
	Index    int
	Variable string
	Value    float64
	Low      float64
	High     float64
	Dim      int
	Expected int
}

func (e *DomainViolationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("domain violation: point has %d coordinates, domain has %d variables", e.Dim, e.Expected)
	}
	return fmt.Sprintf("domain violation: %s = %g outside [%g, %g]", e.Variable, e.Value, e.Low, e.High)
}
