package improvement

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
)

// Objective selects one design variable to optimise
type Objective struct {
	Variable int
	Sense    string // minimize or maximize
}

// NewObjective validates the sense string
func NewObjective(variable int, sense string) (Objective, error) {
	switch sense {
	case config.SenseMinimize, config.SenseMaximize:
		return Objective{Variable: variable, Sense: sense}, nil
	default:
		return Objective{}, &UnknownObjectiveError{ObjectiveType: sense}
	}
}

func (o Objective) Name() string {
	return fmt.Sprintf("%s x[%d]", o.Sense, o.Variable)
}

// Direction returns true when minimising
func (o Objective) Direction() bool {
	return o.Sense != config.SenseMaximize
}

// Value returns the objective coordinate of x
func (o Objective) Value(x []float64) float64 {
	return x[o.Variable]
}

// Better reports whether a is strictly better than b
func (o Objective) Better(a, b float64) bool {
	if o.Direction() {
		return a < b
	}
	return a > b
}

// Constraint bounds the surrogate's predicted response
type Constraint struct {
	Threshold float64
	Sense     string // le or ge
}

// NewConstraint validates the sense string
func NewConstraint(threshold float64, sense string) (Constraint, error) {
	switch sense {
	case config.SenseLessEqual, config.SenseGreaterEqual:
	default:
		return Constraint{}, &UnknownConstraintError{Sense: sense}
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return Constraint{}, &InvalidProblemError{Reason: "constraint threshold must be finite"}
	}
	return Constraint{Threshold: threshold, Sense: sense}, nil
}

// Bound returns the value tested against the threshold: the prediction
// shifted by z standard deviations toward the violating side
func (c Constraint) Bound(predicted, stddev, z float64) float64 {
	if z <= 0 || stddev <= 0 {
		return predicted
	}
	if c.Sense == config.SenseGreaterEqual {
		return predicted - z*stddev
	}
	return predicted + z*stddev
}

// Satisfied reports whether value meets the constraint
func (c Constraint) Satisfied(value float64) bool {
	if math.IsNaN(value) {
		return false
	}
	if c.Sense == config.SenseGreaterEqual {
		return value >= c.Threshold
	}
	return value <= c.Threshold
}

// Violation is how far value is from satisfying the constraint, 0 when it does
func (c Constraint) Violation(value float64) float64 {
	if c.Satisfied(value) {
		return 0
	}
	return math.Abs(value - c.Threshold)
}

func (c Constraint) String() string {
	op := "<="
	if c.Sense == config.SenseGreaterEqual {
		op = ">="
	}
	return fmt.Sprintf("y %s %g", op, c.Threshold)
}
