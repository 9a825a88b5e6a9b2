package improvement

import (
	"fmt"
)

// NoFeasibleDesignError is returned when no candidate satisfies the constraint
// on the surrogate. The simulator is not called in that case.
type NoFeasibleDesignError struct {
	Candidates int
	Constraint Constraint
	// BestPredicted is the candidate bound closest to feasibility
	BestPredicted float64
}

func (e *NoFeasibleDesignError) Error() string {
	return fmt.Sprintf("no feasible design among %d candidates for %s (closest predicted %g)",
		e.Candidates, e.Constraint, e.BestPredicted)
}

// UnknownObjectiveError indicates an unknown objective sense
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective type: " + e.ObjectiveType
}

// UnknownConstraintError indicates an unknown constraint sense
type UnknownConstraintError struct {
	Sense string
}

func (e *UnknownConstraintError) Error() string {
	return "unknown constraint sense: " + e.Sense
}

// InvalidProblemError reports an inconsistent optimisation problem
type InvalidProblemError struct {
	Reason string
}

func (e *InvalidProblemError) Error() string {
	return "invalid optimization problem: " + e.Reason
}
