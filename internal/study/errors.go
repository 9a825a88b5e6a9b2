package study

import "fmt"

// QualityGateError reports a surrogate whose primary R2 fell below the
// configured minimum. The study stops before optimisation.
type QualityGateError struct {
	R2      float64
	MinR2   float64
	Kind    string // "test" or "cv"
	Defined bool
}

func (e *QualityGateError) Error() string {
	if !e.Defined {
		return fmt.Sprintf("quality gate failed: %s R2 is undefined (min %.4g)", e.Kind, e.MinR2)
	}
	return fmt.Sprintf("quality gate failed: %s R2 %.4g below min %.4g", e.Kind, e.R2, e.MinR2)
}
