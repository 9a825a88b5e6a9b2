package simulator

import (
	"errors"
	"fmt"
)

// ErrNonFinite is the cause recorded when an oracle returns NaN or Inf
var ErrNonFinite = errors.New("oracle returned a non-finite response")

// SimulationError reports a failed oracle invocation. It is fatal for the
// workflow. The adapter retries only when a RetryPolicy is set, and then
// returns the error of the last attempt.
type SimulationError struct {
	Oracle string
	Call   int64
	X      []float64
	Cause  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation %q failed on call %d at %v: %v", e.Oracle, e.Call, e.X, e.Cause)
}

func (e *SimulationError) Unwrap() error {
	return e.Cause
}

// UnknownOracleError indicates an oracle name missing from the registry
type UnknownOracleError struct {
	Name string
}

func (e *UnknownOracleError) Error() string {
	return "unknown oracle: " + e.Name
}

// OracleDimensionError indicates a domain whose size does not fit the oracle
type OracleDimensionError struct {
	Name     string
	Expected int
	Got      int
}

func (e *OracleDimensionError) Error() string {
	return fmt.Sprintf("oracle %s expects %d variables, domain has %d", e.Name, e.Expected, e.Got)
}
