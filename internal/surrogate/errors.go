package surrogate

import (
	"fmt"
	"strings"
)

// RankDeficiencyError indicates the design matrix cannot identify every
// polynomial coefficient: fewer samples than terms, or collinear columns.
type RankDeficiencyError struct {
	Samples int
	Terms   int
	Rank    int
	Degree  int
}

func (e *RankDeficiencyError) Error() string {
	if e.Samples < e.Terms {
		return fmt.Sprintf("surrogate: rank deficient: %d samples for %d terms of a degree-%d polynomial",
			e.Samples, e.Terms, e.Degree)
	}
	return fmt.Sprintf("surrogate: rank deficient: design matrix rank %d < %d terms of a degree-%d polynomial",
		e.Rank, e.Terms, e.Degree)
}

// KernelFitWarning records a kernel hyperparameter restart that did not
// converge. It is reported alongside a successful fit, never returned as an error.
type KernelFitWarning struct {
	Restart    int     `json:"restart" yaml:"restart"`
	Status     string  `json:"status" yaml:"status"`
	Likelihood float64 `json:"neg_log_likelihood" yaml:"neg_log_likelihood"`
	Reason     string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (w KernelFitWarning) String() string {
	if w.Reason != "" {
		return fmt.Sprintf("kernel restart %d did not converge (%s): %s", w.Restart, w.Status, w.Reason)
	}
	return fmt.Sprintf("kernel restart %d did not converge (%s)", w.Restart, w.Status)
}

// KernelFitError is returned when no restart produced a finite likelihood
type KernelFitError struct {
	Restarts int
	Warnings []KernelFitWarning
}

func (e *KernelFitError) Error() string {
	reasons := make([]string, 0, len(e.Warnings))
	for _, w := range e.Warnings {
		reasons = append(reasons, w.String())
	}
	return fmt.Sprintf("surrogate: kernel fit failed on all %d restarts: %s", e.Restarts, strings.Join(reasons, "; "))
}
