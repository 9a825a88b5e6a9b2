package improvement

import (
	"fmt"
)

// Candidate is one point searched on the surrogate
type Candidate struct {
	// Index is the generation order, used to break ties
	Index     int       `json:"index" yaml:"index"`
	X         []float64 `json:"x" yaml:"x"`
	Predicted float64   `json:"predicted" yaml:"predicted"`
	StdDev    float64   `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`
	// Bound is the value tested against the constraint
	Bound    float64 `json:"bound" yaml:"bound"`
	Feasible bool    `json:"feasible" yaml:"feasible"`
}

// SelectionStrategy picks the winner among evaluated candidates
type SelectionStrategy interface {
	SelectBest(candidates []*Candidate, objective Objective) (*Candidate, error)
	Name() string
}

// ExtremalStrategy selects the feasible candidate with the extremal objective
// coordinate; exact ties go to the earliest generated candidate
type ExtremalStrategy struct{}

func (s *ExtremalStrategy) Name() string {
	return "extremal"
}

func (s *ExtremalStrategy) SelectBest(candidates []*Candidate, objective Objective) (*Candidate, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates provided")
	}

	var best *Candidate
	for _, c := range candidates {
		if !c.Feasible {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		v, bv := objective.Value(c.X), objective.Value(best.X)
		if objective.Better(v, bv) || (v == bv && c.Index < best.Index) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no feasible candidates")
	}
	return best, nil
}
