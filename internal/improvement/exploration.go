package improvement

import (
	"fmt"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/design"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// CandidateExplorer generates the points searched on the surrogate
type CandidateExplorer interface {
	// Generate returns full-dimension candidates that vary only the free
	// variables and hold every other variable at its fixed value
	Generate(problem *Problem) ([][]float64, error)
	Name() string
}

// NewExplorer returns the explorer for a candidate strategy name
func NewExplorer(strategy string, rng *utils.RandSource) (CandidateExplorer, error) {
	switch strategy {
	case "", config.StrategyLHS:
		return &LHSExplorer{Rand: rng}, nil
	case config.StrategyGrid:
		return &GridExplorer{}, nil
	default:
		return nil, &InvalidProblemError{Reason: "unknown candidate strategy: " + strategy}
	}
}

// LHSExplorer draws a Latin hypercube over the free variables
type LHSExplorer struct {
	Rand *utils.RandSource
}

func (e *LHSExplorer) Name() string {
	return config.StrategyLHS
}

func (e *LHSExplorer) Generate(problem *Problem) ([][]float64, error) {
	pts, err := (&design.LHS{Samples: problem.Candidates, Rand: e.Rand}).Generate(problem.FreeDomain())
	if err != nil {
		return nil, fmt.Errorf("candidate sample: %w", err)
	}
	return problem.embed(pts), nil
}

// GridExplorer lays the densest full-factorial grid over the free variables
// that fits the candidate budget
type GridExplorer struct{}

func (e *GridExplorer) Name() string {
	return config.StrategyGrid
}

func (e *GridExplorer) Generate(problem *Problem) ([][]float64, error) {
	grid := design.GridForBudget(problem.Candidates, len(problem.Free))
	pts, err := grid.Generate(problem.FreeDomain())
	if err != nil {
		return nil, fmt.Errorf("candidate grid: %w", err)
	}
	return problem.embed(pts), nil
}

// Problem is a constrained single-objective search over a sub-box of the domain
type Problem struct {
	Domain      models.Domain
	Free        []int
	Fixed       []float64
	Objective   Objective
	Constraint  Constraint
	Candidates  int
	Strategy    string
	ConfidenceZ float64
}

// ProblemFromConfig builds the problem described by an optimisation section
func ProblemFromConfig(domain models.Domain, cfg *config.Optimization) (*Problem, error) {
	obj, err := NewObjective(cfg.ObjectiveVariable, cfg.ObjectiveSense)
	if err != nil {
		return nil, err
	}
	con, err := NewConstraint(cfg.ConstraintThreshold, cfg.ConstraintSense)
	if err != nil {
		return nil, err
	}
	p := &Problem{
		Domain:      domain,
		Free:        append([]int(nil), cfg.FreeVariables...),
		Fixed:       cfg.FixedVector(domain),
		Objective:   obj,
		Constraint:  con,
		Candidates:  cfg.CandidateCount,
		Strategy:    cfg.CandidateStrategy,
		ConfidenceZ: cfg.ConfidenceZ,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks indices, budget and fixed values
func (p *Problem) Validate() error {
	k := p.Domain.Dim()
	if k == 0 {
		return &InvalidProblemError{Reason: "domain is empty"}
	}
	if p.Candidates < 1 {
		return &InvalidProblemError{Reason: fmt.Sprintf("candidate count must be positive, got %d", p.Candidates)}
	}
	if p.Objective.Variable < 0 || p.Objective.Variable >= k {
		return &InvalidProblemError{Reason: fmt.Sprintf("objective variable %d out of range [0,%d)", p.Objective.Variable, k)}
	}
	if len(p.Free) == 0 {
		return &InvalidProblemError{Reason: "at least one free variable is required"}
	}
	seen := make(map[int]bool, len(p.Free))
	for _, i := range p.Free {
		if i < 0 || i >= k {
			return &InvalidProblemError{Reason: fmt.Sprintf("free variable %d out of range [0,%d)", i, k)}
		}
		if seen[i] {
			return &InvalidProblemError{Reason: fmt.Sprintf("free variable %d listed twice", i)}
		}
		seen[i] = true
	}
	if len(p.Fixed) != k {
		return &InvalidProblemError{Reason: fmt.Sprintf("fixed vector has %d values, domain has %d", len(p.Fixed), k)}
	}
	if err := p.Domain.Check(p.Fixed); err != nil {
		return &InvalidProblemError{Reason: "fixed values: " + err.Error()}
	}
	if p.ConfidenceZ < 0 {
		return &InvalidProblemError{Reason: "confidence z must be non-negative"}
	}
	return nil
}

// FreeDomain is the sub-domain spanned by the free variables
func (p *Problem) FreeDomain() models.Domain {
	return p.Domain.Sub(p.Free)
}

// embed places free-variable samples into full vectors
func (p *Problem) embed(pts []models.DesignPoint) [][]float64 {
	out := make([][]float64, len(pts))
	for n, pt := range pts {
		x := append([]float64(nil), p.Fixed...)
		for j, i := range p.Free {
			x[i] = pt.At(j)
		}
		out[n] = x
	}
	return out
}
