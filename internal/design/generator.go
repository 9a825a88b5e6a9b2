// Package design builds the experimental designs that decide where the
// expensive simulator is sampled: structured central composite designs for
// response-surface fitting, Latin hypercube samples for space-filling training
// and test sets, and full-factorial grids for dense candidate sets.
package design

import (
	"fmt"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// Generator produces design points inside a domain
type Generator interface {
	// Name returns the strategy name
	Name() string
	// Generate returns the design points mapped into the domain
	Generate(domain models.Domain) ([]models.DesignPoint, error)
}

// New creates the generator selected by the design configuration.
// rng is only used by stochastic strategies.
func New(cfg config.Design, rng *utils.RandSource) (Generator, error) {
	switch cfg.Strategy {
	case config.StrategyCCD:
		return &CCD{Alpha: cfg.CCDAlpha, CenterReplicates: cfg.CenterReplicates}, nil
	case config.StrategyLHS:
		return &LHS{Samples: cfg.LHSSamples, Rand: rng}, nil
	default:
		return nil, &UnknownStrategyError{Strategy: cfg.Strategy}
	}
}

// TermCount returns the number of monomials of total degree <= degree in k
// variables, C(k+degree, degree). For k=3, degree=2 this is 10.
func TermCount(k, degree int) int {
	n := 1
	for i := 1; i <= degree; i++ {
		n = n * (k + i) / i
	}
	return n
}

// UnknownStrategyError indicates an unsupported design strategy
type UnknownStrategyError struct {
	Strategy string
}

func (e *UnknownStrategyError) Error() string {
	return "unknown design strategy: " + e.Strategy
}

// ConfigError reports invalid generator parameters
type ConfigError struct {
	Strategy string
	Field    string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s design: %s %s", e.Strategy, e.Field, e.Reason)
}
