package design

import (
	"fmt"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// LHS is a Latin hypercube sample: each dimension is cut into Samples
// equal-probability strata and every stratum holds exactly one sample.
// Stratum assignments are permuted independently per dimension.
type LHS struct {
	Samples int
	Rand    *utils.RandSource
	// Centered places each sample at its stratum midpoint instead of a uniform draw
	Centered bool
}

func (l *LHS) Name() string {
	return "lhs"
}

// Unit returns the sample in [0,1)^k, one row per sample
func (l *LHS) Unit(k int) ([][]float64, error) {
	if l.Samples < 1 {
		return nil, &ConfigError{Strategy: "lhs", Field: "samples", Reason: fmt.Sprintf("must be positive, got %d", l.Samples)}
	}
	if k < 1 {
		return nil, &ConfigError{Strategy: "lhs", Field: "k", Reason: "must be at least 1"}
	}
	if l.Rand == nil {
		return nil, &ConfigError{Strategy: "lhs", Field: "rand", Reason: "source is required"}
	}

	n := l.Samples
	u := make([][]float64, n)
	for j := range u {
		u[j] = make([]float64, k)
	}
	for d := 0; d < k; d++ {
		perm := l.Rand.Perm(n)
		for j := 0; j < n; j++ {
			offset := 0.5
			if !l.Centered {
				offset = l.Rand.Float64()
			}
			u[j][d] = (float64(perm[j]) + offset) / float64(n)
		}
	}
	return u, nil
}

// Generate maps the unit sample into the domain
func (l *LHS) Generate(domain models.Domain) ([]models.DesignPoint, error) {
	u, err := l.Unit(domain.Dim())
	if err != nil {
		return nil, err
	}
	out := make([]models.DesignPoint, len(u))
	for i, row := range u {
		out[i] = models.NewDesignPoint(domain.FromUnit(row), models.RoleLHS)
	}
	return out, nil
}
