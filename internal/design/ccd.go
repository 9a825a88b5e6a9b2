package design

import (
	"fmt"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
)

// MaxCCDVariables bounds the 2^k factorial block
const MaxCCDVariables = 10

// CCD is a central composite design: 2^k factorial corners at ±1, 2k axial
// points at ±Alpha on each axis and CenterReplicates centre points, in coded
// units mapped affinely into the domain. Alpha = 1 is the face-centred design.
type CCD struct {
	Alpha            float64
	CenterReplicates int
}

func (c *CCD) Name() string {
	return "ccd"
}

// Size returns 2^k + 2k + CenterReplicates
func (c *CCD) Size(k int) int {
	return 1<<k + 2*k + c.CenterReplicates
}

// Validate checks the generator parameters for a k-variable domain.
// Alpha above 1 would put axial points outside the domain and is rejected.
func (c *CCD) Validate(k int) error {
	if k < 1 {
		return &ConfigError{Strategy: "ccd", Field: "k", Reason: "must be at least 1"}
	}
	if k > MaxCCDVariables {
		return &ConfigError{Strategy: "ccd", Field: "k", Reason: fmt.Sprintf("must be at most %d, got %d", MaxCCDVariables, k)}
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return &ConfigError{Strategy: "ccd", Field: "alpha", Reason: fmt.Sprintf("must be in (0, 1], got %g", c.Alpha)}
	}
	if c.CenterReplicates < 1 {
		return &ConfigError{Strategy: "ccd", Field: "center_replicates", Reason: fmt.Sprintf("must be at least 1, got %d", c.CenterReplicates)}
	}
	return nil
}

// Coded returns the design in coded [-1,1] units, in the order
// factorial, axial (-alpha then +alpha per axis), centre
func (c *CCD) Coded(k int) ([][]float64, []models.Role, error) {
	if err := c.Validate(k); err != nil {
		return nil, nil, err
	}

	points := make([][]float64, 0, c.Size(k))
	roles := make([]models.Role, 0, c.Size(k))

	for m := 0; m < 1<<k; m++ {
		p := make([]float64, k)
		for i := 0; i < k; i++ {
			if m&(1<<i) != 0 {
				p[i] = 1
			} else {
				p[i] = -1
			}
		}
		points = append(points, p)
		roles = append(roles, models.RoleFactorial)
	}

	for i := 0; i < k; i++ {
		for _, sign := range []float64{-1, 1} {
			p := make([]float64, k)
			p[i] = sign * c.Alpha
			points = append(points, p)
			roles = append(roles, models.RoleAxial)
		}
	}

	for r := 0; r < c.CenterReplicates; r++ {
		points = append(points, make([]float64, k))
		roles = append(roles, models.RoleCenter)
	}

	return points, roles, nil
}

// Generate maps the coded design into the domain
func (c *CCD) Generate(domain models.Domain) ([]models.DesignPoint, error) {
	coded, roles, err := c.Coded(domain.Dim())
	if err != nil {
		return nil, err
	}
	out := make([]models.DesignPoint, len(coded))
	for i, p := range coded {
		out[i] = models.NewDesignPoint(domain.FromCoded(p), roles[i])
	}
	return out, nil
}
