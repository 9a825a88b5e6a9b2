package design

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// maxGridPoints guards against runaway PerAxis^k sizes
const maxGridPoints = 1 << 22

// Grid is a full-factorial grid with PerAxis evenly spaced levels on every
// axis, bounds included. The first variable varies slowest.
type Grid struct {
	PerAxis int
}

func (g *Grid) Name() string {
	return "grid"
}

// GridForBudget returns the densest grid whose size does not exceed budget
// points in k dimensions, with at least one level per axis
func GridForBudget(budget, k int) *Grid {
	if budget < 1 || k < 1 {
		return &Grid{PerAxis: 1}
	}
	per := int(math.Floor(math.Pow(float64(budget), 1/float64(k))))
	// Pow can land just below an exact root
	for pow(per+1, k) <= budget {
		per++
	}
	if per < 1 {
		per = 1
	}
	return &Grid{PerAxis: per}
}

// Size returns PerAxis^k
func (g *Grid) Size(k int) int {
	return pow(g.PerAxis, k)
}

// Generate enumerates the grid inside the domain
func (g *Grid) Generate(domain models.Domain) ([]models.DesignPoint, error) {
	k := domain.Dim()
	if g.PerAxis < 1 {
		return nil, &ConfigError{Strategy: "grid", Field: "per_axis", Reason: fmt.Sprintf("must be positive, got %d", g.PerAxis)}
	}
	if k < 1 {
		return nil, &ConfigError{Strategy: "grid", Field: "k", Reason: "must be at least 1"}
	}
	total := g.Size(k)
	if total > maxGridPoints || total < 0 {
		return nil, &ConfigError{Strategy: "grid", Field: "size", Reason: fmt.Sprintf("%d^%d exceeds %d points", g.PerAxis, k, maxGridPoints)}
	}

	levels := make([][]float64, k)
	for i, v := range domain.Variables {
		levels[i] = utils.Linspace(v.Low, v.High, g.PerAxis)
	}

	out := make([]models.DesignPoint, 0, total)
	idx := make([]int, k)
	x := make([]float64, k)
	for n := 0; n < total; n++ {
		for i := range x {
			x[i] = levels[i][idx[i]]
		}
		out = append(out, models.NewDesignPoint(x, models.RoleGrid))

		// odometer increment, last axis fastest
		for i := k - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < g.PerAxis {
				break
			}
			idx[i] = 0
		}
	}
	return out, nil
}

func pow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
		if out > maxGridPoints*4 {
			return out
		}
	}
	return out
}
