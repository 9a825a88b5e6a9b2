package design

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

func wallDomain() models.Domain {
	return models.NewDomain(
		models.Variable{Name: "k", Low: 10, High: 400},
		models.Variable{Name: "q", Low: 1000, High: 10000},
		models.Variable{Name: "L", Low: 0.1, High: 1.0},
	)
}

func TestTermCount(t *testing.T) {
	assert.Equal(t, 10, TermCount(3, 2))
	assert.Equal(t, 6, TermCount(2, 2))
	assert.Equal(t, 4, TermCount(3, 1))
	assert.Equal(t, 1, TermCount(5, 0))
	assert.Equal(t, 20, TermCount(3, 3))
}

func TestCCDFaceCentred(t *testing.T) {
	ccd := &CCD{Alpha: 1, CenterReplicates: 6}
	pts, err := ccd.Generate(wallDomain())
	require.NoError(t, err)
	require.Len(t, pts, 20)
	assert.Equal(t, 20, ccd.Size(3))

	counts := map[models.Role]int{}
	for _, p := range pts {
		counts[p.Role()]++
	}
	assert.Equal(t, 8, counts[models.RoleFactorial])
	assert.Equal(t, 6, counts[models.RoleAxial])
	assert.Equal(t, 6, counts[models.RoleCenter])

	d := wallDomain()
	for _, p := range pts {
		assert.True(t, d.Contains(p.X()), "point %v outside domain", p.X())
	}

	// first factorial point is the all-low corner
	assert.InDeltaSlice(t, []float64{10, 1000, 0.1}, pts[0].X(), 1e-12)
	// first axial pair sits on k at its bounds, others at midpoints
	assert.InDeltaSlice(t, []float64{10, 5500, 0.55}, pts[8].X(), 1e-12)
	assert.InDeltaSlice(t, []float64{400, 5500, 0.55}, pts[9].X(), 1e-12)
	// centre
	assert.InDeltaSlice(t, []float64{205, 5500, 0.55}, pts[19].X(), 1e-12)
}

func TestCCDFactorialCornersDistinct(t *testing.T) {
	coded, _, err := (&CCD{Alpha: 1, CenterReplicates: 1}).Coded(4)
	require.NoError(t, err)

	seen := map[[4]float64]bool{}
	for _, p := range coded[:16] {
		var key [4]float64
		copy(key[:], p)
		assert.False(t, seen[key], "duplicate corner %v", p)
		seen[key] = true
		for _, v := range p {
			assert.Equal(t, 1.0, math.Abs(v))
		}
	}
}

func TestCCDAlphaScalesAxialPoints(t *testing.T) {
	coded, roles, err := (&CCD{Alpha: 0.5, CenterReplicates: 1}).Coded(2)
	require.NoError(t, err)
	for i, p := range coded {
		if roles[i] != models.RoleAxial {
			continue
		}
		nonZero := 0
		for _, v := range p {
			if v != 0 {
				nonZero++
				assert.Equal(t, 0.5, math.Abs(v))
			}
		}
		assert.Equal(t, 1, nonZero)
	}
}

func TestCCDValidate(t *testing.T) {
	var cfgErr *ConfigError

	_, err := (&CCD{Alpha: 1.5, CenterReplicates: 1}).Generate(wallDomain())
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "alpha", cfgErr.Field)

	_, err = (&CCD{Alpha: 1, CenterReplicates: 0}).Generate(wallDomain())
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "center_replicates", cfgErr.Field)

	_, _, err = (&CCD{Alpha: 1, CenterReplicates: 1}).Coded(MaxCCDVariables + 1)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "k", cfgErr.Field)
}

func TestLHSStratification(t *testing.T) {
	lhs := &LHS{Samples: 25, Rand: utils.NewRandSource(7)}
	u, err := lhs.Unit(4)
	require.NoError(t, err)
	require.Len(t, u, 25)

	for d := 0; d < 4; d++ {
		strata := make([]int, 0, 25)
		for _, row := range u {
			require.GreaterOrEqual(t, row[d], 0.0)
			require.Less(t, row[d], 1.0)
			strata = append(strata, int(math.Floor(row[d]*25)))
		}
		sort.Ints(strata)
		for i, s := range strata {
			assert.Equal(t, i, s, "dimension %d", d)
		}
	}
}

func TestLHSSeedReproducible(t *testing.T) {
	a, err := (&LHS{Samples: 10, Rand: utils.NewRandSource(99)}).Generate(wallDomain())
	require.NoError(t, err)
	b, err := (&LHS{Samples: 10, Rand: utils.NewRandSource(99)}).Generate(wallDomain())
	require.NoError(t, err)
	for i := range a {
		assert.Equal(t, a[i].X(), b[i].X())
		assert.Equal(t, models.RoleLHS, a[i].Role())
	}
}

func TestLHSCentered(t *testing.T) {
	u, err := (&LHS{Samples: 4, Rand: utils.NewRandSource(3), Centered: true}).Unit(1)
	require.NoError(t, err)
	got := []float64{u[0][0], u[1][0], u[2][0], u[3][0]}
	sort.Float64s(got)
	assert.InDeltaSlice(t, []float64{0.125, 0.375, 0.625, 0.875}, got, 1e-12)
}

func TestLHSRejectsBadParameters(t *testing.T) {
	var cfgErr *ConfigError
	_, err := (&LHS{Samples: 0, Rand: utils.NewRandSource(1)}).Unit(2)
	require.ErrorAs(t, err, &cfgErr)

	_, err = (&LHS{Samples: 5}).Unit(2)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "rand", cfgErr.Field)
}

func TestGrid(t *testing.T) {
	d := models.NewDomain(
		models.Variable{Name: "a", Low: 0, High: 1},
		models.Variable{Name: "b", Low: -2, High: 2},
	)
	pts, err := (&Grid{PerAxis: 3}).Generate(d)
	require.NoError(t, err)
	require.Len(t, pts, 9)
	assert.Equal(t, []float64{0, -2}, pts[0].X())
	assert.Equal(t, []float64{0, 0}, pts[1].X())
	assert.Equal(t, []float64{0.5, -2}, pts[3].X())
	assert.Equal(t, []float64{1, 2}, pts[8].X())
}

func TestGridForBudget(t *testing.T) {
	assert.Equal(t, 10, GridForBudget(1000, 3).PerAxis)
	assert.Equal(t, 31, GridForBudget(1000, 2).PerAxis)
	assert.Equal(t, 1000, GridForBudget(1000, 1).PerAxis)
	assert.Equal(t, 1, GridForBudget(3, 4).PerAxis)
	assert.LessOrEqual(t, GridForBudget(2000, 2).Size(2), 2000)
}

func TestNewFromConfig(t *testing.T) {
	g, err := New(config.Design{Strategy: config.StrategyCCD, CCDAlpha: 1, CenterReplicates: 6}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ccd", g.Name())

	g, err = New(config.Design{Strategy: config.StrategyLHS, LHSSamples: 12}, utils.NewRandSource(1))
	require.NoError(t, err)
	pts, err := g.Generate(wallDomain())
	require.NoError(t, err)
	assert.Len(t, pts, 12)

	_, err = New(config.Design{Strategy: "sobol"}, nil)
	var unknown *UnknownStrategyError
	require.ErrorAs(t, err, &unknown)
}
