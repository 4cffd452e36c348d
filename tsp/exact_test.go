package tsp_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/roadtour/tsp"
)

// bridgeValidity connects clusters {0,1} and {2,3} through the pair 1↔2
// only, plus 3↔0 when closed is set.
func bridgeValidity(closed bool) [][]bool {
	v := [][]bool{
		{true, true, false, false},
		{true, true, true, false},
		{false, true, true, true},
		{false, false, true, true},
	}
	if closed {
		v[0][3], v[3][0] = true, true
	}

	return v
}

func ones(n int) [][]float64 {
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		for j := range a[i] {
			if i != j {
				a[i][j] = 1
			}
		}
	}

	return a
}

func TestExact_SingleLocation(t *testing.T) {
	m := mustBuild(t, [][]float64{{0}}, nil)
	r, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, []int{0}, r.Order)
	require.Zero(t, r.Cost)
	require.True(t, r.Optimal)
	require.Equal(t, tsp.Exhaustive, r.Termination)
	require.Empty(t, r.Construction)
}

func TestExact_TwoLocationsSymmetric(t *testing.T) {
	m := mustBuild(t, [][]float64{{0, 3.5}, {3.5, 0}}, nil)
	r, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, r.Order)
	require.InDelta(t, 7.0, r.Cost, epsCost)
}

func TestExact_UnitSquare(t *testing.T) {
	pts := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	m := mustBuild(t, euclid(pts), nil)

	r, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	require.NoError(t, err)
	require.InDelta(t, 4.0, r.Cost, epsCost)
	mustValidRoute(t, m, r)
	// The diagonals are never used.
	for _, leg := range r.Legs() {
		require.InDelta(t, 1.0, m.Cost(leg.From, leg.To), epsCost, "leg %s", leg)
	}
}

func TestExact_MatchesBruteForce(t *testing.T) {
	var (
		n int
		s int64
	)
	for n = 2; n <= 8; n++ {
		for s = 0; s < 3; s++ {
			tables := map[string][][]float64{
				"sym":  euclid(randomPoints(seedDet+s, n)),
				"asym": randomAsym(seedDet+s, n),
			}
			for name, costs := range tables {
				m := mustBuild(t, costs, nil)
				r, err := tsp.ExactSolver{}.Solve(context.Background(), m)
				require.NoError(t, err, "n=%d seed=%d %s", n, s, name)
				mustValidRoute(t, m, r)
				mustFloatClose(t, r.Cost, bruteForce(m), epsCost)
			}
		}
	}
}

func TestExact_RespectsInvalidEntries(t *testing.T) {
	// Complete except 0→1; the cheapest tour would otherwise start 0→1.
	costs := [][]float64{
		{0, 1, 5, 5},
		{5, 0, 1, 5},
		{5, 5, 0, 1},
		{1, 5, 5, 0},
	}
	valid := [][]bool{
		{true, false, true, true},
		{true, true, true, true},
		{true, true, true, true},
		{true, true, true, true},
	}
	m := mustBuild(t, costs, valid)

	r, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	require.NoError(t, err)
	mustValidRoute(t, m, r)
	require.InDelta(t, bruteForce(m), r.Cost, epsCost)
	for _, leg := range r.Legs() {
		require.True(t, m.Valid(leg.From, leg.To), "leg %s", leg)
	}
}

func TestExact_BridgeInfeasible(t *testing.T) {
	m := mustBuild(t, ones(4), bridgeValidity(false))
	_, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	mustErrIs(t, err, tsp.ErrInfeasibleTour)
}

func TestExact_BridgeWithAlternate(t *testing.T) {
	m := mustBuild(t, ones(4), bridgeValidity(true))
	r, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	require.NoError(t, err)
	mustValidRoute(t, m, r)
	require.InDelta(t, 4.0, r.Cost, epsCost)
}

func TestExact_UnreachableLocation(t *testing.T) {
	costs := ones(4)
	costs[0][3], costs[1][3], costs[2][3] = math.Inf(1), math.Inf(1), math.NaN()
	m := mustBuild(t, costs, nil)

	_, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	mustErrIs(t, err, tsp.ErrInfeasibleTour)
	require.Contains(t, err.Error(), "location 3")
}

func TestExact_StarHasNoCycle(t *testing.T) {
	// Every location reaches 0 and back, but leaves are not linked.
	v := [][]bool{
		{true, true, true, true},
		{true, true, false, false},
		{true, false, true, false},
		{true, false, false, true},
	}
	m := mustBuild(t, ones(4), v)

	_, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	mustErrIs(t, err, tsp.ErrInfeasibleTour)
}

func TestExact_Errors(t *testing.T) {
	_, err := tsp.ExactSolver{}.Solve(context.Background(), nil)
	mustErrIs(t, err, tsp.ErrNilMatrix)

	big := mustBuild(t, ones(tsp.MaxExactLimit+1), nil)
	_, err = tsp.ExactSolver{}.Solve(context.Background(), big)
	mustErrIs(t, err, tsp.ErrInvalidBudget)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tsp.ExactSolver{}.Solve(ctx, mustBuild(t, ones(5), nil))
	mustErrIs(t, err, context.Canceled)
}

func TestExact_Deterministic(t *testing.T) {
	// Many equal-cost tours; the tie-break must pick the same one every time.
	m := mustBuild(t, ones(7), nil)
	first, err := tsp.ExactSolver{}.Solve(context.Background(), m)
	require.NoError(t, err)

	Repeat(t, 5, func(t *testing.T) {
		r, err := tsp.ExactSolver{}.Solve(context.Background(), m)
		require.NoError(t, err)
		require.Equal(t, first, r)
	})
}
