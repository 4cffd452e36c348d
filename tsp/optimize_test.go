package tsp_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/roadtour/tsp"
)

func TestOptimize_DispatchBySize(t *testing.T) {
	b := tsp.DefaultBudget()
	b.MaxExactN = 6

	small := mustBuild(t, euclid(randomPoints(seedDet, 6)), nil)
	r, err := tsp.Optimize(small, b)
	require.NoError(t, err)
	require.True(t, r.Optimal)
	require.Equal(t, tsp.ExactSolverName, r.Solver)
	mustFloatClose(t, r.Cost, bruteForce(small), epsCost)

	large := mustBuild(t, euclid(randomPoints(seedDet, 7)), nil)
	r, err = tsp.Optimize(large, b)
	require.NoError(t, err)
	require.False(t, r.Optimal)
	require.Equal(t, tsp.HeuristicSolverName, r.Solver)
	mustValidRoute(t, large, r)
}

// Fifteen random locations with MaxExactN=10 go to the heuristic, which must
// beat the input-order tour.
func TestOptimize_FifteenRandomLocations(t *testing.T) {
	m := mustBuild(t, euclid(randomPoints(seedDet, 15)), nil)
	b := tsp.DefaultBudget()
	b.MaxExactN = 10

	r, err := tsp.Optimize(m, b)
	require.NoError(t, err)
	require.False(t, r.Optimal)
	require.False(t, math.IsInf(r.Cost, 0) || math.IsNaN(r.Cost))
	mustValidRoute(t, m, r)

	identity, err := tsp.TourCost(m, tsp.IdentityOrder(15))
	require.NoError(t, err)
	require.Less(t, r.Cost, identity)
}

func TestOptimize_Idempotent(t *testing.T) {
	for _, n := range []int{5, 18} {
		m := mustBuild(t, randomAsym(seedDet, n), nil)
		first, err := tsp.Optimize(m, tsp.DefaultBudget())
		require.NoError(t, err)
		second, err := tsp.Optimize(m, tsp.DefaultBudget())
		require.NoError(t, err)
		require.Equal(t, first, second, "n=%d", n)
	}
}

func TestOptimize_PropagatesErrors(t *testing.T) {
	_, err := tsp.Optimize(nil, tsp.DefaultBudget())
	mustErrIs(t, err, tsp.ErrNilMatrix)

	_, err = tsp.Optimize(mustBuild(t, ones(4), bridgeValidity(false)), tsp.DefaultBudget())
	mustErrIs(t, err, tsp.ErrInfeasibleTour)

	r, err := tsp.Optimize(mustBuild(t, ones(4), bridgeValidity(true)), tsp.DefaultBudget())
	require.NoError(t, err)
	require.InDelta(t, 4.0, r.Cost, epsCost)
}

func TestNewOptimizer_InvalidBudget(t *testing.T) {
	cases := map[string]func(b *tsp.Budget){
		"zero exact":     func(b *tsp.Budget) { b.MaxExactN = 0 },
		"above limit":    func(b *tsp.Budget) { b.MaxExactN = tsp.MaxExactLimit + 1 },
		"zero iteration": func(b *tsp.Budget) { b.IterationLimit = 0 },
		"negative time":  func(b *tsp.Budget) { b.TimeLimit = -1 },
		"negative eps":   func(b *tsp.Budget) { b.Eps = -1e-3 },
		"nan eps":        func(b *tsp.Budget) { b.Eps = math.NaN() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := tsp.DefaultBudget()
			mutate(&b)
			_, err := tsp.NewOptimizer(b)
			mustErrIs(t, err, tsp.ErrInvalidBudget)

			_, err = tsp.Optimize(mustBuild(t, ones(3), nil), b)
			mustErrIs(t, err, tsp.ErrInvalidBudget)
		})
	}
}

func TestOptimizer_Trace(t *testing.T) {
	var phases []tsp.Phase
	var last tsp.State
	o, err := tsp.NewOptimizer(tsp.DefaultBudget(), tsp.WithTrace(func(s tsp.State) {
		phases = append(phases, s.Phase)
		last = s
	}))
	require.NoError(t, err)

	r, err := o.Optimize(context.Background(), mustBuild(t, ones(4), nil))
	require.NoError(t, err)
	require.Equal(t, []tsp.Phase{tsp.Pending, tsp.Solving, tsp.Solved}, phases)
	require.Equal(t, 4, last.N)
	require.Equal(t, tsp.ExactSolverName, last.Solver)
	require.NotNil(t, last.Route)
	require.Equal(t, r, *last.Route)

	phases = nil
	_, err = o.Optimize(context.Background(), mustBuild(t, ones(4), bridgeValidity(false)))
	require.Error(t, err)
	require.Equal(t, []tsp.Phase{tsp.Pending, tsp.Solving, tsp.Failed}, phases)
	mustErrIs(t, last.Err, tsp.ErrInfeasibleTour)

	phases = nil
	_, err = o.Optimize(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, []tsp.Phase{tsp.Pending, tsp.Failed}, phases)
}

func TestSelectSolver(t *testing.T) {
	b := tsp.DefaultBudget()
	require.Equal(t, tsp.ExactSolverName, tsp.SelectSolver(b.MaxExactN, b).Name())
	s := tsp.SelectSolver(b.MaxExactN+1, b)
	require.Equal(t, tsp.HeuristicSolverName, s.Name())
	require.Equal(t, tsp.HeuristicSolver{Budget: b}, s)
}

func TestStringers(t *testing.T) {
	require.Equal(t, "converged", tsp.Converged.String())
	require.Equal(t, "time_limit", tsp.TimeLimit.String())
	require.Equal(t, "solving", tsp.Solving.String())
	require.Equal(t, "Phase(9)", tsp.Phase(9).String())
}
