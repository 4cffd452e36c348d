package tsp

import (
	"context"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// HeuristicSolverName identifies HeuristicSolver in Route.Solver.
const HeuristicSolverName = "heuristic"

// HeuristicSolver builds a tour by construction followed by 2-opt and Or-opt
// local search. It scales to any n but gives no optimality guarantee.
type HeuristicSolver struct {
	// Budget bounds the local search. Only IterationLimit, TimeLimit and Eps
	// are consulted.
	Budget Budget
}

// Name implements Solver.
func (HeuristicSolver) Name() string { return HeuristicSolverName }

// Solve returns a feasible closed tour whose cost never exceeds the cost of
// the constructed starting tour.
//
// Steps:
//  1. Reachability precheck (definitive infeasibility).
//  2. Construction: nearest neighbour, cheapest insertion as fallback.
//  3. Local search until convergence or budget exhaustion.
//
// Running out of iterations or time, or a context cancelled after the
// starting tour exists, is not an error: the best tour so far is returned and
// Route.Termination says why the search stopped.
//
// Errors:
//   - ErrNilMatrix, ErrInvalidBudget.
//   - ErrInfeasibleTour when no closed tour could be built.
//   - ctx.Err() when the context is done before construction.
func (s HeuristicSolver) Solve(ctx context.Context, m *costmatrix.Matrix) (Route, error) {
	n, err := validateMatrix(m)
	if err != nil {
		return Route{}, err
	}
	if err = s.Budget.Validate(); err != nil {
		return Route{}, err
	}
	if err = ctx.Err(); err != nil {
		return Route{}, err
	}
	if n == 1 {
		return Route{Order: []int{0}, Solver: HeuristicSolverName, Construction: ConstructNearest, Termination: Converged}, nil
	}
	if err = checkReachability(m); err != nil {
		return Route{}, err
	}

	order, method, err := construct(m)
	if err != nil {
		return Route{}, err
	}
	start := closedCost(m, order)

	ls := newLocalSearch(ctx, m, order, s.Budget)
	moves, iterations := ls.run()

	return Route{
		Order:            ls.order,
		Cost:             round1e9(ls.cost),
		Improvements:     moves,
		Iterations:       iterations,
		ConstructionCost: round1e9(start),
		Solver:           HeuristicSolverName,
		Construction:     method,
		Termination:      ls.stop,
	}, nil
}
