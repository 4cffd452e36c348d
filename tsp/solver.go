package tsp

import (
	"context"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// Solver produces a closed tour over a cost matrix.
//
// Implementations are stateless values: one Solver may serve concurrent
// calls as long as each call owns its matrix.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *costmatrix.Matrix) (Route, error)
}

var (
	_ Solver = ExactSolver{}
	_ Solver = HeuristicSolver{}
)

// SelectSolver returns ExactSolver when n ≤ b.MaxExactN and a HeuristicSolver
// carrying b otherwise. The budget is not validated here.
func SelectSolver(n int, b Budget) Solver {
	if n <= b.MaxExactN {
		return ExactSolver{}
	}

	return HeuristicSolver{Budget: b}
}
