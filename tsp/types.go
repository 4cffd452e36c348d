package tsp

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/roadtour/costmatrix"
)

var (
	// ErrInfeasibleTour is returned when no closed tour over valid entries
	// exists. From the heuristic it can also mean that greedy construction got
	// stuck on a sparse matrix that does have a tour; only the exact solver's
	// result is a proof. Not retryable with the same solver and matrix.
	ErrInfeasibleTour = errors.New("tsp: no closed tour over valid entries")

	// ErrInvalidBudget is returned for a nonsensical Budget, or when the exact
	// solver is asked to run above MaxExactLimit.
	ErrInvalidBudget = errors.New("tsp: invalid solver budget")

	// ErrNilMatrix is returned when a solver receives a nil matrix.
	ErrNilMatrix = errors.New("tsp: nil cost matrix")

	// ErrInvalidRoute is returned by ValidateOrder and TourCost for an order
	// that is not a permutation of 0..n-1 starting at 0.
	ErrInvalidRoute = errors.New("tsp: invalid route order")
)

// Termination records why a solver stopped.
type Termination int

const (
	// Exhaustive: the exact search completed.
	Exhaustive Termination = iota
	// Converged: a full local-search iteration found no improving move.
	Converged
	// IterationLimit: Budget.IterationLimit iterations ran.
	IterationLimit
	// TimeLimit: Budget.TimeLimit elapsed.
	TimeLimit
	// Canceled: the context was done.
	Canceled
)

// String returns a lower-case name suitable for logs and metric labels.
func (t Termination) String() string {
	switch t {
	case Exhaustive:
		return "exhaustive"
	case Converged:
		return "converged"
	case IterationLimit:
		return "iteration_limit"
	case TimeLimit:
		return "time_limit"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("Termination(%d)", int(t))
	}
}

// Route is the outcome of an optimization.
type Route struct {
	// Order is a permutation of 0..n-1 with Order[0] == 0. The tour is closed:
	// the last location connects back to Order[0].
	Order []int

	// Cost is the total cost of the closed tour, rounded to 1e-9.
	Cost float64

	// Optimal is true for exact results.
	Optimal bool

	// Improvements counts the improving local-search moves (heuristic only).
	Improvements int

	// Iterations counts the local-search iterations run (heuristic only).
	Iterations int

	// ConstructionCost is the cost of the tour before local search. For exact
	// results it equals Cost.
	ConstructionCost float64

	// Solver names the solver that produced the route.
	Solver string

	// Construction names the heuristic's starting-tour method
	// (ConstructNearest or ConstructInsertion); empty for exact results.
	Construction string

	// Termination records why the solver stopped.
	Termination Termination
}

// Len returns the number of locations in the route.
func (r Route) Len() int { return len(r.Order) }

// Closed returns the order with the start repeated at the end,
// e.g. [0 2 1] → [0 2 1 0]. An empty route yields nil.
func (r Route) Closed() []int {
	if len(r.Order) == 0 {
		return nil
	}
	out := make([]int, len(r.Order)+1)
	copy(out, r.Order)
	out[len(r.Order)] = r.Order[0]

	return out
}

// Legs lists the directed legs of the closed tour in visiting order.
// A single-location route has no legs.
func (r Route) Legs() []costmatrix.Pair {
	n := len(r.Order)
	if n < 2 {
		return nil
	}
	out := make([]costmatrix.Pair, n)
	for p := 0; p < n; p++ {
		out[p] = costmatrix.Pair{From: r.Order[p], To: r.Order[(p+1)%n]}
	}

	return out
}
