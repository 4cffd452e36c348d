// Package tsp - the route optimizer: size-gated dispatch between the exact and
// the heuristic solver.
//
// Every call walks the state machine
//
//	Pending → Solving → Solved
//	                  ↘ Failed
//
// which callers can observe through WithTrace. There are no retries and no
// fallback from one solver to the other: a failed exact solve is reported as is.
package tsp

import (
	"context"
	"fmt"
	"time"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// Phase is a step of one optimization call.
type Phase int

const (
	// Pending: the call was accepted, nothing was validated yet.
	Pending Phase = iota
	// Solving: inputs are valid and a solver was chosen.
	Solving
	// Solved: a route was produced.
	Solved
	// Failed: the call ended with an error.
	Failed
)

// String returns a lower-case phase name.
func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Solving:
		return "solving"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is reported to the trace hook on every phase change.
type State struct {
	Phase Phase
	// N is the matrix size, 0 while Pending or for a nil matrix.
	N int
	// Solver is set from Solving on.
	Solver string
	// Route is set when Phase is Solved.
	Route *Route
	// Err is set when Phase is Failed.
	Err error
	// Elapsed is the time since the call entered Pending.
	Elapsed time.Duration
}

// OptimizerOption configures an Optimizer.
type OptimizerOption func(*Optimizer)

// WithTrace installs a hook called synchronously on each phase change.
// The hook runs on the caller's goroutine and should return quickly.
func WithTrace(fn func(State)) OptimizerOption {
	return func(o *Optimizer) { o.trace = fn }
}

// Optimizer chooses a solver by matrix size and normalizes its result.
// An Optimizer is immutable after NewOptimizer and safe for concurrent use.
type Optimizer struct {
	budget Budget
	trace  func(State)
}

// NewOptimizer validates the budget and returns an Optimizer.
//
// Errors: ErrInvalidBudget.
func NewOptimizer(b Budget, opts ...OptimizerOption) (*Optimizer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{budget: b}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Budget returns the optimizer's budget.
func (o *Optimizer) Budget() Budget { return o.budget }

// Optimize computes a closed tour over m.
//
// For n ≤ Budget.MaxExactN the result is provably optimal (Route.Optimal);
// otherwise it is the heuristic's best tour within the budget. Errors from the
// solvers are returned unchanged so errors.Is matches ErrInfeasibleTour,
// ErrNilMatrix and ErrInvalidBudget.
func (o *Optimizer) Optimize(ctx context.Context, m *costmatrix.Matrix) (Route, error) {
	began := time.Now()
	st := State{Phase: Pending}
	o.emit(st, began)

	n, err := validateMatrix(m)
	if err != nil {
		return o.fail(st, began, err)
	}
	st.N = n

	solver := SelectSolver(n, o.budget)
	st.Phase, st.Solver = Solving, solver.Name()
	o.emit(st, began)

	r, err := solver.Solve(ctx, m)
	if err != nil {
		return o.fail(st, began, err)
	}
	r.Optimal = solver.Name() == ExactSolverName

	st.Phase = Solved
	st.Route = &r
	o.emit(st, began)

	return r, nil
}

func (o *Optimizer) fail(st State, began time.Time, err error) (Route, error) {
	st.Phase, st.Err = Failed, err
	o.emit(st, began)

	return Route{}, err
}

func (o *Optimizer) emit(st State, began time.Time) {
	if o.trace == nil {
		return
	}
	st.Elapsed = time.Since(began)
	o.trace(st)
}

// Optimize is a convenience wrapper: a one-shot Optimizer with no trace,
// run without cancellation.
//
// Errors: ErrInvalidBudget, ErrNilMatrix, ErrInfeasibleTour.
func Optimize(m *costmatrix.Matrix, b Budget) (Route, error) {
	o, err := NewOptimizer(b)
	if err != nil {
		return Route{}, err
	}

	return o.Optimize(context.Background(), m)
}
