package tsp

import (
	"context"
	"math"
	"time"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// interruptCheckMask throttles clock and context reads inside a pass to once
// per 256 candidate moves.
const interruptCheckMask = 1<<8 - 1

// localSearch is the mutable state of one heuristic run. It is owned by a
// single goroutine and discarded when the run ends.
type localSearch struct {
	m         *costmatrix.Matrix
	n         int
	order     []int
	scratch   []int
	cost      float64 // exact closed cost of order
	eps       float64
	symmetric bool

	fwd, bwd []float64 // 2-opt prefix sums, see rebuildPrefix
	bad      []int

	ctx      context.Context
	deadline time.Time // zero: no time limit
	limit    int

	steps int
	stop  Termination
	done  bool
}

// newLocalSearch takes ownership of order, which must be a valid closed tour.
func newLocalSearch(ctx context.Context, m *costmatrix.Matrix, order []int, b Budget) *localSearch {
	n := len(order)
	ls := &localSearch{
		m:         m,
		n:         n,
		order:     order,
		scratch:   make([]int, n),
		cost:      closedCost(m, order),
		eps:       b.Eps,
		symmetric: m.IsSymmetric(0),
		fwd:       make([]float64, n),
		bwd:       make([]float64, n),
		bad:       make([]int, n),
		ctx:       ctx,
		limit:     b.IterationLimit,
	}
	if b.TimeLimit > 0 {
		ls.deadline = time.Now().Add(b.TimeLimit)
	}

	return ls
}

// run alternates 2-opt and Or-opt passes until an iteration applies no move or
// the budget runs out. It returns the applied moves and iterations run; the
// reason for stopping is left in ls.stop.
func (ls *localSearch) run() (moves, iterations int) {
	var applied int
	for {
		if ls.exhausted() {
			return moves, iterations
		}
		if iterations >= ls.limit {
			ls.stop = IterationLimit
			return moves, iterations
		}

		applied = ls.twoOptPass()
		if !ls.done {
			applied += ls.orOptPass()
		}
		moves += applied
		iterations++

		if ls.done {
			return moves, iterations
		}
		if applied == 0 {
			ls.stop = Converged
			return moves, iterations
		}
	}
}

// interrupted reports whether the run must stop. Inside passes it consults
// the clock and context only every interruptCheckMask+1 calls.
func (ls *localSearch) interrupted() bool {
	if ls.done {
		return true
	}
	ls.steps++
	if ls.steps&interruptCheckMask != 0 {
		return false
	}

	return ls.exhausted()
}

// exhausted checks the context and the deadline, recording the first reason
// found in ls.stop.
func (ls *localSearch) exhausted() bool {
	if ls.done {
		return true
	}
	if ls.ctx.Err() != nil {
		ls.stop, ls.done = Canceled, true
		return true
	}
	if !ls.deadline.IsZero() && !time.Now().Before(ls.deadline) {
		ls.stop, ls.done = TimeLimit, true
		return true
	}

	return false
}

// commit recomputes the exact cost of ls.order and keeps the move only if the
// tour got strictly cheaper. It reports whether the move was kept; on false
// the caller restores the previous order.
//
// Complexity: O(n).
func (ls *localSearch) commit() bool {
	c := closedCost(ls.m, ls.order)
	if !(c < ls.cost) {
		return false
	}
	ls.cost = c

	return true
}

// isInf reports whether c is +Inf, the cost of an invalid entry.
func isInf(c float64) bool { return math.IsInf(c, 1) }
