package tsp

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// ExactSolverName identifies ExactSolver in Route.Solver.
const ExactSolverName = "held-karp"

// ctxCheckMask throttles context checks in the DP to once per 4096 subsets.
const ctxCheckMask = 1<<12 - 1

// ExactSolver solves the problem exactly with the Held–Karp dynamic program.
type ExactSolver struct{}

// Name implements Solver.
func (ExactSolver) Name() string { return ExactSolverName }

// Solve returns a provably minimum-cost closed tour.
//
// The DP runs over subsets S of {1..n-1}; location 0 is the implicit start.
// dp[S][j] is the minimum cost to leave 0, visit exactly S and stop at j∈S:
//
//	dp[{j}][j] = cost(0, j)
//	dp[S][j]   = min over k ∈ S\{j} of dp[S\{j}][k] + cost(k, j)
//	answer     = min over j of dp[Full][j] + cost(j, 0)
//
// Predecessors k and final endpoints j are scanned in ascending index order and
// only a strictly smaller value replaces the incumbent, so among equal-cost
// choices the first one wins and the output is reproducible.
//
// Subsets are encoded as bitmasks with bit (v-1) standing for location v;
// predecessor pointers are stored as int8, which MaxExactLimit keeps in range.
//
// Errors:
//   - ErrNilMatrix for a nil matrix.
//   - ErrInvalidBudget when n > MaxExactLimit.
//   - ErrInfeasibleTour when no closed tour over valid entries exists.
//   - ctx.Err() when the context is done before the table is complete.
//
// Time complexity:   O(n² · 2ⁿ)
// Memory complexity: O(n · 2ⁿ)
func (s ExactSolver) Solve(ctx context.Context, m *costmatrix.Matrix) (Route, error) {
	n, err := validateMatrix(m)
	if err != nil {
		return Route{}, err
	}
	if n > MaxExactLimit {
		return Route{}, fmt.Errorf("exact solver with n=%d above %d: %w", n, MaxExactLimit, ErrInvalidBudget)
	}
	if err = ctx.Err(); err != nil {
		return Route{}, err
	}
	if n == 1 {
		return s.route([]int{0}, 0), nil
	}
	if err = checkReachability(m); err != nil {
		return Route{}, err
	}

	var (
		w    = n - 1         // bits per subset
		full = 1<<w - 1      // every location but 0
		inf  = math.Inf(1)   // "unreached"
		dp   = make([]float64, (full+1)*w)
		prev = make([]int8, (full+1)*w) // predecessor bit, -1 for "came from 0"
	)
	for k := range dp {
		dp[k] = inf
		prev[k] = -1
	}

	// --- 1. Base cases: single-location subsets reached straight from 0.
	var jb, kb int
	for jb = 0; jb < w; jb++ {
		dp[(1<<jb)*w+jb] = m.Cost(0, jb+1)
	}

	// --- 2. Fill subsets in increasing mask order (S\{j} < S always).
	var (
		set, rest int
		best, c   float64
		arg       int
	)
	for set = 1; set <= full; set++ {
		if set&ctxCheckMask == 0 {
			if err = ctx.Err(); err != nil {
				return Route{}, err
			}
		}
		if set&(set-1) == 0 {
			continue // singleton: base case
		}
		for jb = 0; jb < w; jb++ {
			if set&(1<<jb) == 0 {
				continue
			}
			rest = set &^ (1 << jb)
			best, arg = inf, -1
			for kb = 0; kb < w; kb++ {
				if rest&(1<<kb) == 0 {
					continue
				}
				c = dp[rest*w+kb]
				if math.IsInf(c, 1) {
					continue // (rest, k) unreachable
				}
				c += m.Cost(kb+1, jb+1)
				if c < best {
					best, arg = c, kb
				}
			}
			dp[set*w+jb] = best
			prev[set*w+jb] = int8(arg)
		}
	}

	// --- 3. Close the tour back to 0.
	best, arg = inf, -1
	for jb = 0; jb < w; jb++ {
		c = dp[full*w+jb] + m.Cost(jb+1, 0)
		if c < best {
			best, arg = c, jb
		}
	}
	if arg < 0 || math.IsInf(best, 1) {
		return Route{}, fmt.Errorf("no Hamiltonian cycle over %d locations: %w", n, ErrInfeasibleTour)
	}

	// --- 4. Reconstruct by walking predecessor pointers back from the last stop.
	order := make([]int, n)
	set, jb = full, arg
	for pos := n - 1; pos >= 1; pos-- {
		order[pos] = jb + 1
		p := int(prev[set*w+jb])
		set &^= 1 << jb
		jb = p
	}

	return s.route(order, best), nil
}

func (ExactSolver) route(order []int, cost float64) Route {
	cost = round1e9(cost)

	return Route{
		Order:            order,
		Cost:             cost,
		Optimal:          true,
		ConstructionCost: cost,
		Solver:           ExactSolverName,
		Termination:      Exhaustive,
	}
}
