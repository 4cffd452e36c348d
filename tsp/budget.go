package tsp

import "time"

// Defaults (single source of truth for DefaultBudget).
const (
	// DefaultMaxExactN is the largest n solved exactly by default.
	// Held–Karp at n=12 touches ~2.2·10⁵ states.
	DefaultMaxExactN = 12

	// DefaultIterationLimit caps local-search iterations by default.
	DefaultIterationLimit = 1000

	// DefaultEps is the strict-improvement tolerance: a move is applied only
	// when it lowers the cost by more than Eps.
	DefaultEps = 1e-9

	// MaxExactLimit is the hard ceiling for MaxExactN. At n=20 the DP tables
	// take roughly 90 MB.
	MaxExactLimit = 20
)

// Budget controls the size/quality trade-off of the optimizer.
// It is a plain value; it is never mutated by the solvers.
type Budget struct {
	// MaxExactN is the largest n for which the exact solver is used.
	// Must be in [1, MaxExactLimit].
	MaxExactN int

	// IterationLimit caps heuristic local-search iterations (one iteration is
	// a 2-opt pass followed by an Or-opt pass). Must be positive.
	IterationLimit int

	// TimeLimit caps heuristic local search wall-clock time. 0 means no limit.
	TimeLimit time.Duration

	// Eps is the strict-improvement tolerance. Must be finite and ≥ 0.
	Eps float64
}

// DefaultBudget returns the documented defaults with no time limit.
func DefaultBudget() Budget {
	return Budget{
		MaxExactN:      DefaultMaxExactN,
		IterationLimit: DefaultIterationLimit,
		Eps:            DefaultEps,
	}
}
