// Package tsp computes minimum-cost closed tours over a costmatrix.Matrix.
//
// Two solvers share one Solver interface:
//
//   - ExactSolver: Held–Karp dynamic programming over subsets. O(n²·2ⁿ) time,
//     O(n·2ⁿ) memory, guarantees the global optimum; gated by Budget.MaxExactN.
//   - HeuristicSolver: nearest-neighbour construction (cheapest insertion as
//     fallback) refined by 2-opt and Or-opt local search. O(n²) per pass,
//     bounded by Budget.IterationLimit, Budget.TimeLimit and the context.
//
// Optimize (and Optimizer) pick the solver from the problem size and return a
// Route: a permutation of 0..n-1 starting at location 0, with an implicit
// closing edge back to 0.
//
// Matrices may be asymmetric and incomplete. Entries the matrix marks invalid
// read as +Inf and are never part of a returned tour. If no closed tour exists
// over the valid entries, solvers return ErrInfeasibleTour.
//
// Everything here is a pure, synchronous computation: no logging, no global
// state, and identical inputs give identical Routes.
package tsp
