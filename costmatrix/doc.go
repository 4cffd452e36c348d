// Package costmatrix holds the pairwise travel costs consumed by the tour
// solvers in package tsp.
//
// A Matrix is an immutable N×N table of directed costs together with a
// parallel validity table:
//
//   - cost(i, j) is the travel cost from location i to location j;
//   - valid(i, j) reports whether a route i→j is known at all.
//
// Invariants enforced at construction:
//
//   - N ≥ 1;
//   - cost(i, i) = 0 and valid(i, i) = true;
//   - every valid cost is finite and non-negative;
//   - an invalid entry reads as +Inf through Cost, so no solver can pick it.
//
// The matrix need not be symmetric: one-way streets and traffic direction make
// cost(i, j) and cost(j, i) differ in practice.
//
// Two ways to obtain a Matrix:
//
//   - Build, from complete raw tables (the shape used in tests and by callers
//     that already hold a full table);
//   - Builder, which accumulates entries one by one (possibly from concurrent
//     acquisition batches, possibly keyed by label) and produces the Matrix
//     only once every pair is either resolved or explicitly marked invalid.
//     Pairs still pending at Build time are handled by a MissingPolicy.
//
// Errors are sentinels from errors.go. Every shape or value violation wraps
// ErrInvalidMatrix, so callers can match the whole family with one errors.Is.
package costmatrix
