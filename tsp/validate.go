// Package tsp - validation helpers shared by the solvers and the optimizer.
//
// Design principles:
//   - Deterministic, side-effect free functions.
//   - No logging, no panics on user input - only sentinels from types.go,
//     wrapped with detail.
package tsp

import (
	"fmt"
	"math"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// Validate checks the budget fields against their documented ranges.
//
// Complexity: O(1).
func (b Budget) Validate() error {
	if b.MaxExactN < 1 || b.MaxExactN > MaxExactLimit {
		return fmt.Errorf("MaxExactN=%d outside [1,%d]: %w", b.MaxExactN, MaxExactLimit, ErrInvalidBudget)
	}
	if b.IterationLimit < 1 {
		return fmt.Errorf("IterationLimit=%d must be positive: %w", b.IterationLimit, ErrInvalidBudget)
	}
	if b.TimeLimit < 0 {
		return fmt.Errorf("TimeLimit=%s is negative: %w", b.TimeLimit, ErrInvalidBudget)
	}
	if b.Eps < 0 || math.IsNaN(b.Eps) || math.IsInf(b.Eps, 0) {
		return fmt.Errorf("Eps=%v must be finite and non-negative: %w", b.Eps, ErrInvalidBudget)
	}

	return nil
}

// validateMatrix rejects a nil matrix and returns n.
func validateMatrix(m *costmatrix.Matrix) (int, error) {
	if m == nil {
		return 0, ErrNilMatrix
	}

	return m.N(), nil
}

// ValidateOrder checks that order is a permutation of 0..n-1 with order[0]==0.
//
// Complexity: O(n) time, O(n) space.
func ValidateOrder(order []int, n int) error {
	if n < 1 || len(order) != n {
		return fmt.Errorf("order has %d entries, want %d: %w", len(order), n, ErrInvalidRoute)
	}
	if order[0] != 0 {
		return fmt.Errorf("order starts at %d, want 0: %w", order[0], ErrInvalidRoute)
	}
	seen := make([]bool, n)

	var (
		p int
		v int
	)
	for p = 0; p < n; p++ {
		v = order[p]
		if v < 0 || v >= n {
			return fmt.Errorf("location %d out of range: %w", v, ErrInvalidRoute)
		}
		if seen[v] {
			return fmt.Errorf("location %d repeated: %w", v, ErrInvalidRoute)
		}
		seen[v] = true
	}

	return nil
}
