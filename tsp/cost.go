// Package tsp - closed-tour cost helpers used by both solvers.
//
// Design:
//   - Costs are summed along the closed tour order[0]→…→order[n-1]→order[0].
//   - Stable summation: reported costs are rounded to 1e-9 to avoid
//     cross-platform FP noise.
package tsp

import (
	"fmt"
	"math"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// roundScale controls final cost stabilization precision (1e-9).
const roundScale = 1e9

// TourCost returns the cost of the closed tour described by order.
//
// Contract:
//   - order must pass ValidateOrder (ErrInvalidRoute otherwise).
//   - If any leg uses an invalid entry, the error wraps ErrInfeasibleTour.
//
// Complexity: O(n).
func TourCost(m *costmatrix.Matrix, order []int) (float64, error) {
	n, err := validateMatrix(m)
	if err != nil {
		return 0, err
	}
	if err = ValidateOrder(order, n); err != nil {
		return 0, err
	}
	var p int
	for p = 0; p < n; p++ {
		u, v := order[p], order[(p+1)%n]
		if !m.Valid(u, v) {
			return 0, fmt.Errorf("leg %d→%d has no known route: %w", u, v, ErrInfeasibleTour)
		}
	}

	return round1e9(closedCost(m, order)), nil
}

// closedCost sums the closed tour without validation; invalid legs make it +Inf.
//
// Complexity: O(n).
func closedCost(m *costmatrix.Matrix, order []int) float64 {
	n := len(order)
	if n < 2 {
		return 0
	}
	var (
		sum float64
		p   int
	)
	for p = 0; p < n-1; p++ {
		sum += m.Cost(order[p], order[p+1])
	}

	return sum + m.Cost(order[n-1], order[0])
}

// round1e9 returns x rounded to 1e-9 absolute precision.
//
// Complexity: O(1).
func round1e9(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}

	return math.Round(x*roundScale) / roundScale
}
