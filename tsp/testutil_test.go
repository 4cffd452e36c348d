// Package tsp_test - shared helpers for the *_test.go files of this package.
package tsp_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/tsp"
)

const (
	// epsCost is the tolerance for comparing reported (1e-9 rounded) costs.
	epsCost = 1e-7

	// seedDet is the deterministic seed of the random generators below.
	seedDet = int64(7)
)

// Repeat runs fn n times. Useful for determinism checks.
func Repeat(t *testing.T, n int, fn func(t *testing.T)) {
	t.Helper()
	var i int
	for i = 0; i < n; i++ {
		fn(t)
	}
}

// mustErrIs asserts that err matches target using errors.Is.
func mustErrIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("want %v, got %v", target, err)
	}
}

// mustFloatClose asserts |got-want| ≤ tol.
func mustFloatClose(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("float mismatch: got=%.12g want=%.12g (tol=%.1e)", got, want, tol)
	}
}

// mustBuild builds a matrix from costs, failing the test on error.
// A nil validity table means "valid where finite".
func mustBuild(t testing.TB, costs [][]float64, valid [][]bool) *costmatrix.Matrix {
	t.Helper()
	m, err := costmatrix.Build(costs, valid)
	if err != nil {
		t.Fatalf("costmatrix.Build: %v", err)
	}

	return m
}

// euclid returns the symmetric Euclidean cost table of 2D points.
func euclid(pts [][2]float64) [][]float64 {
	n := len(pts)
	a := make([][]float64, n)
	var i, j int
	for i = 0; i < n; i++ {
		a[i] = make([]float64, n)
		for j = 0; j < n; j++ {
			a[i][j] = math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1])
		}
	}

	return a
}

// randomPoints returns n points uniformly drawn from the unit square.
func randomPoints(seed int64, n int) [][2]float64 {
	r := rand.New(rand.NewSource(seed))
	pts := make([][2]float64, n)
	for i := range pts {
		pts[i] = [2]float64{r.Float64(), r.Float64()}
	}

	return pts
}

// randomAsym returns an asymmetric table with integer costs in [1, 100].
func randomAsym(seed int64, n int) [][]float64 {
	r := rand.New(rand.NewSource(seed))
	a := make([][]float64, n)
	var i, j int
	for i = 0; i < n; i++ {
		a[i] = make([]float64, n)
		for j = 0; j < n; j++ {
			if i != j {
				a[i][j] = float64(1 + r.Intn(100))
			}
		}
	}

	return a
}

// bruteForce enumerates every tour starting at 0 and returns the minimum
// cost, or +Inf when no tour uses valid legs only. Use for n ≤ 8.
func bruteForce(m *costmatrix.Matrix) float64 {
	n := m.N()
	if n == 1 {
		return 0
	}
	rest := make([]int, n-1)
	for i := range rest {
		rest[i] = i + 1
	}
	best := math.Inf(1)
	order := make([]int, n)

	var permute func(k int)
	permute = func(k int) {
		if k == len(rest) {
			order[0] = 0
			copy(order[1:], rest)
			if c, err := tsp.TourCost(m, order); err == nil && c < best {
				best = c
			}
			return
		}
		for i := k; i < len(rest); i++ {
			rest[k], rest[i] = rest[i], rest[k]
			permute(k + 1)
			rest[k], rest[i] = rest[i], rest[k]
		}
	}
	permute(0)

	return best
}

// mustValidRoute checks the permutation and that Cost matches TourCost.
func mustValidRoute(t *testing.T, m *costmatrix.Matrix, r tsp.Route) {
	t.Helper()
	if err := tsp.ValidateOrder(r.Order, m.N()); err != nil {
		t.Fatalf("invalid order %v: %v", r.Order, err)
	}
	c, err := tsp.TourCost(m, r.Order)
	if err != nil {
		t.Fatalf("TourCost(%v): %v", r.Order, err)
	}
	mustFloatClose(t, r.Cost, c, epsCost)
}
