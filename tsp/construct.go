package tsp

import (
	"fmt"
	"math"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// Construction methods reported in Route.Construction.
const (
	ConstructNearest   = "nearest-neighbor"
	ConstructInsertion = "cheapest-insertion"
)

// construct builds the initial closed tour for the heuristic.
//
// Nearest neighbour runs first; when it walks into a dead end (no valid leg to
// any unvisited location, or no valid leg back to 0) cheapest insertion is
// tried. If neither closes a tour the error wraps ErrInfeasibleTour; both are
// greedy, so that failure does not prove the matrix has no tour.
//
// Complexity: O(n²) for nearest neighbour, O(n³) for the insertion fallback.
func construct(m *costmatrix.Matrix) ([]int, string, error) {
	if order, ok := nearestNeighbor(m); ok {
		return order, ConstructNearest, nil
	}
	if order, ok := cheapestInsertion(m); ok {
		return order, ConstructInsertion, nil
	}

	return nil, "", fmt.Errorf("greedy construction found no closed tour over %d locations (a tour may still exist; the exact solver decides): %w", m.N(), ErrInfeasibleTour)
}

// nearestNeighbor starts at 0 and repeatedly takes the cheapest valid leg to
// an unvisited location; ties go to the lowest index. It reports false when it
// gets stuck or the final leg back to 0 is invalid.
//
// Complexity: O(n²) time, O(n) space.
func nearestNeighbor(m *costmatrix.Matrix) ([]int, bool) {
	n := m.N()
	order := make([]int, 1, n)
	visited := make([]bool, n)
	visited[0] = true

	var (
		cur  = 0
		next int
		best float64
		c    float64
		v    int
	)
	for len(order) < n {
		next, best = -1, math.Inf(1)
		for v = 0; v < n; v++ {
			if visited[v] {
				continue
			}
			c = m.Cost(cur, v)
			if c < best {
				next, best = v, c
			}
		}
		if next < 0 {
			return nil, false
		}
		visited[next] = true
		order = append(order, next)
		cur = next
	}
	if n > 1 && !m.Valid(cur, 0) {
		return nil, false
	}

	return order, true
}

// cheapestInsertion grows a closed tour from location 0. The seed is the
// cheapest valid round trip 0→v→0; then, until every location is placed, the
// (location, position) pair with the smallest valid insertion delta is applied.
// Locations and positions are scanned in ascending order; ties keep the first.
//
// Complexity: O(n³) time, O(n) space.
func cheapestInsertion(m *costmatrix.Matrix) ([]int, bool) {
	n := m.N()
	if n == 1 {
		return []int{0}, true
	}
	inTour := make([]bool, n)
	inTour[0] = true

	// Seed with the cheapest valid 2-cycle.
	var (
		seed = -1
		best = math.Inf(1)
		c    float64
		v    int
	)
	for v = 1; v < n; v++ {
		c = m.Cost(0, v) + m.Cost(v, 0)
		if c < best {
			seed, best = v, c
		}
	}
	if seed < 0 {
		return nil, false
	}
	order := make([]int, 2, n)
	order[0], order[1] = 0, seed
	inTour[seed] = true

	var (
		p, q, pos int
		a, b      int
		delta     float64
	)
	for len(order) < n {
		v, pos, best = -1, -1, math.Inf(1)
		for q = 0; q < n; q++ {
			if inTour[q] {
				continue
			}
			for p = 0; p < len(order); p++ {
				a, b = order[p], order[(p+1)%len(order)]
				delta = m.Cost(a, q) + m.Cost(q, b) - m.Cost(a, b)
				if delta < best {
					v, pos, best = q, p, delta
				}
			}
		}
		if v < 0 {
			return nil, false
		}
		order = append(order, 0)
		copy(order[pos+2:], order[pos+1:])
		order[pos+1] = v
		inTour[v] = true
	}

	return order, true
}
