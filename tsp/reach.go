package tsp

import (
	"fmt"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// checkReachability verifies a necessary condition for a closed tour: every
// location is reachable from 0 and can reach 0 over valid entries. It runs
// two breadth-first searches over the validity table, forward and reverse.
//
// A matrix that passes may still have no Hamiltonian cycle; a matrix that
// fails certainly has none.
//
// Complexity: O(n²) time, O(n) space.
func checkReachability(m *costmatrix.Matrix) error {
	n := m.N()
	if n == 1 {
		return nil
	}
	if v := unreached(m, false); v >= 0 {
		return fmt.Errorf("location %d is unreachable from location 0: %w", v, ErrInfeasibleTour)
	}
	if v := unreached(m, true); v >= 0 {
		return fmt.Errorf("location 0 is unreachable from location %d: %w", v, ErrInfeasibleTour)
	}
	return nil
}

// unreached runs BFS from 0 (following edges backwards when reverse is set)
// and returns the lowest unvisited location, or -1 when all were visited.
func unreached(m *costmatrix.Matrix, reverse bool) int {
	n := m.N()
	visited := make([]bool, n)
	queue := make([]int, 0, n)
	visited[0] = true
	queue = append(queue, 0)

	var u, v int
	for len(queue) > 0 {
		u = queue[0]
		queue = queue[1:]
		for v = 0; v < n; v++ {
			if visited[v] || v == u {
				continue
			}
			ok := m.Valid(u, v)
			if reverse {
				ok = m.Valid(v, u)
			}
			if ok {
				visited[v] = true
				queue = append(queue, v)
			}
		}
	}
	for v = 0; v < n; v++ {
		if !visited[v] {
			return v
		}
	}

	return -1
}
