package costmatrix

import (
	"fmt"
	"math"
)

// DiagonalTolerance is the largest |cost(i,i)| accepted as "zero" on input.
// Accepted values are normalized to an exact 0.
const DiagonalTolerance = 1e-12

// Pair names a directed entry From→To.
type Pair struct {
	From int
	To   int
}

// String renders the pair as "from→to".
func (p Pair) String() string { return fmt.Sprintf("%d→%d", p.From, p.To) }

// Matrix is an immutable N×N table of directed travel costs with validity flags.
//
// Storage is row-major and flat (cost[i*n+j]); invalid entries are stored as
// +Inf so that Cost is a single load on the solver hot path.
// A Matrix is never mutated after construction and is safe for concurrent reads.
type Matrix struct {
	n      int
	cost   []float64 // len n*n; +Inf where !valid
	valid  []bool    // len n*n; diagonal always true
	labels []string  // optional, len n when present
}

// Build validates raw acquisition tables and returns an immutable Matrix.
//
// Contract:
//   - rawCosts must be N×N with N ≥ 1 (ErrEmpty, ErrNonSquare).
//   - A diagonal entry is either absent (NaN or +Inf) or zero within
//     DiagonalTolerance (ErrNonZeroDiagonal). It is stored as exactly 0.
//   - An off-diagonal NaN or +Inf marks the entry invalid ("no known route").
//   - Negative costs (including -Inf) are rejected (ErrNegativeCost).
//   - rawValidity may be nil, meaning "valid wherever the cost is finite".
//     Otherwise it must be N×N (ErrValidityShape); false marks an entry
//     invalid regardless of its cost. Diagonal flags are forced to true.
//
// The inputs are copied; later changes to them do not affect the Matrix.
//
// Complexity: O(N²) time and memory.
func Build(rawCosts [][]float64, rawValidity [][]bool) (*Matrix, error) {
	n := len(rawCosts)
	if n < 1 {
		return nil, ErrEmpty
	}
	var i, j int
	for i = 0; i < n; i++ {
		if len(rawCosts[i]) != n {
			return nil, fmt.Errorf("row %d has %d entries, want %d: %w", i, len(rawCosts[i]), n, ErrNonSquare)
		}
	}
	if rawValidity != nil {
		if len(rawValidity) != n {
			return nil, fmt.Errorf("validity has %d rows, want %d: %w", len(rawValidity), n, ErrValidityShape)
		}
		for i = 0; i < n; i++ {
			if len(rawValidity[i]) != n {
				return nil, fmt.Errorf("validity row %d has %d entries, want %d: %w", i, len(rawValidity[i]), n, ErrValidityShape)
			}
		}
	}

	m := newMatrix(n)
	var (
		c  float64
		ok bool
	)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			c = rawCosts[i][j]
			if i == j {
				if err := checkSelf(i, c); err != nil {
					return nil, err
				}
				continue // newMatrix already holds (0, true)
			}
			ok = rawValidity == nil || rawValidity[i][j]
			if err := m.put(i, j, c, ok); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// newMatrix allocates an n×n matrix with a valid zero diagonal and every
// off-diagonal entry invalid.
func newMatrix(n int) *Matrix {
	m := &Matrix{
		n:     n,
		cost:  make([]float64, n*n),
		valid: make([]bool, n*n),
	}
	inf := math.Inf(1)
	for k := range m.cost {
		m.cost[k] = inf
	}
	for i := 0; i < n; i++ {
		m.cost[i*n+i] = 0
		m.valid[i*n+i] = true
	}

	return m
}

// put stores one off-diagonal entry. NaN/+Inf or ok=false store an invalid entry.
func (m *Matrix) put(i, j int, c float64, ok bool) error {
	if c < 0 || math.IsInf(c, -1) {
		return fmt.Errorf("entry %d→%d = %v: %w", i, j, c, ErrNegativeCost)
	}
	k := i*m.n + j
	if !ok || math.IsNaN(c) || math.IsInf(c, 1) {
		m.cost[k] = math.Inf(1)
		m.valid[k] = false
		return nil
	}
	m.cost[k] = c
	m.valid[k] = true

	return nil
}

// checkSelf accepts an absent (NaN/+Inf) or near-zero self-distance.
func checkSelf(i int, c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 1) {
		return nil
	}
	if math.Abs(c) > DiagonalTolerance {
		return fmt.Errorf("entry %d→%d = %v: %w", i, i, c, ErrNonZeroDiagonal)
	}

	return nil
}

// N returns the number of locations.
func (m *Matrix) N() int { return m.n }

// Cost returns the cost of the directed edge i→j, or +Inf when the entry is
// invalid. Indices must be in [0, N); out-of-range indices panic like a slice
// index would. Use At for a checked lookup.
func (m *Matrix) Cost(i, j int) float64 {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		panic(fmt.Sprintf("costmatrix: Cost(%d,%d) out of range [0,%d)", i, j, m.n))
	}

	return m.cost[i*m.n+j]
}

// At is the bounds-checked form of Cost.
func (m *Matrix) At(i, j int) (float64, error) {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		return 0, fmt.Errorf("At(%d,%d): %w", i, j, ErrOutOfRange)
	}

	return m.cost[i*m.n+j], nil
}

// Valid reports whether a route i→j is known. Out-of-range indices report false.
func (m *Matrix) Valid(i, j int) bool {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		return false
	}

	return m.valid[i*m.n+j]
}

// IsSymmetric reports whether cost(i,j) and cost(j,i) agree within eps for
// every pair, with validity agreeing as well.
//
// Complexity: O(N²).
func (m *Matrix) IsSymmetric(eps float64) bool {
	var i, j int
	for i = 0; i < m.n; i++ {
		for j = i + 1; j < m.n; j++ {
			a, b := i*m.n+j, j*m.n+i
			if m.valid[a] != m.valid[b] {
				return false
			}
			if m.valid[a] && math.Abs(m.cost[a]-m.cost[b]) > eps {
				return false
			}
		}
	}

	return true
}

// InvalidPairs lists every off-diagonal invalid entry in row-major order.
func (m *Matrix) InvalidPairs() []Pair {
	var out []Pair
	var i, j int
	for i = 0; i < m.n; i++ {
		for j = 0; j < m.n; j++ {
			if !m.valid[i*m.n+j] {
				out = append(out, Pair{From: i, To: j})
			}
		}
	}

	return out
}

// Complete reports whether every entry is valid.
func (m *Matrix) Complete() bool {
	for _, v := range m.valid {
		if !v {
			return false
		}
	}

	return true
}

// Label returns the label of location i, or "" when the matrix is unlabeled
// or i is out of range.
func (m *Matrix) Label(i int) string {
	if m.labels == nil || i < 0 || i >= m.n {
		return ""
	}

	return m.labels[i]
}

// Labels returns a copy of the labels, or nil for an unlabeled matrix.
func (m *Matrix) Labels() []string {
	if m.labels == nil {
		return nil
	}

	return append([]string(nil), m.labels...)
}
