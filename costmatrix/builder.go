package costmatrix

import (
	"fmt"
	"math"
	"sync"
)

// entryState tracks the resolution of one off-diagonal entry.
type entryState uint8

const (
	statePending entryState = iota
	stateSet
	stateInvalid
)

// Builder accumulates directed costs for N locations and produces an
// immutable Matrix. It separates the append/validate phase (acquisition)
// from the read-only solving phase.
//
// All methods are safe for concurrent use, so acquisition batches may write
// into the same Builder from several goroutines. For a given pair the last
// write wins, whether it was Set or MarkInvalid.
type Builder struct {
	mu      sync.Mutex
	n       int
	cost    []float64
	state   []entryState
	pending int
	index   map[string]int
	opts    options
}

// NewBuilder returns a Builder for n locations with every off-diagonal pair
// pending and the diagonal resolved to 0.
//
// Errors: ErrEmpty for n < 1, ErrBadOption for inconsistent options.
func NewBuilder(n int, opts ...Option) (*Builder, error) {
	if n < 1 {
		return nil, ErrEmpty
	}
	o, err := gatherOptions(n, opts)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		n:       n,
		cost:    make([]float64, n*n),
		state:   make([]entryState, n*n),
		pending: n*n - n,
		opts:    o,
	}
	for i := 0; i < n; i++ {
		b.state[i*n+i] = stateSet
	}
	if o.labels != nil {
		b.index = make(map[string]int, n)
		for i, l := range o.labels {
			b.index[l] = i
		}
	}

	return b, nil
}

// N returns the number of locations.
func (b *Builder) N() int { return b.n }

// Set records the cost of i→j.
//
// NaN or +Inf records the pair as invalid, mirroring Build. A self pair
// accepts only a (near) zero cost. Negative costs are rejected.
func (b *Builder) Set(i, j int, cost float64) error {
	if err := b.checkIndex(i, j); err != nil {
		return err
	}
	if i == j {
		return checkSelf(i, cost)
	}
	if cost < 0 || math.IsInf(cost, -1) {
		return fmt.Errorf("entry %d→%d = %v: %w", i, j, cost, ErrNegativeCost)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if math.IsNaN(cost) || math.IsInf(cost, 1) {
		b.resolve(i, j, 0, stateInvalid)
		return nil
	}
	b.resolve(i, j, cost, stateSet)

	return nil
}

// MarkInvalid records that no route i→j exists. Marking a self pair is a no-op:
// the diagonal is always valid.
func (b *Builder) MarkInvalid(i, j int) error {
	if err := b.checkIndex(i, j); err != nil {
		return err
	}
	if i == j {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolve(i, j, 0, stateInvalid)

	return nil
}

// SetByLabel is Set addressed by location labels.
func (b *Builder) SetByLabel(from, to string, cost float64) error {
	i, j, err := b.lookup(from, to)
	if err != nil {
		return err
	}

	return b.Set(i, j, cost)
}

// MarkInvalidByLabel is MarkInvalid addressed by location labels.
func (b *Builder) MarkInvalidByLabel(from, to string) error {
	i, j, err := b.lookup(from, to)
	if err != nil {
		return err
	}

	return b.MarkInvalid(i, j)
}

// IsPending reports whether i→j is still unresolved.
func (b *Builder) IsPending(i, j int) bool {
	if b.checkIndex(i, j) != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state[i*b.n+j] == statePending
}

// Pending returns the number of unresolved off-diagonal pairs.
func (b *Builder) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pending
}

// Resolved returns the number of off-diagonal pairs that were set or marked invalid.
func (b *Builder) Resolved() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.n*b.n - b.n - b.pending
}

// Unresolved lists the pending pairs in row-major order.
func (b *Builder) Unresolved() []Pair {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Pair, 0, b.pending)
	var i, j int
	for i = 0; i < b.n; i++ {
		for j = 0; j < b.n; j++ {
			if b.state[i*b.n+j] == statePending {
				out = append(out, Pair{From: i, To: j})
			}
		}
	}

	return out
}

// Build applies the MissingPolicy to pending pairs and returns a new
// immutable Matrix. The Builder is left unchanged and may keep accumulating;
// each Build returns an independent snapshot.
//
// Errors: ErrUnresolved under MissingReject, naming the first pending pair in
// row-major order.
func (b *Builder) Build() (*Matrix, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := newMatrix(b.n)
	if b.opts.labels != nil {
		m.labels = append([]string(nil), b.opts.labels...)
	}

	var i, j int
	for i = 0; i < b.n; i++ {
		for j = 0; j < b.n; j++ {
			if i == j {
				continue
			}
			k := i*b.n + j
			switch b.state[k] {
			case stateSet:
				m.cost[k] = b.cost[k]
				m.valid[k] = true
			case stateInvalid:
				// newMatrix already holds (+Inf, false)
			case statePending:
				switch b.opts.policy {
				case MissingReject:
					return nil, fmt.Errorf("%d pending, first %s: %w", b.pending, Pair{From: i, To: j}, ErrUnresolved)
				case MissingEstimate:
					if c, ok := b.opts.estimator(i, j); ok && c >= 0 && !math.IsNaN(c) && !math.IsInf(c, 0) {
						m.cost[k] = c
						m.valid[k] = true
					}
				}
			}
		}
	}

	return m, nil
}

// resolve updates one entry; callers hold b.mu.
func (b *Builder) resolve(i, j int, cost float64, s entryState) {
	k := i*b.n + j
	if b.state[k] == statePending {
		b.pending--
	}
	b.state[k] = s
	b.cost[k] = cost
}

func (b *Builder) checkIndex(i, j int) error {
	if i < 0 || i >= b.n || j < 0 || j >= b.n {
		return fmt.Errorf("entry %d→%d with %d locations: %w", i, j, b.n, ErrOutOfRange)
	}

	return nil
}

func (b *Builder) lookup(from, to string) (int, int, error) {
	if b.index == nil {
		return 0, 0, fmt.Errorf("builder has no labels: %w", ErrUnknownLabel)
	}
	i, ok := b.index[from]
	if !ok {
		return 0, 0, fmt.Errorf("%q: %w", from, ErrUnknownLabel)
	}
	j, ok := b.index[to]
	if !ok {
		return 0, 0, fmt.Errorf("%q: %w", to, ErrUnknownLabel)
	}

	return i, j, nil
}
