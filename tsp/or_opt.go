package tsp

// OrOptMaxChain is the longest chain of consecutive locations Or-opt relocates.
const OrOptMaxChain = 3

// orOptPass tries to move chains of 1..OrOptMaxChain consecutive locations to
// a cheaper position, keeping their direction. For a chain s..e between p and q,
// reinserted between u and v:
//
//	Δ = w(p,q) + w(u,s) + w(e,v) − w(p,s) − w(e,q) − w(u,v)
//
// Chains never contain position 0, so the start stays in front. Chain starts
// i, chain lengths l and targets j are scanned in ascending order; for each
// (i,l) the first target with Δ < −Eps is applied and the scan moves on.
// Returns the number of applied moves.
//
// Complexity: O(n²·OrOptMaxChain) candidate checks; O(n) per applied move.
func (ls *localSearch) orOptPass() int {
	n := ls.n
	if n < 3 {
		return 0
	}

	var (
		applied int
		i, l, j int
		delta   float64
		ok      bool
	)
	for i = 1; i <= n-1; i++ {
		for l = 1; l <= OrOptMaxChain && i+l-1 <= n-1 && n-l >= 2; l++ {
			for j = 0; j < n; j++ {
				if j >= i-1 && j <= i+l-1 {
					continue // target edge touches the chain
				}
				if ls.interrupted() {
					return applied
				}
				delta, ok = ls.orOptDelta(i, l, j)
				if !ok || delta >= -ls.eps {
					continue
				}

				relocateChain(ls.scratch, ls.order, i, l, j)
				ls.order, ls.scratch = ls.scratch, ls.order
				if !ls.commit() {
					ls.order, ls.scratch = ls.scratch, ls.order
					continue
				}
				applied++
				break
			}
		}
	}

	return applied
}

// orOptDelta returns the cost change of moving the chain order[i..i+l-1] after
// position j, and false when the move would use an invalid leg.
//
// Complexity: O(1).
func (ls *localSearch) orOptDelta(i, l, j int) (float64, bool) {
	n := ls.n
	p := ls.order[i-1]
	s := ls.order[i]
	e := ls.order[i+l-1]
	q := ls.order[(i+l)%n]
	u := ls.order[j]
	v := ls.order[(j+1)%n]

	bridge := ls.m.Cost(p, q)
	added := ls.m.Cost(u, s) + ls.m.Cost(e, v)
	if isInf(bridge) || isInf(added) {
		return 0, false
	}

	return bridge + added - ls.m.Cost(p, s) - ls.m.Cost(e, q) - ls.m.Cost(u, v), true
}
