// Package tsp - 2-opt local search on a closed tour with a fixed start.
//
// A move picks positions 1 ≤ i < k ≤ n-1 and reverses order[i..k]:
//
//	a=order[i-1], b=order[i], c=order[k], d=order[(k+1)%n]
//	… a → b → … → c → d …   becomes   … a → c → … → b → d …
//
// On an asymmetric matrix the reversed segment is traversed backwards, so its
// inner legs change cost too. The full delta is therefore
//
//	Δ = w(a,c) + w(b,d) − w(a,b) − w(c,d) + rev(i..k) − fwd(i..k)
//
// where fwd/rev are the forward and backward costs of the segment's inner
// legs, read from prefix sums in O(1). Every leg the move introduces must be
// valid; prefix counters of invalid backward legs reject moves that would
// traverse one.
//
// Design:
//   - Deterministic ascending (i,k) scan; after an applied move the scan
//     continues with the next k.
//   - A move is accepted only when Δ < −Eps, and is confirmed against an
//     exact O(n) recomputation so the tour cost never goes up.
package tsp

// twoOptPass runs one ascending scan over all (i,k) pairs and returns the
// number of applied moves. It stops early (returning what it applied so far)
// when ls.interrupted reports true.
//
// Complexity: O(n²) candidate checks; O(n) per applied move.
func (ls *localSearch) twoOptPass() int {
	n := ls.n
	if n < 3 {
		return 0
	}
	ls.rebuildPrefix()

	var (
		applied int
		i, k    int
		delta   float64
		ok      bool
	)
	for i = 1; i <= n-2; i++ {
		for k = i + 1; k <= n-1; k++ {
			if ls.interrupted() {
				return applied
			}
			delta, ok = ls.twoOptDelta(i, k)
			if !ok || delta >= -ls.eps {
				continue
			}

			reverseInPlace(ls.order, i, k)
			if !ls.commit() {
				reverseInPlace(ls.order, i, k) // rounding noise, not a real gain
				continue
			}
			applied++
			ls.rebuildPrefix()
		}
	}

	return applied
}

// twoOptDelta returns the cost change of reversing order[i..k], and false when
// the move would use an invalid leg. The prefix sums must be current.
//
// Complexity: O(1).
func (ls *localSearch) twoOptDelta(i, k int) (float64, bool) {
	a := ls.order[i-1]
	b := ls.order[i]
	c := ls.order[k]
	d := ls.order[(k+1)%ls.n]

	added := ls.m.Cost(a, c) + ls.m.Cost(b, d)
	if isInf(added) {
		return 0, false // a new leg has no known route
	}
	delta := added - ls.m.Cost(a, b) - ls.m.Cost(c, d)
	if ls.symmetric {
		return delta, true
	}
	if ls.bad[k]-ls.bad[i] > 0 {
		return 0, false // reversed segment would use an invalid leg
	}

	return delta + (ls.bwd[k] - ls.bwd[i]) - (ls.fwd[k] - ls.fwd[i]), true
}

// rebuildPrefix recomputes the forward/backward prefix sums of the current order:
//
//	fwd[p] = Σ_{q<p} w(order[q], order[q+1])
//	bwd[p] = Σ_{q<p} w(order[q+1], order[q])   (valid legs only)
//	bad[p] = #{q<p : order[q+1]→order[q] invalid}
//
// Complexity: O(n).
func (ls *localSearch) rebuildPrefix() {
	var (
		p    int
		u, v int
		w    float64
	)
	for p = 0; p < ls.n-1; p++ {
		u, v = ls.order[p], ls.order[p+1]
		ls.fwd[p+1] = ls.fwd[p] + ls.m.Cost(u, v)
		w = ls.m.Cost(v, u)
		if isInf(w) {
			ls.bwd[p+1] = ls.bwd[p]
			ls.bad[p+1] = ls.bad[p] + 1
			continue
		}
		ls.bwd[p+1] = ls.bwd[p] + w
		ls.bad[p+1] = ls.bad[p]
	}
}
