// Package tsp - tour helpers used by both solvers and the optimizer.
//
// Tours are held as open orders: a permutation of 0..n-1 starting at 0, with
// the closing edge order[n-1]→order[0] implied.
package tsp

// IdentityOrder returns [0, 1, …, n-1], the input-order tour.
func IdentityOrder(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

// reverseInPlace reverses order[i..k] (inclusive).
//
// Complexity: O(k-i).
func reverseInPlace(order []int, i, k int) {
	for i < k {
		order[i], order[k] = order[k], order[i]
		i++
		k--
	}
}

// relocateChain moves the chain order[i..i+l-1] so that it follows the
// location currently at position j (j outside the chain and not i-1).
// The result is written into dst, which must have len(order).
//
// Complexity: O(n).
func relocateChain(dst, order []int, i, l, j int) {
	n := len(order)
	w := 0
	for p := 0; p < n; p++ {
		if p >= i && p < i+l {
			continue // chain is re-emitted after position j
		}
		dst[w] = order[p]
		w++
		if p == j {
			w += copy(dst[w:], order[i:i+l])
		}
	}
}
