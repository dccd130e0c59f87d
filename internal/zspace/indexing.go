package zspace

import "fmt"

// IntPow computes base**exp exactly by exponentiation-by-squaring.
// Panics if exp is negative; there are no fractional values in this space.
func IntPow(base, exp int64) int64 {
	if exp < 0 {
		panic(fmt.Sprintf("zspace: negative exponent %d", exp))
	}

	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// IntLog computes floor(log_base(value)): the largest k with base**k <= value.
// Panics if base <= 1 or value <= 0.
//
// The exponent is found by binary search over candidate powers, compared
// against value without ever materializing a power that could overflow.
func IntLog(value, base int64) int64 {
	if base <= 1 {
		panic(fmt.Sprintf("zspace: log base must be > 1, got %d", base))
	}
	if value <= 0 {
		panic(fmt.Sprintf("zspace: log value must be > 0, got %d", value))
	}

	// Double hi until it is an exclusive upper bound on the exponent.
	// powAtMost compares without computing the power, so this cannot
	// overflow: base >= 2 caps the true exponent at 62, and hi stops at
	// the first power of two beyond it.
	lo, hi := int64(0), int64(1)
	for powAtMost(base, hi, value) {
		lo = hi
		hi *= 2
	}

	// Invariant: base**lo <= value < base**hi.
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if powAtMost(base, mid, value) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// powAtMost reports whether base**exp <= limit. The running product is
// checked against limit/base before every multiplication, so the result
// is exact even when base**exp would overflow int64.
func powAtMost(base, exp, limit int64) bool {
	result := int64(1)
	for ; exp > 0; exp-- {
		if result > limit/base {
			return false
		}
		result *= base
	}
	return true
}

// CommonBroadcastShape resolves the common shape of multi-axis shapes under
// NumPy broadcasting: shapes are right-aligned by trailing axis, and each
// axis resolves to the larger of the sizes when they are equal, one side is
// 1, or one side is absent. Panics on incompatible axes.
func CommonBroadcastShape(shapes ...Point) Point {
	ndim := 0
	for _, s := range shapes {
		if s.NDim() > ndim {
			ndim = s.NDim()
		}
	}

	res := make([]int64, ndim)
	for i := range res {
		res[i] = 1
	}

	for _, s := range shapes {
		shift := ndim - s.NDim()
		for k := 0; k < s.NDim(); k++ {
			size := s.Coord(k)
			i := k + shift
			switch {
			case size == 1 || size == res[i]:
				// compatible, keep the resolved size
			case res[i] == 1:
				res[i] = size
			default:
				panic(fmt.Sprintf(
					"zspace: cannot broadcast shapes %v: axis %d has sizes %d and %d",
					shapes, i, res[i], size))
			}
		}
	}
	return Point{coords: res}
}

// resolvePermutation normalizes a permutation of 0..n-1: negative indices
// are resolved relative to n, then the result is checked to be a bijection.
// Panics on any malformed permutation; permutations are construction-time
// inputs, never document data.
func resolvePermutation(perm []int, n int) []int {
	if len(perm) != n {
		panic(fmt.Sprintf("zspace: permutation length %d != rank %d", len(perm), n))
	}

	resolved := make([]int, n)
	sum := 0
	seen := make(map[int]bool, n)
	for i, p := range perm {
		if p < 0 {
			p += n
		}
		if p < 0 || p >= n {
			panic(fmt.Sprintf("zspace: permutation index %d out of range for rank %d", perm[i], n))
		}
		if seen[p] {
			panic(fmt.Sprintf("zspace: duplicate permutation index %d", p))
		}
		seen[p] = true
		resolved[i] = p
		sum += p
	}

	// A bijection on 0..n-1 sums to n(n-1)/2; with the duplicate check this
	// confirms every index is present.
	if sum != n*(n-1)/2 {
		panic(fmt.Sprintf("zspace: %v is not a permutation of 0..%d", perm, n-1))
	}
	return resolved
}
