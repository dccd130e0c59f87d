package zspace

import "fmt"

// Elementwise arithmetic over points, with NumPy-style broadcasting:
// operands are right-aligned by trailing axis, and an axis is compatible
// when the sizes are equal or one side is 1 (or absent in the shorter
// operand). Incompatible operands panic.

// Neg returns the componentwise negation.
func (p Point) Neg() Point {
	return p.mapEach(func(a int64) int64 { return -a })
}

// Abs returns the componentwise absolute value.
func (p Point) Abs() Point {
	return p.mapEach(func(a int64) int64 {
		if a < 0 {
			return -a
		}
		return a
	})
}

// Add returns the broadcast componentwise sum.
func (p Point) Add(q Point) Point {
	return zipWith(func(a, b int64) int64 { return a + b }, p, q)
}

// Sub returns the broadcast componentwise difference.
func (p Point) Sub(q Point) Point {
	return zipWith(func(a, b int64) int64 { return a - b }, p, q)
}

// Mul returns the broadcast componentwise product.
func (p Point) Mul(q Point) Point {
	return zipWith(func(a, b int64) int64 { return a * b }, p, q)
}

// Div returns the broadcast componentwise truncating quotient.
func (p Point) Div(q Point) Point {
	return zipWith(func(a, b int64) int64 { return a / b }, p, q)
}

// Mod returns the broadcast componentwise truncated remainder.
func (p Point) Mod(q Point) Point {
	return zipWith(func(a, b int64) int64 { return a % b }, p, q)
}

// Pow returns the broadcast componentwise integer power.
// Panics if any exponent is negative.
func (p Point) Pow(exp Point) Point {
	return zipWith(IntPow, p, exp)
}

// Log returns the broadcast componentwise integer logarithm floor.
// Panics if any base is <= 1 or any value is <= 0.
func (p Point) Log(base Point) Point {
	return zipWith(IntLog, p, base)
}

// Min returns the broadcast componentwise minimum.
func (p Point) Min(q Point) Point {
	return zipWith(func(a, b int64) int64 {
		if a < b {
			return a
		}
		return b
	}, p, q)
}

// Max returns the broadcast componentwise maximum.
func (p Point) Max(q Point) Point {
	return zipWith(func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	}, p, q)
}

func (p Point) mapEach(op func(int64) int64) Point {
	out := make([]int64, len(p.coords))
	for i, c := range p.coords {
		out[i] = op(c)
	}
	return Point{coords: out}
}

func zipWith(op func(a, b int64) int64, p, q Point) Point {
	n := broadcastRank(len(p.coords), len(q.coords))
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = op(broadcastCoord(p.coords, n, i), broadcastCoord(q.coords, n, i))
	}
	return Point{coords: out}
}

// broadcastRank resolves the result rank of two point operands, panicking
// when the ranks are incompatible under the equal-or-1 rule.
func broadcastRank(a, b int) int {
	if a == b {
		return a
	}
	if a == 1 || b == 1 {
		if a > b {
			return a
		}
		return b
	}
	panic(fmt.Sprintf("zspace: cannot broadcast points of rank %d and %d", a, b))
}

// broadcastCoord reads coordinate i of an operand broadcast to rank n.
// A rank-1 operand repeats its single value on every axis.
func broadcastCoord(coords []int64, n, i int) int64 {
	if len(coords) == n {
		return coords[i]
	}
	return coords[0]
}

// Vec is a mutable coordinate buffer. It is the in-place counterpart of
// Point for callers that exclusively own the storage, such as accumulation
// loops. Convert to an immutable Point with Point() once finished.
type Vec []int64

// Point returns an immutable copy of the buffer.
func (v Vec) Point() Point {
	return NewPoint(v...)
}

// AddAssign adds q into the buffer componentwise.
func (v Vec) AddAssign(q Point) { v.zipAssign(q, func(a, b int64) int64 { return a + b }) }

// SubAssign subtracts q from the buffer componentwise.
func (v Vec) SubAssign(q Point) { v.zipAssign(q, func(a, b int64) int64 { return a - b }) }

// MulAssign multiplies the buffer by q componentwise.
func (v Vec) MulAssign(q Point) { v.zipAssign(q, func(a, b int64) int64 { return a * b }) }

// MinAssign lowers each buffer coordinate to the minimum with q.
func (v Vec) MinAssign(q Point) {
	v.zipAssign(q, func(a, b int64) int64 {
		if b < a {
			return b
		}
		return a
	})
}

// MaxAssign raises each buffer coordinate to the maximum with q.
func (v Vec) MaxAssign(q Point) {
	v.zipAssign(q, func(a, b int64) int64 {
		if b > a {
			return b
		}
		return a
	})
}

func (v Vec) zipAssign(q Point, op func(a, b int64) int64) {
	if q.NDim() != len(v) && q.NDim() != 1 {
		panic(fmt.Sprintf("zspace: cannot assign rank-%d point into rank-%d buffer", q.NDim(), len(v)))
	}
	for i := range v {
		v[i] = op(v[i], broadcastCoord(q.coords, len(v), i))
	}
}
