package zspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Point is an immutable, fixed-rank tuple of int64 coordinates.
//
// Points form a partial order under componentwise dominance: a predicate
// like Lt holds only when it holds on every axis. Two points can therefore
// be mutually non-comparable (neither Lt nor Ge).
type Point struct {
	coords []int64
}

// NewPoint creates a Point from the given coordinates.
// The coordinates are copied; the caller keeps ownership of the slice.
func NewPoint(coords ...int64) Point {
	c := make([]int64, len(coords))
	copy(c, coords)
	return Point{coords: c}
}

// NewPointFrom creates a Point from a coordinate slice, copying it.
func NewPointFrom(coords []int64) Point {
	return NewPoint(coords...)
}

// Zeros returns the zero point of the given rank.
func Zeros(ndim int) Point {
	if ndim < 0 {
		panic(fmt.Sprintf("zspace: negative rank %d", ndim))
	}
	return Point{coords: make([]int64, ndim)}
}

// Ones returns the all-ones point of the given rank.
func Ones(ndim int) Point {
	p := Zeros(ndim)
	for i := range p.coords {
		p.coords[i] = 1
	}
	return p
}

// NDim returns the rank of the point.
func (p Point) NDim() int {
	return len(p.coords)
}

// Coord returns the coordinate on the given axis.
func (p Point) Coord(i int) int64 {
	return p.coords[i]
}

// Coords returns a copy of the coordinate slice.
func (p Point) Coords() []int64 {
	c := make([]int64, len(p.coords))
	copy(c, p.coords)
	return c
}

// Vec returns a mutable copy of the coordinates.
func (p Point) Vec() Vec {
	return Vec(p.Coords())
}

// Equal reports exact equality: same rank, same coordinates.
func (p Point) Equal(q Point) bool {
	if len(p.coords) != len(q.coords) {
		return false
	}
	for i, c := range p.coords {
		if c != q.coords[i] {
			return false
		}
	}
	return true
}

// Dominance-order predicates. Each holds only when the relation holds on
// every axis; operands are broadcast like elementwise ops.

// Eq reports whether every coordinate pair is equal.
func (p Point) Eq(q Point) bool { return p.compareAll(q, func(a, b int64) bool { return a == b }) }

// Ne reports whether every coordinate pair differs.
func (p Point) Ne(q Point) bool { return p.compareAll(q, func(a, b int64) bool { return a != b }) }

// Lt reports whether p is strictly below q on every axis.
func (p Point) Lt(q Point) bool { return p.compareAll(q, func(a, b int64) bool { return a < b }) }

// Le reports whether p is below-or-equal q on every axis.
func (p Point) Le(q Point) bool { return p.compareAll(q, func(a, b int64) bool { return a <= b }) }

// Gt reports whether p is strictly above q on every axis.
func (p Point) Gt(q Point) bool { return p.compareAll(q, func(a, b int64) bool { return a > b }) }

// Ge reports whether p is above-or-equal q on every axis.
func (p Point) Ge(q Point) bool { return p.compareAll(q, func(a, b int64) bool { return a >= b }) }

func (p Point) compareAll(q Point, rel func(a, b int64) bool) bool {
	n := broadcastRank(len(p.coords), len(q.coords))
	for i := 0; i < n; i++ {
		if !rel(broadcastCoord(p.coords, n, i), broadcastCoord(q.coords, n, i)) {
			return false
		}
	}
	return true
}

// String renders the point as a coordinate list, e.g. "(2, 3)".
func (p Point) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, c := range p.coords {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatInt(c, 10))
	}
	sb.WriteByte(')')
	return sb.String()
}

// MarshalJSON encodes the point as a bare coordinate array.
func (p Point) MarshalJSON() ([]byte, error) {
	if p.coords == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.coords)
}

// UnmarshalJSON decodes a coordinate array, rejecting floats.
func (p *Point) UnmarshalJSON(data []byte) error {
	coords, err := decodeIntArray(data)
	if err != nil {
		return fmt.Errorf("point: %w", err)
	}
	p.coords = coords
	return nil
}

// decodeIntArray decodes a JSON array of integers. Floats are rejected:
// the coordinate space is strictly integer-valued.
func decodeIntArray(data []byte) ([]int64, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []json.Number
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	coords := make([]int64, len(raw))
	for i, n := range raw {
		v, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("coordinate [%d]: not an integer: %s", i, n)
		}
		coords[i] = v
	}
	return coords, nil
}
