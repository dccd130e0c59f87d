package zspace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AffineMap is an integer affine transform x -> A·x + b from Z^in to Z^out.
//
// The projection matrix A has outNDim rows of inNDim columns; the offset b
// has length outNDim. Immutable once constructed.
type AffineMap struct {
	projection [][]int64
	offset     []int64
	inNDim     int
}

// NewAffineMap creates an AffineMap from a projection matrix and an offset
// vector. A nil offset means a zero vector. Fails when the matrix is ragged
// or the offset length differs from the row count.
func NewAffineMap(projection [][]int64, offset []int64) (AffineMap, error) {
	inNDim := 0
	if len(projection) > 0 {
		inNDim = len(projection[0])
	}

	rows := make([][]int64, len(projection))
	for i, row := range projection {
		if len(row) != inNDim {
			return AffineMap{}, fmt.Errorf("zspace: ragged projection matrix: row %d has %d columns, want %d", i, len(row), inNDim)
		}
		rows[i] = make([]int64, inNDim)
		copy(rows[i], row)
	}

	if offset == nil {
		offset = make([]int64, len(projection))
	}
	if len(offset) != len(projection) {
		return AffineMap{}, fmt.Errorf("zspace: offset length %d != matrix rows %d", len(offset), len(projection))
	}
	b := make([]int64, len(offset))
	copy(b, offset)

	return AffineMap{projection: rows, offset: b, inNDim: inNDim}, nil
}

// MustAffineMap is NewAffineMap for construction-time literals.
func MustAffineMap(projection [][]int64, offset []int64) AffineMap {
	m, err := NewAffineMap(projection, offset)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMatrix creates an AffineMap with a zero offset.
func FromMatrix(rows ...[]int64) AffineMap {
	return MustAffineMap(rows, nil)
}

// InputNDim returns the input rank (matrix columns).
func (m AffineMap) InputNDim() int { return m.inNDim }

// OutputNDim returns the output rank (matrix rows).
func (m AffineMap) OutputNDim() int { return len(m.projection) }

// Projection returns a copy of the matrix A.
func (m AffineMap) Projection() [][]int64 {
	rows := make([][]int64, len(m.projection))
	for i, row := range m.projection {
		rows[i] = make([]int64, len(row))
		copy(rows[i], row)
	}
	return rows
}

// Offset returns the offset b as a Point.
func (m AffineMap) Offset() Point { return NewPointFrom(m.offset) }

// Apply computes A·x + b. Panics when the rank of x differs from the
// input rank; rank agreement is a construction invariant of callers.
func (m AffineMap) Apply(x Point) Point {
	if x.NDim() != m.inNDim {
		panic(fmt.Sprintf("zspace: affine map input rank %d, got point of rank %d", m.inNDim, x.NDim()))
	}

	out := make([]int64, len(m.projection))
	for i, row := range m.projection {
		acc := m.offset[i]
		for j, a := range row {
			acc += a * x.Coord(j)
		}
		out[i] = acc
	}
	return Point{coords: out}
}

// Translate returns a copy with b' = b + offset.
// Panics when the offset rank differs from the output rank.
func (m AffineMap) Translate(offset Point) AffineMap {
	if offset.NDim() != m.OutputNDim() {
		panic(fmt.Sprintf("zspace: translate offset rank %d != output rank %d", offset.NDim(), m.OutputNDim()))
	}
	b := NewPointFrom(m.offset).Add(offset)
	return AffineMap{projection: m.projection, offset: b.Coords(), inNDim: m.inNDim}
}

// PermuteInput returns a copy with the matrix columns reordered by the
// given permutation. Negative indices are resolved from the end.
func (m AffineMap) PermuteInput(perm ...int) AffineMap {
	resolved := resolvePermutation(perm, m.inNDim)
	rows := make([][]int64, len(m.projection))
	for i, row := range m.projection {
		rows[i] = make([]int64, m.inNDim)
		for j, p := range resolved {
			rows[i][j] = row[p]
		}
	}
	return AffineMap{projection: rows, offset: m.offset, inNDim: m.inNDim}
}

// PermuteOutput returns a copy with the matrix rows and the offset
// reordered by the given permutation.
func (m AffineMap) PermuteOutput(perm ...int) AffineMap {
	resolved := resolvePermutation(perm, m.OutputNDim())
	rows := make([][]int64, len(m.projection))
	offset := make([]int64, len(m.offset))
	for i, p := range resolved {
		rows[i] = m.projection[p]
		offset[i] = m.offset[p]
	}
	return AffineMap{projection: rows, offset: offset, inNDim: m.inNDim}
}

// nonNegative reports whether every matrix coefficient is >= 0, in which
// case the map is componentwise monotone over the dominance order.
func (m AffineMap) nonNegative() bool {
	for _, row := range m.projection {
		for _, a := range row {
			if a < 0 {
				return false
			}
		}
	}
	return true
}

// Equal reports structural equality of matrix and offset.
func (m AffineMap) Equal(o AffineMap) bool {
	if m.inNDim != o.inNDim || len(m.projection) != len(o.projection) {
		return false
	}
	for i, row := range m.projection {
		for j, a := range row {
			if a != o.projection[i][j] {
				return false
			}
		}
		if m.offset[i] != o.offset[i] {
			return false
		}
	}
	return true
}

// String renders the map in lambda form, e.g. "λx.[[1 0] [0 1]]·x + (0, 0)".
func (m AffineMap) String() string {
	var sb strings.Builder
	sb.WriteString("λx.[")
	for i, row := range m.projection {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v", row)
	}
	sb.WriteString("]·x + ")
	sb.WriteString(m.Offset().String())
	return sb.String()
}

// affineJSON is the stable wire form of an AffineMap.
type affineJSON struct {
	A [][]int64 `json:"A"`
	B []int64   `json:"b"`
}

// MarshalJSON encodes the map as {"A": [[...]], "b": [...]}.
func (m AffineMap) MarshalJSON() ([]byte, error) {
	a := m.projection
	if a == nil {
		a = [][]int64{}
	}
	b := m.offset
	if b == nil {
		b = []int64{}
	}
	return json.Marshal(affineJSON{A: a, B: b})
}

// UnmarshalJSON decodes and re-validates the matrix/offset agreement.
func (m *AffineMap) UnmarshalJSON(data []byte) error {
	var raw affineJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NewAffineMap(raw.A, raw.B)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}
