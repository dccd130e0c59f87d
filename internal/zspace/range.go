package zspace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Range is an axis-aligned half-open integer box [start, end).
//
// Invariant: start and end have equal rank and end >= start on every axis.
// A range with zero extent on any axis is empty: it has size 0 and contains
// no points.
type Range struct {
	start Point
	end   Point
}

// NewRange creates a Range, enforcing the box invariant. Returns an error
// rather than panicking because ranges are decoded from user documents.
func NewRange(start, end Point) (Range, error) {
	if start.NDim() != end.NDim() {
		return Range{}, fmt.Errorf("zspace: range corners have ranks %d and %d", start.NDim(), end.NDim())
	}
	for i := 0; i < start.NDim(); i++ {
		if end.Coord(i) < start.Coord(i) {
			return Range{}, fmt.Errorf("zspace: range end %s < start %s on axis %d", end, start, i)
		}
	}
	return Range{start: start, end: end}, nil
}

// MustRange is NewRange for construction-time literals; invalid corners panic.
func MustRange(start, end Point) Range {
	r, err := NewRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// FromStartShape creates the range [start, start+shape).
// Panics on a negative shape extent.
func FromStartShape(start, shape Point) Range {
	if start.NDim() != shape.NDim() {
		panic(fmt.Sprintf("zspace: start rank %d != shape rank %d", start.NDim(), shape.NDim()))
	}
	for i := 0; i < shape.NDim(); i++ {
		if shape.Coord(i) < 0 {
			panic(fmt.Sprintf("zspace: negative shape extent %d on axis %d", shape.Coord(i), i))
		}
	}
	return Range{start: start, end: start.Add(shape)}
}

// Start returns the inclusive lower corner.
func (r Range) Start() Point { return r.start }

// End returns the exclusive upper corner.
func (r Range) End() Point { return r.end }

// NDim returns the rank of the range.
func (r Range) NDim() int { return r.start.NDim() }

// Shape returns the per-axis extents, end - start.
func (r Range) Shape() Point { return r.end.Sub(r.start) }

// Size returns the number of points in the range: the product of the
// extents, 0 when any axis is empty.
func (r Range) Size() int64 {
	size := int64(1)
	for i := 0; i < r.NDim(); i++ {
		size *= r.end.Coord(i) - r.start.Coord(i)
	}
	return size
}

// IsEmpty reports whether the range contains no points.
func (r Range) IsEmpty() bool { return r.Size() == 0 }

// InclusiveEnd returns the inclusive upper corner, end - 1 on every axis.
// Panics on an empty range, which has no last point.
func (r Range) InclusiveEnd() Point {
	if r.IsEmpty() {
		panic("zspace: empty range has no inclusive end")
	}
	return r.end.Sub(Ones(r.NDim()))
}

// Contains reports whether the point lies inside [start, end) on every axis.
func (r Range) Contains(p Point) bool {
	if p.NDim() != r.NDim() {
		return false
	}
	return r.start.Le(p) && p.Lt(r.end)
}

// ContainsRange reports whether the other range lies entirely inside this
// one: start <= other.start and other.end <= end on every axis.
func (r Range) ContainsRange(o Range) bool {
	if o.NDim() != r.NDim() {
		return false
	}
	return r.start.Le(o.start) && o.end.Le(r.end)
}

// Overlaps reports whether the two ranges share at least one point.
// Empty ranges overlap nothing.
func (r Range) Overlaps(o Range) bool {
	if o.NDim() != r.NDim() || r.IsEmpty() || o.IsEmpty() {
		return false
	}
	for i := 0; i < r.NDim(); i++ {
		if r.end.Coord(i) <= o.start.Coord(i) || o.end.Coord(i) <= r.start.Coord(i) {
			return false
		}
	}
	return true
}

// Translate returns the range shifted by the given offset.
func (r Range) Translate(offset Point) Range {
	return Range{start: r.start.Add(offset), end: r.end.Add(offset)}
}

// Equal reports exact equality of both corners.
func (r Range) Equal(o Range) bool {
	return r.start.Equal(o.start) && r.end.Equal(o.end)
}

// String renders the range axis by axis, e.g. "zr[0:2, 0:3]".
func (r Range) String() string {
	var sb strings.Builder
	sb.WriteString("zr[")
	for i := 0; i < r.NDim(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d:%d", r.start.Coord(i), r.end.Coord(i))
	}
	sb.WriteByte(']')
	return sb.String()
}

// BoundingRange returns the smallest range containing every given range:
// the componentwise minimum of the starts and maximum of the ends.
// Fails on an empty argument list or mismatched ranks.
func BoundingRange(ranges ...Range) (Range, error) {
	if len(ranges) == 0 {
		return Range{}, fmt.Errorf("zspace: bounding range of no ranges")
	}

	ndim := ranges[0].NDim()
	start := ranges[0].start.Vec()
	end := ranges[0].end.Vec()
	for _, r := range ranges[1:] {
		if r.NDim() != ndim {
			return Range{}, fmt.Errorf("zspace: bounding range of mismatched ranks %d and %d", ndim, r.NDim())
		}
		start.MinAssign(r.start)
		end.MaxAssign(r.end)
	}
	return Range{start: start.Point(), end: end.Point()}, nil
}

// rangeJSON is the stable wire form of a Range.
type rangeJSON struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// MarshalJSON encodes the range as {"start": [...], "end": [...]}.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeJSON{Start: r.start, End: r.end})
}

// UnmarshalJSON decodes and re-validates the box invariant.
func (r *Range) UnmarshalJSON(data []byte) error {
	var raw rangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NewRange(raw.Start, raw.End)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}
