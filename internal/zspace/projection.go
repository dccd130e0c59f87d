package zspace

import (
	"encoding/json"
	"fmt"
)

// ProjectionMap is an index projection function: an affine map into a
// tensor's coordinate space paired with a fixed output shape. Applying it
// to an index-space point yields the tensor sub-range anchored at the
// mapped point with that shape.
type ProjectionMap struct {
	affineMap AffineMap
	shape     Point
}

// NewProjectionMap creates a ProjectionMap. A zero-rank shape is replaced
// by all-ones of the map's output rank; otherwise the shape rank must
// equal the map's output rank.
func NewProjectionMap(affineMap AffineMap, shape Point) (ProjectionMap, error) {
	if shape.NDim() == 0 {
		shape = Ones(affineMap.OutputNDim())
	}
	if shape.NDim() != affineMap.OutputNDim() {
		return ProjectionMap{}, fmt.Errorf(
			"zspace: projection shape rank %d != affine output rank %d",
			shape.NDim(), affineMap.OutputNDim())
	}
	for i := 0; i < shape.NDim(); i++ {
		if shape.Coord(i) < 0 {
			return ProjectionMap{}, fmt.Errorf("zspace: negative projection shape extent %d on axis %d", shape.Coord(i), i)
		}
	}
	return ProjectionMap{affineMap: affineMap, shape: shape}, nil
}

// MustProjectionMap is NewProjectionMap for construction-time literals.
func MustProjectionMap(affineMap AffineMap, shape Point) ProjectionMap {
	p, err := NewProjectionMap(affineMap, shape)
	if err != nil {
		panic(err)
	}
	return p
}

// AffineMap returns the underlying affine map.
func (p ProjectionMap) AffineMap() AffineMap { return p.affineMap }

// Shape returns the output shape.
func (p ProjectionMap) Shape() Point { return p.shape }

// Apply projects an index-space point to the tensor sub-range anchored at
// affineMap(x) with the projection's shape.
func (p ProjectionMap) Apply(x Point) Range {
	return FromStartShape(p.affineMap.Apply(x), p.shape)
}

// ApplyRange projects an index-space range to the bounding range of the
// projections of its points.
//
// An empty source yields an empty range anchored at the projection of the
// source start. When the affine matrix has no negative coefficient the map
// is componentwise monotone, so bounding the projections of the two
// extreme corners is exact. A sign-reversing coefficient can swap the
// relative order of corner images on an axis, so the general case projects
// every corner of the source range; with k source axes that is 2^k
// applications, which stays small at tensor ranks.
func (p ProjectionMap) ApplyRange(source Range) Range {
	first := p.Apply(source.Start())
	if source.IsEmpty() {
		return FromStartShape(first.Start(), Zeros(first.NDim()))
	}

	if p.affineMap.nonNegative() {
		bounds, err := BoundingRange(first, p.Apply(source.InclusiveEnd()))
		if err != nil {
			panic(err)
		}
		return bounds
	}

	corners := cornerPoints(source)
	projected := make([]Range, len(corners))
	for i, c := range corners {
		projected[i] = p.Apply(c)
	}
	bounds, err := BoundingRange(projected...)
	if err != nil {
		panic(err)
	}
	return bounds
}

// Translate returns a copy whose affine map is translated by the offset;
// the shape is unchanged.
func (p ProjectionMap) Translate(offset Point) ProjectionMap {
	return ProjectionMap{affineMap: p.affineMap.Translate(offset), shape: p.shape}
}

// Equal reports structural equality.
func (p ProjectionMap) Equal(o ProjectionMap) bool {
	return p.affineMap.Equal(o.affineMap) && p.shape.Equal(o.shape)
}

// String renders the projection, e.g. "ipf(affine_map=..., shape=(1, 3))".
func (p ProjectionMap) String() string {
	return fmt.Sprintf("ipf(affine_map=%s, shape=%s)", p.affineMap, p.shape)
}

// cornerPoints enumerates every corner of a non-empty range: per axis,
// either the start or the inclusive end coordinate.
func cornerPoints(r Range) []Point {
	ndim := r.NDim()
	lo := r.Start()
	hi := r.InclusiveEnd()

	n := 1 << ndim
	corners := make([]Point, 0, n)
	for mask := 0; mask < n; mask++ {
		coords := make([]int64, ndim)
		for i := 0; i < ndim; i++ {
			if mask&(1<<i) != 0 {
				coords[i] = hi.Coord(i)
			} else {
				coords[i] = lo.Coord(i)
			}
		}
		corners = append(corners, Point{coords: coords})
	}
	return corners
}

// projectionJSON is the stable wire form of a ProjectionMap.
type projectionJSON struct {
	AffineMap AffineMap `json:"affine_map"`
	Shape     Point     `json:"shape"`
}

// MarshalJSON encodes the projection as {"affine_map": ..., "shape": [...]}.
func (p ProjectionMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(projectionJSON{AffineMap: p.affineMap, Shape: p.shape})
}

// UnmarshalJSON decodes and re-validates rank agreement.
func (p *ProjectionMap) UnmarshalJSON(data []byte) error {
	var raw projectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NewProjectionMap(raw.AffineMap, raw.Shape)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
