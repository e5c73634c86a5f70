package types

import "math"

// An axis-aligned bounding box stored as a {min, max} pair.
type BBox [2]Vec3

// Create an inverted box that any Grow call will replace.
func EmptyBBox() BBox {
	return BBox{
		Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Calculate the bounding box of a set of points.
func BBoxOf(points ...Vec3) BBox {
	b := EmptyBBox()
	for _, p := range points {
		b[0] = MinVec3(b[0], p)
		b[1] = MaxVec3(b[1], p)
	}
	return b
}

// True if no point or box has been added to b.
func (b BBox) IsEmpty() bool {
	return b[0][0] > b[1][0] || b[0][1] > b[1][1] || b[0][2] > b[1][2]
}

// Return the union of b and another box.
func (b BBox) Union(o BBox) BBox {
	return BBox{MinVec3(b[0], o[0]), MaxVec3(b[1], o[1])}
}

// Get box dimensions.
func (b BBox) Extent() Vec3 {
	return b[1].Sub(b[0])
}

// Get box center.
func (b BBox) Center() Vec3 {
	return b[0].Add(b[1]).Mul(0.5)
}

// Half of the box surface area.
func (b BBox) HalfArea() float32 {
	side := b.Extent()
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}

// True if the two boxes share at least one point. Touching faces count as overlap.
func (b BBox) Overlaps(o BBox) bool {
	for axis := 0; axis < 3; axis++ {
		if b[0][axis] > o[1][axis] || b[1][axis] < o[0][axis] {
			return false
		}
	}
	return true
}

// True if p lies inside b; bounds are inclusive.
func (b BBox) Contains(p Vec3) bool {
	return p[0] >= b[0][0] && p[0] <= b[1][0] &&
		p[1] >= b[0][1] && p[1] <= b[1][1] &&
		p[2] >= b[0][2] && p[2] <= b[1][2]
}
