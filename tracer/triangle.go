package tracer

import "github.com/achilleasa/hptrace/types"

// Determinants below this threshold indicate a ray parallel to the triangle plane.
const parallelEpsilon = 1e-12

// Intersect a ray with the triangle (a, b, c) using the Möller-Trumbore
// algorithm. Returns the parametric distance to the hit point or -1 if the
// ray misses the triangle or hits it behind the origin.
func IntersectTriangle(origin, dir, a, b, c types.Vec3) float32 {
	e1 := b.Sub(a)
	e2 := c.Sub(a)

	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -parallelEpsilon && det < parallelEpsilon {
		return -1
	}
	invDet := 1 / det

	s := origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return -1
	}

	q := s.Cross(e1)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return -1
	}

	t := e2.Dot(q) * invDet
	if t < 0 {
		return -1
	}
	return t
}
