package tracer

import (
	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/types"
)

// A ray with an origin and a (not necessarily normalized) direction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// The closest intersection along a ray. Distance is -1 and Geometry is -1
// when the ray does not hit anything.
type Hit struct {
	Distance float32
	Geometry int32
}

var noHit = Hit{Distance: -1, Geometry: -1}

// True if the ray hit a geometry.
func (h Hit) Ok() bool {
	return h.Distance >= 0
}

// Keep the closer of two hits. Passing the same candidate more than once
// leaves the result unchanged.
func (h Hit) closest(distance float32, geometry int32) Hit {
	if distance >= 0 && (h.Distance < 0 || distance < h.Distance) {
		return Hit{Distance: distance, Geometry: geometry}
	}
	return h
}

// Walk the flattened index without a stack. The walk keeps two values: the
// current node and whether it was reached from a child. Boxes are only
// tested on the way down; a hit internal node descends to its first child,
// a hit leaf passes its leaf data offset to visit. Otherwise the walk moves
// to the next sibling or climbs back to the parent, terminating once it
// climbs past the root.
//
// Each node is visited at most twice so the returned step count never
// exceeds twice the number of nodes.
func Walk(nodes []index.NodeHeader, ray Ray, visit func(leafOffset int32)) int {
	if len(nodes) == 0 {
		return 0
	}

	var nodeIndex int32
	var comeFromChild bool
	for steps := 1; ; steps++ {
		node := &nodes[nodeIndex]

		gotoChild := false
		if !comeFromChild && IntersectBox(node.Min, node.Max, ray.Origin, ray.Dir) {
			if node.IsLeaf() {
				if node.LeafOffset >= 0 {
					visit(node.LeafOffset)
				}
			} else {
				gotoChild = true
			}
		}

		switch {
		case gotoChild:
			nodeIndex, comeFromChild = node.Child, false
		case node.Sibling >= 0:
			nodeIndex, comeFromChild = node.Sibling, false
		case node.Parent >= 0:
			nodeIndex, comeFromChild = node.Parent, true
		default:
			return steps
		}
	}
}

// Find the closest geometry hit by a ray using the spatial index. Geometries
// referenced by more than one visited leaf are tested repeatedly without
// affecting the result. The number of traversal steps is also returned.
func ClosestHit(buffers *index.Buffers, sc *scene.Scene, ray Ray) (Hit, int) {
	hit := noHit
	steps := Walk(buffers.Nodes, ray, func(leafOffset int32) {
		for _, geomIndex := range buffers.LeafGeometries(leafOffset) {
			a, b, c := sc.Vertices(geomIndex)
			hit = hit.closest(IntersectTriangle(ray.Origin, ray.Dir, a, b, c), geomIndex)
		}
	})
	return hit, steps
}

// Find the closest geometry hit by a ray by testing every scene geometry.
func BruteForce(sc *scene.Scene, ray Ray) Hit {
	hit := noHit
	for geomIndex := int32(0); geomIndex < int32(len(sc.Geometries)); geomIndex++ {
		a, b, c := sc.Vertices(geomIndex)
		hit = hit.closest(IntersectTriangle(ray.Origin, ray.Dir, a, b, c), geomIndex)
	}
	return hit
}
