package tracer

import "github.com/achilleasa/hptrace/types"

// Test whether a ray starting at origin and travelling along dir intersects
// the box [boxMin, boxMax] using the slab method.
//
// An origin on or inside the box always counts as a hit. An axis with a zero
// direction component contributes -1 to both the entry and exit reductions
// unless the origin lies outside that axis' slab, in which case the ray can
// never reach the box. The exit distance skips negative far distances
// instead of taking a plain minimum; kernels consuming the same node headers
// rely on this exact classification.
//
// The test may report hits for boxes behind the ray but never misses a box
// that the ray enters at a non-negative distance.
func IntersectBox(boxMin, boxMax, origin, dir types.Vec3) bool {
	if origin[0] >= boxMin[0] && origin[0] <= boxMax[0] &&
		origin[1] >= boxMin[1] && origin[1] <= boxMax[1] &&
		origin[2] >= boxMin[2] && origin[2] <= boxMax[2] {
		return true
	}

	var near, far [3]float32
	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < boxMin[axis] || origin[axis] > boxMax[axis] {
				return false
			}
			near[axis], far[axis] = -1, -1
			continue
		}

		near[axis] = (boxMin[axis] - origin[axis]) / dir[axis]
		far[axis] = (boxMax[axis] - origin[axis]) / dir[axis]
		if near[axis] > far[axis] {
			near[axis], far[axis] = far[axis], near[axis]
		}
	}

	entry := types.Max(types.Max(near[0], near[1]), near[2])
	exit := far[0]
	for axis := 1; axis < 3; axis++ {
		if exit < 0 || (far[axis] >= 0 && far[axis] < exit) {
			exit = far[axis]
		}
	}

	return entry <= exit
}
