package index

import (
	"math"
	"sort"
	"time"

	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/log"
	"github.com/achilleasa/hptrace/types"
)

const (
	defaultGridDensity       float32 = 3.0
	defaultGridMaxResolution         = 64
)

// The uniform grid builder splits the scene bounding box into a regular 3D
// grid of cells. The encoded tree has a single level: the root spans the
// scene and each cell is a leaf listing the geometries that overlap it.
type UniformGrid struct {
	// Fixed number of cells per axis. Axes set to 0 are sized automatically.
	Resolution [3]int

	// When sizing automatically, the grid allocates about
	// Density * cbrt(geometry count) cells along its longest axis.
	Density float32

	// Upper bound for automatically sized axes.
	MaxResolution int
}

// Create a new uniform grid builder.
func NewUniformGrid(resolution [3]int, density float32, maxResolution int) *UniformGrid {
	if !(density > 0) {
		density = defaultGridDensity
	}
	if maxResolution < 1 {
		maxResolution = defaultGridMaxResolution
	}
	return &UniformGrid{
		Resolution:    resolution,
		Density:       density,
		MaxResolution: maxResolution,
	}
}

// Build and flatten the grid.
func (g *UniformGrid) Build(geometries []scene.Geometry, points []types.Vec3) *Buffers {
	return g.BuildTree(geometries, points).Flatten()
}

// Partition geometries into grid cells. An empty geometry list yields a tree
// with a single empty leaf.
func (g *UniformGrid) BuildTree(geometries []scene.Geometry, points []types.Vec3) *Tree {
	logger := log.New("grid builder")
	start := time.Now()

	workList := boundedItems(geometries, points)
	if len(workList) == 0 {
		return &Tree{root: &treeNode{}}
	}

	bbox := itemsBBox(workList)
	dims := g.cellsPerAxis(bbox, len(workList))

	// Cell boundaries along each axis. The last boundary is pinned to the
	// bbox max so that cells cover the scene exactly.
	var bounds [3][]float32
	side := bbox.Extent()
	for axis := 0; axis < 3; axis++ {
		bounds[axis] = make([]float32, dims[axis]+1)
		for i := 0; i < dims[axis]; i++ {
			bounds[axis][i] = bbox[0][axis] + side[axis]*float32(i)/float32(dims[axis])
		}
		bounds[axis][dims[axis]] = bbox[1][axis]
	}

	cellItems := make([][]boundedItem, dims[0]*dims[1]*dims[2])
	refs := 0
	for _, item := range workList {
		var first, last [3]int
		for axis := 0; axis < 3; axis++ {
			first[axis], last[axis] = cellRange(bounds[axis], item.bbox[0][axis], item.bbox[1][axis])
		}

		for z := first[2]; z <= last[2]; z++ {
			for y := first[1]; y <= last[1]; y++ {
				for x := first[0]; x <= last[0]; x++ {
					cell := (z*dims[1]+y)*dims[0] + x
					cellItems[cell] = append(cellItems[cell], item)
					refs++
				}
			}
		}
	}

	root := &treeNode{
		bbox:     bbox,
		children: make([]*treeNode, 0, len(cellItems)),
	}
	emptyCells := 0
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				cellBBox := types.BBox{
					{bounds[0][x], bounds[1][y], bounds[2][z]},
					{bounds[0][x+1], bounds[1][y+1], bounds[2][z+1]},
				}
				items := cellItems[(z*dims[1]+y)*dims[0]+x]
				if len(items) == 0 {
					emptyCells++
				}
				root.children = append(root.children, newLeaf(cellBBox, items))
			}
		}
	}

	logger.Debugf(
		"grid build time: %d ms, cells: %dx%dx%d (%d empty), item refs: %d (%d unique)",
		time.Since(start).Nanoseconds()/1e6,
		dims[0], dims[1], dims[2], emptyCells, refs, len(workList),
	)

	return &Tree{root: root}
}

// Select the number of cells along each axis.
func (g *UniformGrid) cellsPerAxis(bbox types.BBox, itemCount int) [3]int {
	side := bbox.Extent()
	maxWidth := side.MaxComponent()

	var dims [3]int
	for axis := 0; axis < 3; axis++ {
		if g.Resolution[axis] > 0 {
			dims[axis] = g.Resolution[axis]
			continue
		}

		if !(maxWidth > 0) {
			dims[axis] = 1
			continue
		}

		voxelsPerUnit := g.Density * float32(math.Cbrt(float64(itemCount))) / maxWidth
		cells := int(math.Round(float64(side[axis] * voxelsPerUnit)))
		dims[axis] = types.Clamp(cells, 1, g.MaxResolution)
	}
	return dims
}

// Find the range of cells [first, last] whose boundaries overlap the
// [min, max] interval. Touching boundaries count as overlap.
func cellRange(bounds []float32, min, max float32) (first, last int) {
	cells := len(bounds) - 1
	first = sort.Search(cells, func(i int) bool {
		return bounds[i+1] >= min
	})
	last = sort.Search(cells, func(i int) bool {
		return bounds[i] > max
	}) - 1

	if first > cells-1 {
		first = cells - 1
	}
	if last < first {
		last = first
	}
	return first, last
}
