package index

import (
	"math"
	"time"

	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/log"
	"github.com/achilleasa/hptrace/types"
)

const (
	defaultLeafSize = 8
	defaultMaxDepth = 24

	// The number of candidate split positions evaluated by the SAH strategy.
	sahCandidates = 32
)

var (
	// Split at the midpoint of the longest node axis.
	MidpointSplit SplitStrategy = midpointSplit{}

	// Split the longest node axis at the candidate position with the lowest
	// surface area heuristic (SAH) score.
	SurfaceAreaHeuristic SplitStrategy = surfaceAreaHeuristic{}
)

// A split selection strategy.
type SplitStrategy interface {
	// Select a split axis and position for partitioning a node that
	// contains workList. Returns false if the node cannot be split.
	SelectSplit(workList []boundedItem, bbox types.BBox) (axis int, splitPoint float32, ok bool)
}

// The kd-tree builder recursively splits geometries into two halves. A
// geometry that straddles the split position is placed in both halves.
type KDTree struct {
	// Nodes with this many items or less become leafs.
	LeafSize int

	// Nodes at this depth become leafs.
	MaxDepth int

	// The split selection strategy.
	Strategy SplitStrategy
}

// Create a new kd-tree builder. Non-positive leaf sizes and negative depths
// are replaced by the defaults.
func NewKDTree(leafSize, maxDepth int, strategy SplitStrategy) *KDTree {
	if leafSize < 1 {
		leafSize = defaultLeafSize
	}
	if maxDepth < 0 {
		maxDepth = defaultMaxDepth
	}
	if strategy == nil {
		strategy = MidpointSplit
	}
	return &KDTree{
		LeafSize: leafSize,
		MaxDepth: maxDepth,
		Strategy: strategy,
	}
}

type kdStats struct {
	totalItems       int
	partitionedItems int
	nodes            int
	leafs            int
	maxDepth         int
}

type kdBuilder struct {
	*KDTree
	logger log.Logger
	stats  kdStats
}

// Build and flatten the kd-tree.
func (t *KDTree) Build(geometries []scene.Geometry, points []types.Vec3) *Buffers {
	return t.BuildTree(geometries, points).Flatten()
}

// Partition geometries into an in-memory kd-tree. An empty geometry list
// yields a tree with a single empty leaf.
func (t *KDTree) BuildTree(geometries []scene.Geometry, points []types.Vec3) *Tree {
	b := &kdBuilder{
		KDTree: t,
		logger: log.New("kd-tree builder"),
		stats: kdStats{
			totalItems: len(geometries),
		},
	}

	start := time.Now()
	workList := boundedItems(geometries, points)

	var root *treeNode
	if len(workList) == 0 {
		root = &treeNode{}
		b.stats.nodes++
		b.stats.leafs++
	} else {
		root = b.partition(workList, 0)
	}

	b.logger.Debugf(
		"kd-tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, item refs: %d (%d unique)",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
		b.stats.partitionedItems, b.stats.totalItems,
	)
	return &Tree{root: root}
}

// Recursively partition a work list.
func (b *kdBuilder) partition(workList []boundedItem, depth int) *treeNode {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}
	b.stats.nodes++

	bbox := itemsBBox(workList)

	if len(workList) <= b.LeafSize || depth >= b.MaxDepth {
		return b.createLeaf(bbox, workList)
	}

	axis, splitPoint, ok := b.Strategy.SelectSplit(workList, bbox)
	if !ok {
		return b.createLeaf(bbox, workList)
	}

	leftWorkList, rightWorkList := splitWorkList(workList, axis, splitPoint)

	// Stop if the split does not reduce the item count of both halves
	if len(leftWorkList) == len(workList) || len(rightWorkList) == len(workList) {
		return b.createLeaf(bbox, workList)
	}

	return &treeNode{
		bbox: bbox,
		children: []*treeNode{
			b.partition(leftWorkList, depth+1),
			b.partition(rightWorkList, depth+1),
		},
	}
}

func (b *kdBuilder) createLeaf(bbox types.BBox, workList []boundedItem) *treeNode {
	b.stats.leafs++
	b.stats.partitionedItems += len(workList)
	return newLeaf(bbox, workList)
}

// Report which side(s) of a split plane an item overlaps. Items that lie
// exactly on the plane go to both sides; items touching the plane from one
// side stay on that side.
func splitSides(item boundedItem, axis int, splitPoint float32) (left, right bool) {
	left = item.bbox[0][axis] < splitPoint || item.bbox[1][axis] <= splitPoint
	right = item.bbox[1][axis] > splitPoint || item.bbox[0][axis] >= splitPoint
	return left, right
}

// Split the work list into the items overlapping each side of the split
// plane. Straddling items are copied to both lists. Item order is preserved.
func splitWorkList(workList []boundedItem, axis int, splitPoint float32) (leftWorkList, rightWorkList []boundedItem) {
	leftWorkList = make([]boundedItem, 0, len(workList))
	rightWorkList = make([]boundedItem, 0, len(workList))
	for _, item := range workList {
		left, right := splitSides(item, axis, splitPoint)
		if left {
			leftWorkList = append(leftWorkList, item)
		}
		if right {
			rightWorkList = append(rightWorkList, item)
		}
	}
	return leftWorkList, rightWorkList
}

type midpointSplit struct{}

func (midpointSplit) SelectSplit(workList []boundedItem, bbox types.BBox) (int, float32, bool) {
	side := bbox.Extent()
	axis := side.MaxAxis()
	if !(side[axis] > 0) {
		return 0, 0, false
	}
	return axis, bbox[0][axis] + side[axis]*0.5, true
}

type surfaceAreaHeuristic struct{}

// Evaluate evenly spaced candidate positions along the longest axis and
// select the one with the lowest score:
//
// left count * left BBOX area + right count * right BBOX area.
//
// Candidates that do not reduce the item count of both halves are ignored.
func (surfaceAreaHeuristic) SelectSplit(workList []boundedItem, bbox types.BBox) (int, float32, bool) {
	side := bbox.Extent()
	axis := side.MaxAxis()
	if !(side[axis] > 0) {
		return 0, 0, false
	}

	var bestScore float32 = math.MaxFloat32
	var bestSplit float32
	found := false
	for candidate := 1; candidate < sahCandidates; candidate++ {
		splitPoint := bbox[0][axis] + side[axis]*float32(candidate)/float32(sahCandidates)

		lBBox, rBBox := types.EmptyBBox(), types.EmptyBBox()
		lCount, rCount := 0, 0
		for _, item := range workList {
			left, right := splitSides(item, axis, splitPoint)
			if left {
				lCount++
				lBBox = lBBox.Union(item.bbox)
			}
			if right {
				rCount++
				rBBox = rBBox.Union(item.bbox)
			}
		}

		if lCount == len(workList) || rCount == len(workList) {
			continue
		}

		score := float32(lCount)*lBBox.HalfArea() + float32(rCount)*rBBox.HalfArea()
		if !found || score < bestScore {
			bestScore = score
			bestSplit = splitPoint
			found = true
		}
	}

	return axis, bestSplit, found
}
