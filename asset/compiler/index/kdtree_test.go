package index

import (
	"testing"

	"github.com/achilleasa/hptrace/types"
)

func TestKDTreeLeafSize(t *testing.T) {
	geometries, points := boxGeometries(
		types.BBox{{-2, 0, -2}, {-1, 1, -1}},
		types.BBox{{1, 0, -2}, {2, 1, -1}},
		types.BBox{{-2, 0, 1}, {-1, 1, 2}},
		types.BBox{{1, 0, 1}, {2, 1, 2}},
	)

	type spec struct {
		leafSize    int
		expNodes    int
		expLeafs    int
		expLeafSize int
	}

	specs := []spec{
		{leafSize: 1, expNodes: 7, expLeafs: 4, expLeafSize: 1},
		{leafSize: 2, expNodes: 3, expLeafs: 2, expLeafSize: 2},
		{leafSize: 4, expNodes: 1, expLeafs: 1, expLeafSize: 4},
	}

	for _, strategy := range []SplitStrategy{MidpointSplit, SurfaceAreaHeuristic} {
		for specIndex, s := range specs {
			stats := NewKDTree(s.leafSize, 24, strategy).Build(geometries, points).Stats()
			if stats.Nodes != s.expNodes {
				t.Errorf("[%T spec %d] expected %d nodes; got %d", strategy, specIndex, s.expNodes, stats.Nodes)
			}
			if stats.Leafs != s.expLeafs {
				t.Errorf("[%T spec %d] expected %d leafs; got %d", strategy, specIndex, s.expLeafs, stats.Leafs)
			}
			if stats.MaxLeafSize != s.expLeafSize {
				t.Errorf("[%T spec %d] expected max leaf size %d; got %d", strategy, specIndex, s.expLeafSize, stats.MaxLeafSize)
			}
		}
	}
}

func TestKDTreeDuplicatesStraddlingGeometry(t *testing.T) {
	geometries, points := boxGeometries(
		types.BBox{{-2, 0, 0}, {-1, 1, 1}},
		types.BBox{{1, 0, 0}, {2, 1, 1}},
		types.BBox{{-0.5, 0, 0}, {0.5, 1, 1}},
	)

	buffers := NewKDTree(2, 24, MidpointSplit).Build(geometries, points)
	if err := Validate(buffers, geometries, points); err != nil {
		t.Fatal(err)
	}

	stats := buffers.Stats()
	if stats.Leafs != 2 {
		t.Fatalf("expected 2 leafs; got %d", stats.Leafs)
	}
	if stats.GeometryRefs != 4 {
		t.Fatalf("expected straddling geometry to be referenced by both leafs (4 refs); got %d", stats.GeometryRefs)
	}
	if stats.UniqueGeometries != 3 {
		t.Fatalf("expected 3 unique geometries; got %d", stats.UniqueGeometries)
	}

	for _, nodeIndex := range []int32{1, 2} {
		found := false
		for _, geomIndex := range buffers.LeafGeometries(buffers.Nodes[nodeIndex].LeafOffset) {
			if geomIndex == 2 {
				found = true
			}
		}
		if !found {
			t.Errorf("expected leaf %d to contain straddling geometry 2", nodeIndex)
		}
	}
}

func TestKDTreeStopsWhenSplitDoesNotHelp(t *testing.T) {
	box := types.BBox{{0, 0, 0}, {1, 1, 1}}
	geometries, points := boxGeometries(box, box, box, box, box)

	for _, strategy := range []SplitStrategy{MidpointSplit, SurfaceAreaHeuristic} {
		buffers := NewKDTree(1, 24, strategy).Build(geometries, points)
		if len(buffers.Nodes) != 1 {
			t.Fatalf("[%T] expected identical geometries to end up in a single leaf; got %d nodes", strategy, len(buffers.Nodes))
		}
		if got := len(buffers.LeafGeometries(buffers.Nodes[0].LeafOffset)); got != 5 {
			t.Fatalf("[%T] expected root leaf to hold 5 geometries; got %d", strategy, got)
		}
	}

	// Zero-extent input cannot be split either
	flat := types.BBox{{3, 3, 3}, {3, 3, 3}}
	geometries, points = boxGeometries(flat, flat, flat)
	if nodes := len(NewKDTree(1, 24, MidpointSplit).Build(geometries, points).Nodes); nodes != 1 {
		t.Fatalf("expected degenerate geometries to produce a single node; got %d", nodes)
	}
}

func TestKDTreeMaxDepth(t *testing.T) {
	geometries, points := randomGeometries(11, 200)

	if nodes := len(NewKDTree(1, 0, MidpointSplit).Build(geometries, points).Nodes); nodes != 1 {
		t.Fatalf("expected a max depth of 0 to produce a single leaf; got %d nodes", nodes)
	}

	for _, maxDepth := range []int{1, 3, 6} {
		stats := NewKDTree(1, maxDepth, MidpointSplit).Build(geometries, points).Stats()
		if stats.MaxDepth > maxDepth {
			t.Errorf("expected tree depth to be at most %d; got %d", maxDepth, stats.MaxDepth)
		}
	}
}

func TestKDTreeEmptyInput(t *testing.T) {
	buffers := NewKDTree(0, -1, nil).Build(nil, nil)

	if len(buffers.Nodes) != 1 {
		t.Fatalf("expected empty input to produce 1 node; got %d", len(buffers.Nodes))
	}
	root := buffers.Nodes[0]
	if !root.IsLeaf() || root.LeafOffset != -1 || root.Parent != -1 || root.Sibling != -1 {
		t.Fatalf("expected root to be an empty leaf; got %+v", root)
	}
	if len(buffers.LeafData) != 0 {
		t.Fatalf("expected empty leaf data; got %v", buffers.LeafData)
	}
	if err := Validate(buffers, nil, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSurfaceAreaHeuristicSplit(t *testing.T) {
	// A dense cluster on the left and a single item on the far right; the
	// heuristic should isolate the cluster instead of cutting at the center.
	geometries, points := boxGeometries(
		types.BBox{{0, 0, 0}, {1, 1, 1}},
		types.BBox{{0.5, 0, 0}, {1.5, 1, 1}},
		types.BBox{{1, 0, 0}, {2, 1, 1}},
		types.BBox{{31, 0, 0}, {32, 1, 1}},
	)
	items := boundedItems(geometries, points)

	axis, splitPoint, ok := SurfaceAreaHeuristic.SelectSplit(items, itemsBBox(items))
	if !ok {
		t.Fatal("expected heuristic to find a split")
	}
	if axis != 0 {
		t.Fatalf("expected split axis 0; got %d", axis)
	}

	left, right := splitWorkList(items, axis, splitPoint)
	if len(left) != 3 || len(right) != 1 {
		t.Fatalf("expected a 3/1 split; got %d/%d at %f", len(left), len(right), splitPoint)
	}
}

func TestSplitSides(t *testing.T) {
	type spec struct {
		bbox     types.BBox
		expLeft  bool
		expRight bool
	}

	specs := []spec{
		{types.BBox{{0, 0, 0}, {1, 1, 1}}, true, false},
		{types.BBox{{1, 0, 0}, {2, 1, 1}}, true, false},
		{types.BBox{{0, 0, 0}, {2, 1, 1}}, true, false},
		{types.BBox{{2, 0, 0}, {3, 1, 1}}, false, true},
		{types.BBox{{1, 0, 0}, {3, 1, 1}}, true, true},
		{types.BBox{{2, 0, 0}, {2, 1, 1}}, true, true},
	}

	for specIndex, s := range specs {
		left, right := splitSides(boundedItem{bbox: s.bbox}, 0, 2)
		if left != s.expLeft || right != s.expRight {
			t.Errorf("[spec %d] expected left/right %t/%t; got %t/%t", specIndex, s.expLeft, s.expRight, left, right)
		}
	}
}
