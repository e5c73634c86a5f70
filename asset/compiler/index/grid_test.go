package index

import (
	"testing"

	"github.com/achilleasa/hptrace/types"
)

func TestCellRange(t *testing.T) {
	bounds := []float32{0, 1, 2, 3, 4}

	type spec struct {
		min, max float32
		expFirst int
		expLast  int
	}

	specs := []spec{
		{0.5, 0.7, 0, 0},
		{1, 1, 0, 1},
		{0, 4, 0, 3},
		{3.5, 4, 3, 3},
		{1.2, 2.8, 1, 2},
		{0, 0, 0, 0},
		{4, 4, 3, 3},
	}

	for specIndex, s := range specs {
		first, last := cellRange(bounds, s.min, s.max)
		if first != s.expFirst || last != s.expLast {
			t.Errorf("[spec %d] expected cell range [%d, %d] for [%f, %f]; got [%d, %d]", specIndex, s.expFirst, s.expLast, s.min, s.max, first, last)
		}
	}
}

func TestGridCellsPerAxis(t *testing.T) {
	bbox := types.BBox{{0, 0, 0}, {4, 2, 1}}

	type spec struct {
		grid    *UniformGrid
		items   int
		expDims [3]int
	}

	specs := []spec{
		{NewUniformGrid([3]int{2, 3, 4}, 0, 0), 8, [3]int{2, 3, 4}},
		{NewUniformGrid([3]int{}, 3, 64), 8, [3]int{6, 3, 2}},
		{NewUniformGrid([3]int{}, 3, 4), 8, [3]int{4, 3, 2}},
		{NewUniformGrid([3]int{5, 0, 0}, 3, 64), 8, [3]int{5, 3, 2}},
		{NewUniformGrid([3]int{}, 0.01, 64), 1, [3]int{1, 1, 1}},
	}

	for specIndex, s := range specs {
		if dims := s.grid.cellsPerAxis(bbox, s.items); dims != s.expDims {
			t.Errorf("[spec %d] expected grid dims %v; got %v", specIndex, s.expDims, dims)
		}
	}

	// Zero-extent scenes collapse to a single cell
	flat := types.BBox{{1, 1, 1}, {1, 1, 1}}
	if dims := NewUniformGrid([3]int{}, 3, 64).cellsPerAxis(flat, 10); dims != [3]int{1, 1, 1} {
		t.Fatalf("expected a single cell for a zero-extent scene; got %v", dims)
	}
}

func TestGridLayout(t *testing.T) {
	geometries, points := boxGeometries(
		types.BBox{{0, 0, 0}, {1, 1, 1}},
		types.BBox{{3, 0, 0}, {4, 1, 1}},
		types.BBox{{1.5, 0, 0}, {2.5, 1, 1}},
	)

	buffers := NewUniformGrid([3]int{2, 1, 1}, 0, 0).Build(geometries, points)
	if err := Validate(buffers, geometries, points); err != nil {
		t.Fatal(err)
	}

	if len(buffers.Nodes) != 3 {
		t.Fatalf("expected 3 nodes; got %d", len(buffers.Nodes))
	}

	root := buffers.Nodes[0]
	if root.Child != 1 || buffers.Nodes[1].Sibling != 2 || buffers.Nodes[2].Sibling != -1 {
		t.Fatalf("expected root to link cells 1 and 2; got child %d, siblings %d/%d", root.Child, buffers.Nodes[1].Sibling, buffers.Nodes[2].Sibling)
	}

	expCells := []types.BBox{
		{{0, 0, 0}, {2, 1, 1}},
		{{2, 0, 0}, {4, 1, 1}},
	}
	for cell, expBBox := range expCells {
		if got := buffers.Nodes[cell+1].BBox(); got != expBBox {
			t.Errorf("expected cell %d bbox %v; got %v", cell, expBBox, got)
		}
	}

	expLeafData := []int32{2, 0, 2, 2, 1, 2}
	if len(buffers.LeafData) != len(expLeafData) {
		t.Fatalf("expected leaf data %v; got %v", expLeafData, buffers.LeafData)
	}
	for i, v := range expLeafData {
		if buffers.LeafData[i] != v {
			t.Fatalf("expected leaf data %v; got %v", expLeafData, buffers.LeafData)
		}
	}
}

func TestGridKeepsEmptyCells(t *testing.T) {
	geometries, points := boxGeometries(
		types.BBox{{0, 0, 0}, {0.5, 1, 1}},
		types.BBox{{3.5, 0, 0}, {4, 1, 1}},
	)

	buffers := NewUniformGrid([3]int{4, 1, 1}, 0, 0).Build(geometries, points)
	if err := Validate(buffers, geometries, points); err != nil {
		t.Fatal(err)
	}

	stats := buffers.Stats()
	if stats.Nodes != 5 {
		t.Fatalf("expected 5 nodes; got %d", stats.Nodes)
	}
	if stats.Leafs != 4 || stats.EmptyLeafs != 2 {
		t.Fatalf("expected 4 leafs with 2 empty; got %d leafs with %d empty", stats.Leafs, stats.EmptyLeafs)
	}
	if stats.MaxDepth != 1 {
		t.Fatalf("expected grid depth to be 1; got %d", stats.MaxDepth)
	}

	for _, nodeIndex := range []int{2, 3} {
		if offset := buffers.Nodes[nodeIndex].LeafOffset; offset != -1 {
			t.Errorf("expected empty cell %d to have leaf offset -1; got %d", nodeIndex, offset)
		}
	}
}

func TestGridEmptyInput(t *testing.T) {
	buffers := NewUniformGrid([3]int{}, 0, 0).Build(nil, nil)
	if len(buffers.Nodes) != 1 || !buffers.Nodes[0].IsLeaf() || buffers.Nodes[0].LeafOffset != -1 {
		t.Fatalf("expected empty input to produce a single empty leaf; got %+v", buffers.Nodes)
	}
}
