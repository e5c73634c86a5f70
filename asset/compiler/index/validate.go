package index

import (
	"fmt"

	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/types"
)

// Verify the structural invariants of a flattened index:
//
// - the root is node 0 and has no parent or sibling
// - every node is reachable from the root through exactly one child/sibling
//   chain and its parent field points to the node that owns the chain
// - internal nodes carry no leaf data
// - leaf runs are in bounds, non-empty and reference valid geometries whose
//   bounding boxes overlap the leaf box.
func Validate(buffers *Buffers, geometries []scene.Geometry, points []types.Vec3) error {
	nodes := buffers.Nodes
	if len(nodes) == 0 {
		return fmt.Errorf("index: no nodes")
	}

	if nodes[0].Parent != -1 || nodes[0].Sibling != -1 {
		return fmt.Errorf("index: root node has parent %d and sibling %d; expected -1", nodes[0].Parent, nodes[0].Sibling)
	}

	visited := make([]bool, len(nodes))
	visited[0] = true
	pending := []int32{0}
	for len(pending) > 0 {
		nodeIndex := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		node := &nodes[nodeIndex]

		if node.IsLeaf() {
			if err := validateLeaf(buffers, nodeIndex, geometries, points); err != nil {
				return err
			}
			continue
		}

		if node.LeafOffset != -1 {
			return fmt.Errorf("index: internal node %d has leaf offset %d", nodeIndex, node.LeafOffset)
		}

		for child := node.Child; child != -1; child = nodes[child].Sibling {
			if child < 0 || int(child) >= len(nodes) {
				return fmt.Errorf("index: node %d links to out of range node %d", nodeIndex, child)
			}
			if visited[child] {
				return fmt.Errorf("index: node %d is reachable through more than one chain", child)
			}
			if nodes[child].Parent != nodeIndex {
				return fmt.Errorf("index: node %d has parent %d; expected %d", child, nodes[child].Parent, nodeIndex)
			}
			visited[child] = true
			pending = append(pending, child)
		}
	}

	for nodeIndex, seen := range visited {
		if !seen {
			return fmt.Errorf("index: node %d is not reachable from the root", nodeIndex)
		}
	}

	return nil
}

func validateLeaf(buffers *Buffers, nodeIndex int32, geometries []scene.Geometry, points []types.Vec3) error {
	node := &buffers.Nodes[nodeIndex]
	if node.LeafOffset == -1 {
		return nil
	}

	if node.LeafOffset < 0 || int(node.LeafOffset) >= len(buffers.LeafData) {
		return fmt.Errorf("index: leaf %d has out of range offset %d", nodeIndex, node.LeafOffset)
	}

	count := buffers.LeafData[node.LeafOffset]
	if count <= 0 || int(node.LeafOffset)+1+int(count) > len(buffers.LeafData) {
		return fmt.Errorf("index: leaf %d has invalid geometry count %d at offset %d", nodeIndex, count, node.LeafOffset)
	}

	nodeBBox := node.BBox()
	for _, geomIndex := range buffers.LeafGeometries(node.LeafOffset) {
		if geomIndex < 0 || int(geomIndex) >= len(geometries) {
			return fmt.Errorf("index: leaf %d references out of range geometry %d", nodeIndex, geomIndex)
		}

		g := geometries[geomIndex]
		geomBBox := types.BBoxOf(points[g.Points[0]], points[g.Points[1]], points[g.Points[2]])
		if !nodeBBox.Overlaps(geomBBox) {
			return fmt.Errorf("index: leaf %d lists geometry %d whose bbox %v does not overlap the leaf bbox %v", nodeIndex, geomIndex, geomBBox, nodeBBox)
		}
	}

	return nil
}
