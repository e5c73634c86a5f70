package index

import "github.com/achilleasa/hptrace/types"

// A node of the in-memory index tree.
type treeNode struct {
	bbox types.BBox

	// Child nodes in traversal order; nil for leafs.
	children []*treeNode

	// Geometry indices for leafs.
	items []int32
}

func (n *treeNode) isLeaf() bool {
	return len(n.children) == 0
}

// Create a leaf for a set of items.
func newLeaf(bbox types.BBox, items []boundedItem) *treeNode {
	leaf := &treeNode{
		bbox:  bbox,
		items: make([]int32, len(items)),
	}
	for i, item := range items {
		leaf.items[i] = item.index
	}
	return leaf
}

// An in-memory index tree produced by a Builder.
type Tree struct {
	root *treeNode
}

// Get the total number of nodes in the tree.
func (t *Tree) NodeCount() int {
	count := 0
	pending := []*treeNode{t.root}
	for len(pending) > 0 {
		node := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		count++
		pending = append(pending, node.children...)
	}
	return count
}

// Flatten the tree into node header and leaf data buffers. Nodes are
// emitted in pre-order so that every node's index is greater than its
// parent's index and the root is always node 0. Flattening does not modify
// the tree; calling it twice yields identical buffers.
func (t *Tree) Flatten() *Buffers {
	f := &flattener{
		buffers: &Buffers{
			Nodes:    make([]NodeHeader, 0, t.NodeCount()),
			LeafData: make([]int32, 0),
		},
	}
	f.emit(t.root, -1)
	return f.buffers
}

type flattener struct {
	buffers *Buffers
}

// Append node and its subtree to the node list and return its index.
func (f *flattener) emit(node *treeNode, parent int32) int32 {
	nodeIndex := int32(len(f.buffers.Nodes))
	f.buffers.Nodes = append(f.buffers.Nodes, NodeHeader{
		Min:        node.bbox[0],
		Max:        node.bbox[1],
		Child:      -1,
		Sibling:    -1,
		Parent:     parent,
		LeafOffset: -1,
	})

	if node.isLeaf() {
		if len(node.items) > 0 {
			f.buffers.Nodes[nodeIndex].LeafOffset = int32(len(f.buffers.LeafData))
			f.buffers.LeafData = append(f.buffers.LeafData, int32(len(node.items)))
			f.buffers.LeafData = append(f.buffers.LeafData, node.items...)
		}
		return nodeIndex
	}

	// Link the first child to the node and back-patch the sibling index of
	// the previously emitted child once the next one has been placed.
	var prevChild int32 = -1
	for _, child := range node.children {
		childIndex := f.emit(child, nodeIndex)
		if prevChild == -1 {
			f.buffers.Nodes[nodeIndex].Child = childIndex
		} else {
			f.buffers.Nodes[prevChild].Sibling = childIndex
		}
		prevChild = childIndex
	}

	return nodeIndex
}
