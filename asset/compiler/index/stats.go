package index

import "unsafe"

// Index statistics.
type Stats struct {
	Nodes       int
	Leafs       int
	EmptyLeafs  int
	MaxDepth    int
	MaxLeafSize int

	// Total number of geometry references stored in leafs and the number
	// of distinct geometries they point to.
	GeometryRefs     int
	UniqueGeometries int

	NodeBytes int
	LeafBytes int
}

// Collect statistics for a flattened index.
func (b *Buffers) Stats() Stats {
	stats := Stats{
		Nodes:     len(b.Nodes),
		NodeBytes: len(b.Nodes) * int(unsafe.Sizeof(NodeHeader{})),
		LeafBytes: len(b.LeafData) * int(unsafe.Sizeof(int32(0))),
	}

	// Nodes are stored in pre-order so a parent always precedes its children.
	depth := make([]int, len(b.Nodes))
	unique := make(map[int32]struct{})
	for nodeIndex := range b.Nodes {
		node := &b.Nodes[nodeIndex]
		if node.Parent >= 0 {
			depth[nodeIndex] = depth[node.Parent] + 1
		}
		if depth[nodeIndex] > stats.MaxDepth {
			stats.MaxDepth = depth[nodeIndex]
		}

		if !node.IsLeaf() {
			continue
		}

		stats.Leafs++
		if node.LeafOffset == -1 {
			stats.EmptyLeafs++
			continue
		}

		geometries := b.LeafGeometries(node.LeafOffset)
		stats.GeometryRefs += len(geometries)
		if len(geometries) > stats.MaxLeafSize {
			stats.MaxLeafSize = len(geometries)
		}
		for _, geomIndex := range geometries {
			unique[geomIndex] = struct{}{}
		}
	}
	stats.UniqueGeometries = len(unique)

	return stats
}
