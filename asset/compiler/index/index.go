package index

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/types"
)

// Node headers encode the spatial index tree as a first-child/next-sibling
// structure addressed by integer indices. Each header takes 48 bytes; the
// bounding box corners are followed by an int32 so that they map to
// float4 vectors inside kernels.
//
// - Child is the index of the first child or -1 for leafs
// - Sibling is the index of the next node at the same level or -1
// - Parent is the index of the parent node or -1 for the root
// - LeafOffset points to the leaf's run in the leaf data blob or is -1 for
//   internal nodes and empty leafs
type NodeHeader struct {
	Min   types.Vec3
	Child int32

	Max     types.Vec3
	Sibling int32

	Parent     int32
	LeafOffset int32
	_          [2]int32
}

// True if the node has no children.
func (n *NodeHeader) IsLeaf() bool {
	return n.Child == -1
}

// Get the node bounding box.
func (n *NodeHeader) BBox() types.BBox {
	return types.BBox{n.Min, n.Max}
}

// The flattened representation of a spatial index. A leaf's data begins at
// its LeafOffset with a count n followed by n geometry indices.
type Buffers struct {
	Nodes    []NodeHeader
	LeafData []int32
}

// Get the geometry indices stored at a leaf data offset.
func (b *Buffers) LeafGeometries(leafOffset int32) []int32 {
	count := b.LeafData[leafOffset]
	return b.LeafData[leafOffset+1 : leafOffset+1+count]
}

// Pack node headers and leaf data as little-endian byte slices suitable for
// uploading to a device buffer.
func (b *Buffers) Bytes() (nodeData, leafData []byte, err error) {
	var nodeBuf, leafBuf bytes.Buffer
	if err = binary.Write(&nodeBuf, binary.LittleEndian, b.Nodes); err != nil {
		return nil, nil, fmt.Errorf("index: could not pack node headers: %w", err)
	}
	if err = binary.Write(&leafBuf, binary.LittleEndian, b.LeafData); err != nil {
		return nil, nil, fmt.Errorf("index: could not pack leaf data: %w", err)
	}
	return nodeBuf.Bytes(), leafBuf.Bytes(), nil
}

// The Builder interface is implemented by all spatial index variants. The
// geometry point and material indices must have been validated by the scene.
type Builder interface {
	// Partition the geometries into an in-memory tree.
	BuildTree(geometries []scene.Geometry, points []types.Vec3) *Tree

	// Build and flatten the index.
	Build(geometries []scene.Geometry, points []types.Vec3) *Buffers
}

// The supported index variants.
type Variant string

const (
	KDTreeVariant      Variant = "kdtree"
	UniformGridVariant Variant = "grid"
)

// The supported kd-tree split strategies.
const (
	MidpointSplitName = "midpoint"
	SAHSplitName      = "sah"
)

// Options for selecting and tuning an index builder.
type Options struct {
	Variant Variant

	// KD-tree settings.
	Split    string
	LeafSize int
	MaxDepth int

	// Uniform grid settings.
	GridDensity       float32
	GridResolution    [3]int
	GridMaxResolution int
}

// Default builder options.
func DefaultOptions() Options {
	return Options{
		Variant:           KDTreeVariant,
		Split:             MidpointSplitName,
		LeafSize:          defaultLeafSize,
		MaxDepth:          defaultMaxDepth,
		GridDensity:       defaultGridDensity,
		GridMaxResolution: defaultGridMaxResolution,
	}
}

// Create the builder selected by opts.
func NewBuilder(opts Options) (Builder, error) {
	switch opts.Variant {
	case KDTreeVariant, "":
		var strategy SplitStrategy
		switch opts.Split {
		case MidpointSplitName, "":
			strategy = MidpointSplit
		case SAHSplitName:
			strategy = SurfaceAreaHeuristic
		default:
			return nil, fmt.Errorf("index: unknown kd-tree split strategy %q", opts.Split)
		}
		return NewKDTree(opts.LeafSize, opts.MaxDepth, strategy), nil
	case UniformGridVariant:
		return NewUniformGrid(opts.GridResolution, opts.GridDensity, opts.GridMaxResolution), nil
	}
	return nil, fmt.Errorf("index: unknown variant %q", opts.Variant)
}

// A geometry together with its precomputed bounding box.
type boundedItem struct {
	index int32
	bbox  types.BBox
}

// Precompute bounding boxes for all geometries.
func boundedItems(geometries []scene.Geometry, points []types.Vec3) []boundedItem {
	items := make([]boundedItem, len(geometries))
	for index, g := range geometries {
		items[index] = boundedItem{
			index: int32(index),
			bbox:  types.BBoxOf(points[g.Points[0]], points[g.Points[1]], points[g.Points[2]]),
		}
	}
	return items
}

// Calculate the bounding box of a set of items.
func itemsBBox(items []boundedItem) types.BBox {
	bbox := types.EmptyBBox()
	for _, item := range items {
		bbox = bbox.Union(item.bbox)
	}
	return bbox
}
