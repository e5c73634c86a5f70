package renderer

import "github.com/achilleasa/hptrace/types"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of frames to render. Frames after the first one jitter
	// primary rays inside each pixel.
	Frames uint32

	// Seed for the per-block jitter seeds.
	Seed uint64

	// Compare every traced ray against a brute-force intersection of all
	// scene geometries.
	Verify bool

	// Camera setup.
	View  types.Vec3
	Up    types.Vec3
	Right types.Vec3
	Angle float32
}
