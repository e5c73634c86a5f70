package tracer

import (
	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/scene"
)

type ChangeType uint8

const (
	// Replace the scene geometry (*scene.Scene).
	SetScene ChangeType = iota

	// Replace the spatial index buffers (*index.Buffers).
	SetIndex

	// Replace the camera (*Camera).
	UpdateCamera
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// A random seed value for jittering primary rays. Frame 0 always
	// samples pixel centers.
	Seed uint32

	// Number of sequential rendered frames from current camera position.
	FrameCount uint32

	// Trace every ray a second time against all geometries and count the
	// rays whose closest hit differs.
	Verify bool

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering this block (in nanoseconds)
	BlockTime int64

	// Traced rays and the number of them that hit a geometry.
	Rays uint64
	Hits uint64

	// Total traversal steps for all rays in the block.
	Steps uint64

	// Rays whose indexed closest hit did not match the brute-force result.
	Mismatches uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline (cpu) implementation.
	SpeedEstimate() float32

	// Setup the tracer. Each traced pixel stores its closest hit distance
	// (or -1) into depthBuffer.
	Setup(frameW, frameH uint32, depthBuffer []float32) error

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Append a change to the tracer's update buffer.
	AppendChange(ChangeType, interface{})

	// Apply all pending changes from the update buffer.
	ApplyPendingChanges() error

	// Retrieve last frame statistics.
	Stats() *Stats
}

// The data that a tracer needs for traversing a scene. It is never modified
// after construction so it can be shared by any number of tracers.
type sceneData struct {
	scene   *scene.Scene
	buffers *index.Buffers
}
