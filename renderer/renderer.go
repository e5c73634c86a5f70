package renderer

import (
	"context"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/scene"
)

type Renderer interface {
	// Render the configured number of frames.
	Render(ctx context.Context) error

	// Replace the scene and index used by subsequent frames. The previous
	// data is not modified so frames in flight complete using it.
	UpdateScene(sc *scene.Scene, buffers *index.Buffers) error

	// Get the depth values of the last rendered frame in row-major order.
	// Pixels that did not hit any geometry are set to -1.
	Frame() []float32

	// Get statistics for the last rendered frame.
	Stats() FrameStats

	// Shutdown renderer and any attached tracer.
	Close()
}
