package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration

	// Traced rays, hits, traversal steps and brute-force mismatches.
	Rays       uint64
	Hits       uint64
	Steps      uint64
	Mismatches uint64
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Total render time for entire frame.
	RenderTime time.Duration

	// Totals over all tracers.
	Rays       uint64
	Hits       uint64
	Steps      uint64
	Mismatches uint64
}
