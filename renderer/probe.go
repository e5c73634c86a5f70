package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/log"
	"github.com/achilleasa/hptrace/tracer"
	"golang.org/x/exp/rand"
)

// A renderer that traces one primary ray per pixel and records the closest
// hit distance. Each frame is split into row blocks that are processed in
// parallel by the attached tracers; all tracers share the same read-only
// scene and index data.
type probeRenderer struct {
	logger log.Logger

	tracers   []tracer.Tracer
	scheduler tracer.BlockScheduler
	options   Options

	rng         *rand.Rand
	depthBuffer []float32

	blockAssignments []uint32
	frameStats       FrameStats
}

// Create a new probe renderer and upload the scene, index and camera to
// each tracer.
func NewProbe(sc *scene.Scene, buffers *index.Buffers, scheduler tracer.BlockScheduler, tracers []tracer.Tracer, opts Options) (Renderer, error) {
	if len(tracers) == 0 {
		return nil, ErrNoTracers
	}
	if sc == nil || buffers == nil {
		return nil, ErrSceneNotDefined
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, fmt.Errorf("renderer: invalid frame dimensions %dx%d", opts.FrameW, opts.FrameH)
	}
	if opts.Frames == 0 {
		opts.Frames = 1
	}

	camera, err := tracer.NewCamera(opts.View, opts.Up, opts.Right, opts.Angle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraNotDefined, err)
	}

	r := &probeRenderer{
		logger:      log.New("probe renderer"),
		tracers:     tracers,
		scheduler:   scheduler,
		options:     opts,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		depthBuffer: make([]float32, opts.FrameW*opts.FrameH),
	}

	for _, tr := range tracers {
		if err = tr.Setup(opts.FrameW, opts.FrameH, r.depthBuffer); err != nil {
			r.Close()
			return nil, err
		}
		tr.AppendChange(tracer.SetScene, sc)
		tr.AppendChange(tracer.SetIndex, buffers)
		tr.AppendChange(tracer.UpdateCamera, camera)
	}

	return r, nil
}

// Render the configured number of frames.
func (r *probeRenderer) Render(ctx context.Context) error {
	start := time.Now()
	for frame := uint32(0); frame < r.options.Frames; frame++ {
		if err := r.renderFrame(ctx, frame); err != nil {
			return err
		}
		r.logger.Infof(
			"frame %d: %d ms, rays: %d, hits: %d, mismatches: %d",
			frame, r.frameStats.RenderTime.Nanoseconds()/1e6,
			r.frameStats.Rays, r.frameStats.Hits, r.frameStats.Mismatches,
		)
	}

	r.logger.Noticef("rendered %d frame(s) in %d ms", r.options.Frames, time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Replace the scene and index used by subsequent frames.
func (r *probeRenderer) UpdateScene(sc *scene.Scene, buffers *index.Buffers) error {
	if sc == nil || buffers == nil {
		return ErrSceneNotDefined
	}
	for _, tr := range r.tracers {
		tr.AppendChange(tracer.SetScene, sc)
		tr.AppendChange(tracer.SetIndex, buffers)
	}
	return nil
}

// Get the depth values of the last rendered frame.
func (r *probeRenderer) Frame() []float32 {
	return r.depthBuffer
}

// Get statistics for the last rendered frame.
func (r *probeRenderer) Stats() FrameStats {
	return r.frameStats
}

// Shutdown renderer and any attached tracer.
func (r *probeRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
}

func (r *probeRenderer) renderFrame(ctx context.Context, frame uint32) error {
	if ctx.Err() != nil {
		return ErrInterrupted
	}

	start := time.Now()
	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.options.FrameH)

	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))

	var blockY uint32
	pending := 0
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		if blockH == 0 {
			continue
		}

		tr.Enqueue(tracer.BlockRequest{
			BlockY:     blockY,
			BlockH:     blockH,
			Seed:       r.rng.Uint32(),
			FrameCount: frame,
			Verify:     r.options.Verify,
			DoneChan:   doneChan,
			ErrChan:    errChan,
		})
		blockY += blockH
		pending++
	}

	for ; pending > 0; pending-- {
		select {
		case <-doneChan:
		case err := <-errChan:
			return err
		case <-ctx.Done():
			return ErrInterrupted
		}
	}

	r.collectStats(time.Since(start))
	return nil
}

func (r *probeRenderer) collectStats(renderTime time.Duration) {
	r.frameStats = FrameStats{
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
	}

	for idx, tr := range r.tracers {
		stat := TracerStat{
			Id:           tr.Id(),
			BlockH:       r.blockAssignments[idx],
			FramePercent: 100.0 * float32(r.blockAssignments[idx]) / float32(r.options.FrameH),
		}

		if stat.BlockH != 0 {
			trStats := tr.Stats()
			stat.RenderTime = time.Duration(trStats.BlockTime)
			stat.Rays = trStats.Rays
			stat.Hits = trStats.Hits
			stat.Steps = trStats.Steps
			stat.Mismatches = trStats.Mismatches
		}

		r.frameStats.Tracers[idx] = stat
		r.frameStats.Rays += stat.Rays
		r.frameStats.Hits += stat.Hits
		r.frameStats.Steps += stat.Steps
		r.frameStats.Mismatches += stat.Mismatches
	}
}
