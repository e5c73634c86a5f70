package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/input"
	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/tracer"
	"github.com/achilleasa/hptrace/types"
)

// Build a scene with an axis-aligned cube made of 12 triangles.
func cubeScene(t *testing.T, halfSize float32) *scene.Scene {
	raw := input.NewScene()
	raw.Materials = append(raw.Materials, &input.Material{Diffuse: types.Vec3{0.7, 0.7, 0.7}, Dissolve: 1})
	for i := 0; i < 8; i++ {
		raw.Points = append(raw.Points, types.Vec3{
			float32(2*(i&1)-1) * halfSize,
			float32(2*((i>>1)&1)-1) * halfSize,
			float32(2*((i>>2)&1)-1) * halfSize,
		})
	}

	quads := [][4]int{
		{0, 1, 3, 2}, {4, 5, 7, 6}, // -z, +z
		{0, 1, 5, 4}, {2, 3, 7, 6}, // -y, +y
		{0, 2, 6, 4}, {1, 3, 7, 5}, // -x, +x
	}
	for _, q := range quads {
		raw.Triangles = append(raw.Triangles,
			input.Triangle{Points: [3]int{q[0], q[1], q[2]}},
			input.Triangle{Points: [3]int{q[0], q[2], q[3]}},
		)
	}

	sc, err := scene.New(raw)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func emptyScene(t *testing.T) *scene.Scene {
	sc, err := scene.New(input.NewScene())
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func probeOptions() Options {
	return Options{
		FrameW: 32,
		FrameH: 24,
		Frames: 2,
		Seed:   1,
		Verify: true,
		View:   types.Vec3{0, 0, -500},
		Up:     types.Vec3{0, 1, 0},
		Right:  types.Vec3{1, 0, 0},
		Angle:  1,
	}
}

func cpuTracers(count int) []tracer.Tracer {
	tracers := make([]tracer.Tracer, count)
	for i := range tracers {
		tracers[i] = tracer.NewCPUTracer("cpu")
	}
	return tracers
}

func TestProbeRender(t *testing.T) {
	sc := cubeScene(t, 100)
	buffers := index.NewUniformGrid([3]int{}, 3, 64).Build(sc.Geometries, sc.Points)
	opts := probeOptions()

	r, err := NewProbe(sc, buffers, tracer.NewPerfectScheduler(), cpuTracers(3), opts)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err = r.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	stats := r.Stats()
	expRays := uint64(opts.FrameW * opts.FrameH)
	if stats.Rays != expRays {
		t.Fatalf("expected %d rays; got %d", expRays, stats.Rays)
	}
	if stats.Hits == 0 || stats.Hits == stats.Rays {
		t.Fatalf("expected some rays to miss the cube; got %d hits", stats.Hits)
	}
	if stats.Mismatches != 0 {
		t.Fatalf("expected no brute-force mismatches; got %d", stats.Mismatches)
	}

	var rows uint32
	for _, trStat := range stats.Tracers {
		rows += trStat.BlockH
	}
	if rows != opts.FrameH {
		t.Fatalf("expected tracer blocks to cover %d rows; got %d", opts.FrameH, rows)
	}

	frame := r.Frame()
	if center := frame[(opts.FrameH/2)*opts.FrameW+opts.FrameW/2]; center < 399.9 || center > 402 {
		t.Fatalf("expected center pixel depth close to 400; got %f", center)
	}
	if corner := frame[0]; corner != -1 {
		t.Fatalf("expected corner pixel to miss; got depth %f", corner)
	}

	// Swapping in an empty scene makes every ray miss
	empty := emptyScene(t)
	if err = r.UpdateScene(empty, index.NewKDTree(0, -1, nil).Build(nil, nil)); err != nil {
		t.Fatal(err)
	}
	if err = r.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if hits := r.Stats().Hits; hits != 0 {
		t.Fatalf("expected no hits after switching to an empty scene; got %d", hits)
	}
}

func TestProbeMoreTracersThanRows(t *testing.T) {
	sc := cubeScene(t, 100)
	buffers := index.NewKDTree(2, 24, index.MidpointSplit).Build(sc.Geometries, sc.Points)
	opts := probeOptions()
	opts.FrameW, opts.FrameH = 4, 2

	r, err := NewProbe(sc, buffers, tracer.NewPerfectScheduler(), cpuTracers(4), opts)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err = r.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rays := r.Stats().Rays; rays != 8 {
		t.Fatalf("expected 8 rays; got %d", rays)
	}
}

func TestProbeErrors(t *testing.T) {
	sc := cubeScene(t, 1)
	buffers := index.NewKDTree(0, -1, nil).Build(sc.Geometries, sc.Points)
	opts := probeOptions()

	if _, err := NewProbe(sc, buffers, tracer.NewPerfectScheduler(), nil, opts); !errors.Is(err, ErrNoTracers) {
		t.Fatalf("expected error %v; got %v", ErrNoTracers, err)
	}
	if _, err := NewProbe(nil, buffers, tracer.NewPerfectScheduler(), cpuTracers(1), opts); !errors.Is(err, ErrSceneNotDefined) {
		t.Fatalf("expected error %v; got %v", ErrSceneNotDefined, err)
	}

	badCamera := opts
	badCamera.Angle = 0
	if _, err := NewProbe(sc, buffers, tracer.NewPerfectScheduler(), cpuTracers(1), badCamera); !errors.Is(err, ErrCameraNotDefined) {
		t.Fatalf("expected error %v; got %v", ErrCameraNotDefined, err)
	}

	r, err := NewProbe(sc, buffers, tracer.NewPerfectScheduler(), cpuTracers(2), opts)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err = r.Render(ctx); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected error %v; got %v", ErrInterrupted, err)
	}

	if err = r.UpdateScene(nil, nil); !errors.Is(err, ErrSceneNotDefined) {
		t.Fatalf("expected error %v; got %v", ErrSceneNotDefined, err)
	}
}
