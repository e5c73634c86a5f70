package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/input"
	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/types"
)

// A floor quad lit by a small emissive quad.
func litQuadScene() *input.Scene {
	raw := input.NewScene()
	raw.Materials = append(raw.Materials,
		&input.Material{Name: "floor", Diffuse: types.Vec3{0.5, 0.5, 0.5}, Dissolve: 1},
		&input.Material{Name: "lamp", Emission: types.Vec3{4, 4, 4}, Dissolve: 1},
	)
	raw.Points = append(raw.Points,
		types.Vec3{-10, 0, -10}, types.Vec3{10, 0, -10}, types.Vec3{10, 0, 10}, types.Vec3{-10, 0, 10},
		types.Vec3{-1, 5, -1}, types.Vec3{1, 5, -1}, types.Vec3{1, 5, 1}, types.Vec3{-1, 5, 1},
	)
	raw.Triangles = append(raw.Triangles,
		input.Triangle{Points: [3]int{0, 1, 2}, Material: 0},
		input.Triangle{Points: [3]int{0, 2, 3}, Material: 0},
		input.Triangle{Points: [3]int{4, 5, 6}, Material: 1},
		input.Triangle{Points: [3]int{4, 6, 7}, Material: 1},
	)
	return raw
}

func TestCompile(t *testing.T) {
	variants := []index.Variant{index.KDTreeVariant, index.UniformGridVariant}

	for _, variant := range variants {
		opts := index.DefaultOptions()
		opts.Variant = variant

		compiled, err := Compile(litQuadScene(), opts)
		if err != nil {
			t.Fatalf("[%s] %v", variant, err)
		}

		if got := len(compiled.Scene.Geometries); got != 4 {
			t.Fatalf("[%s] expected 4 geometries; got %d", variant, got)
		}
		if got := len(compiled.Scene.Lights); got != 2 {
			t.Fatalf("[%s] expected 2 lights; got %d", variant, got)
		}
		if len(compiled.Index.Nodes) == 0 {
			t.Fatalf("[%s] expected a non-empty index", variant)
		}
		if err = compiled.Validate(); err != nil {
			t.Fatalf("[%s] expected index to be valid; got %v", variant, err)
		}
		if compiled.Options.Variant != variant {
			t.Fatalf("[%s] expected options to be retained; got %v", variant, compiled.Options.Variant)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	raw := litQuadScene()
	raw.Triangles[1].Points[2] = 42
	if _, err := Compile(raw, index.DefaultOptions()); !errors.Is(err, scene.ErrMalformedGeometry) {
		t.Fatalf("expected error %v; got %v", scene.ErrMalformedGeometry, err)
	}

	opts := index.DefaultOptions()
	opts.Variant = "octree"
	if _, err := Compile(litQuadScene(), opts); err == nil {
		t.Fatal("expected an error for an unknown index variant")
	}

	opts = index.DefaultOptions()
	opts.Split = "random"
	if _, err := Compile(litQuadScene(), opts); err == nil {
		t.Fatal("expected an error for an unknown split strategy")
	}
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "quad.obj")
	payload := `
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
f 1 2 3 4
`
	if err := os.WriteFile(sceneFile, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	compiled, err := CompileFile(sceneFile, index.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(compiled.Scene.Geometries); got != 2 {
		t.Fatalf("expected quad to be split into 2 triangles; got %d", got)
	}

	if _, err = CompileFile(filepath.Join(dir, "missing.obj"), index.DefaultOptions()); err == nil {
		t.Fatal("expected an error for a missing scene file")
	}
}

func TestCompiledStats(t *testing.T) {
	compiled, err := Compile(litQuadScene(), index.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	report := compiled.Stats()
	for _, exp := range []string{"Points", "Triangles", "Emissives", "Nodes", "Total"} {
		if !strings.Contains(report, exp) {
			t.Fatalf("expected stats report to contain %q; got\n%s", exp, report)
		}
	}
}

func TestFmtSize(t *testing.T) {
	type spec struct {
		items []interface{}
		exp   string
	}

	specs := []spec{
		{[]interface{}{[]int32{}}, "  0 bytes"},
		{[]interface{}{make([]int32, 10), make([]byte, 2)}, " 42 bytes"},
		{[]interface{}{make([]types.Vec3, 1000)}, "12.0 kb"},
		{[]interface{}{make([]int32, 500000)}, "  2.0 mb"},
	}

	for specIndex, s := range specs {
		if got := fmtSize(s.items...); got != s.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, s.exp, got)
		}
	}
}
