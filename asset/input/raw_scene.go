package input

import "github.com/achilleasa/hptrace/types"

// Surface reflectance and emission parameters.
type Material struct {
	Name string

	// Diffuse/Albedo color.
	Diffuse types.Vec3

	// Specular color and exponent.
	Specular  types.Vec3
	Shininess float32

	// Emitted radiance. A material is emissive if any component is > 0.
	Emission types.Vec3

	// Index of refraction.
	IOR float32

	// Opacity in the [0, 1] range.
	Dissolve float32

	// The wavefront illumination model.
	Illum int32
}

// True if the material emits light.
func (m *Material) IsEmissive() bool {
	return m.Emission.MaxComponent() > 0
}

// A triangle referencing three scene points and a material.
type Triangle struct {
	Points   [3]int
	Material int
}

// The raw geometry produced by a scene reader. Points are shared between
// triangles and referenced by index.
type Scene struct {
	Points    []types.Vec3
	Triangles []Triangle
	Materials []*Material
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Points:    make([]types.Vec3, 0),
		Triangles: make([]Triangle, 0),
		Materials: make([]*Material, 0),
	}
}
