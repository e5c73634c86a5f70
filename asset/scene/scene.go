package scene

import (
	"errors"
	"fmt"

	"github.com/achilleasa/hptrace/asset/input"
	"github.com/achilleasa/hptrace/types"
)

// Returned (wrapped) when a geometry references a point or material that
// does not exist.
var ErrMalformedGeometry = errors.New("scene: malformed geometry")

// Material parameters packed for kernel consumption. Each material takes
// 48 bytes so that vec3 members stay float4-aligned.
type Material struct {
	// Diffuse reflectance; W stores the dissolve factor.
	Diffuse types.Vec4

	// Specular reflectance; W stores the specular exponent.
	Specular types.Vec4

	// Emitted radiance; W stores the index of refraction.
	Emission types.Vec4
}

// True if the material emits light.
func (m *Material) IsEmissive() bool {
	return m.Emission.Vec3().MaxComponent() > 0
}

// A triangle defined by three point indices and a material index.
type Geometry struct {
	Points   [3]int32
	Material int32
}

// An emissive geometry.
type Light struct {
	Geometry int32
	Material int32
}

// The Scene owns the point, geometry and material data shared with the
// spatial index and the rendering kernel. Once New returns, the Scene is
// immutable and safe for concurrent read-only use.
type Scene struct {
	Materials  []Material
	Points     []types.Vec3
	Geometries []Geometry

	// Emissive geometries in registration order.
	Lights []Light

	// The light-importance index. LightKeys is strictly increasing and
	// LightKeys[i] is the cumulative weight of lights [0, LightIndices[i]].
	// The final key equals TotalLightValue.
	LightKeys       []float32
	LightIndices    []int32
	TotalLightValue float32

	// Material names; used for diagnostics.
	MaterialNames []string

	finished bool
}

// Create a scene from the output of a scene reader. A triangle referencing an
// out-of-range point or material index aborts construction and no scene is
// returned.
func New(raw *input.Scene) (*Scene, error) {
	sc := &Scene{
		Materials:     make([]Material, len(raw.Materials)),
		MaterialNames: make([]string, len(raw.Materials)),
		Points:        make([]types.Vec3, len(raw.Points)),
		Geometries:    make([]Geometry, len(raw.Triangles)),
		Lights:        make([]Light, 0),
		LightKeys:     make([]float32, 0),
		LightIndices:  make([]int32, 0),
	}

	copy(sc.Points, raw.Points)
	for index, mat := range raw.Materials {
		sc.Materials[index] = Material{
			Diffuse:  mat.Diffuse.Vec4(mat.Dissolve),
			Specular: mat.Specular.Vec4(mat.Shininess),
			Emission: mat.Emission.Vec4(mat.IOR),
		}
		sc.MaterialNames[index] = mat.Name
	}

	for index, tri := range raw.Triangles {
		geom := Geometry{Material: int32(tri.Material)}
		if tri.Material < 0 || tri.Material >= len(sc.Materials) {
			return nil, fmt.Errorf("%w: geometry %d references material %d; scene defines %d materials", ErrMalformedGeometry, index, tri.Material, len(sc.Materials))
		}
		for v, pointIndex := range tri.Points {
			if pointIndex < 0 || pointIndex >= len(sc.Points) {
				return nil, fmt.Errorf("%w: geometry %d references point %d; scene defines %d points", ErrMalformedGeometry, index, pointIndex, len(sc.Points))
			}
			geom.Points[v] = int32(pointIndex)
		}

		sc.Geometries[index] = geom
		sc.registerGeometry(int32(index))
	}
	sc.finishRegister()

	return sc, nil
}

// Get the vertices of a geometry.
func (sc *Scene) Vertices(geomIndex int32) (a, b, c types.Vec3) {
	g := &sc.Geometries[geomIndex]
	return sc.Points[g.Points[0]], sc.Points[g.Points[1]], sc.Points[g.Points[2]]
}

// Get the bounding box of a geometry.
func (sc *Scene) GeometryBBox(geomIndex int32) types.BBox {
	a, b, c := sc.Vertices(geomIndex)
	return types.BBoxOf(a, b, c)
}

// Get the surface area of a geometry.
func (sc *Scene) Area(geomIndex int32) float32 {
	a, b, c := sc.Vertices(geomIndex)
	// area = 0.5 * len(cross(b-a, c-a))
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Len()
}

// Get the bounding box of all scene geometry.
func (sc *Scene) BBox() types.BBox {
	bbox := types.EmptyBBox()
	for index := range sc.Geometries {
		bbox = bbox.Union(sc.GeometryBBox(int32(index)))
	}
	return bbox
}
