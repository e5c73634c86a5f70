package scene

import "sort"

// Compute the contribution weight of an emissive geometry: its surface area
// scaled by the mean emitted radiance.
func (sc *Scene) emissiveWeight(geomIndex int32) float32 {
	emission := sc.Materials[sc.Geometries[geomIndex].Material].Emission
	radiance := (emission[0] + emission[1] + emission[2]) / 3.0
	return sc.Area(geomIndex) * radiance
}

// Add the geometry to the light-importance index if it uses an emissive
// material. Geometries with a zero weight (degenerate triangles) and weights
// too small to advance the float32 running total are skipped so that index
// keys stay strictly increasing.
func (sc *Scene) registerGeometry(geomIndex int32) {
	if sc.finished {
		panic("scene: registerGeometry called after finishRegister")
	}

	geom := sc.Geometries[geomIndex]
	if !sc.Materials[geom.Material].IsEmissive() {
		return
	}

	weight := sc.emissiveWeight(geomIndex)
	runningTotal := sc.TotalLightValue + weight
	if !(weight > 0) || runningTotal <= sc.TotalLightValue {
		return
	}

	sc.Lights = append(sc.Lights, Light{Geometry: geomIndex, Material: geom.Material})
	sc.LightKeys = append(sc.LightKeys, runningTotal)
	sc.LightIndices = append(sc.LightIndices, int32(len(sc.Lights)-1))
	sc.TotalLightValue = runningTotal
}

// Finalize the light-importance index. The index is read-only afterwards.
func (sc *Scene) finishRegister() {
	if n := len(sc.LightKeys); n > 0 {
		sc.TotalLightValue = sc.LightKeys[n-1]
	}
	sc.finished = true
}

// Select a light given a random value r in [0, TotalLightValue). The light
// whose key is the smallest key >= r is returned together with its selection
// probability. The call returns false if the scene has no lights.
func (sc *Scene) SelectLight(r float32) (Light, float32, bool) {
	if len(sc.LightKeys) == 0 {
		return Light{}, 0, false
	}

	slot := sort.Search(len(sc.LightKeys), func(i int) bool {
		return sc.LightKeys[i] >= r
	})
	if slot == len(sc.LightKeys) {
		slot = len(sc.LightKeys) - 1
	}

	lightIndex := sc.LightIndices[slot]
	return sc.Lights[lightIndex], sc.LightWeight(int(lightIndex)) / sc.TotalLightValue, true
}

// Get the importance weight of the light at lightIndex.
func (sc *Scene) LightWeight(lightIndex int) float32 {
	if lightIndex == 0 {
		return sc.LightKeys[0]
	}
	return sc.LightKeys[lightIndex] - sc.LightKeys[lightIndex-1]
}
