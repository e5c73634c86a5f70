package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/hptrace/asset"
	"github.com/achilleasa/hptrace/asset/input"
	"github.com/achilleasa/hptrace/log"
	"github.com/achilleasa/hptrace/types"
)

// The name of the material assigned to faces that precede any usemtl statement.
const defaultMaterialName = ""

type wavefrontSceneReader struct {
	logger log.Logger

	// The parsed scene.
	rawScene *input.Scene

	// A map of material names to their index in the scene material list.
	matNameToIndex map[string]int

	// Currently selected material index or -1 if none is selected.
	curMaterial int

	// Number of faces with more than 3 vertices that were triangulated.
	triangulatedFaces int

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		rawScene:       input.NewScene(),
		matNameToIndex: make(map[string]int, 0),
		curMaterial:    -1,
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*input.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	if r.triangulatedFaces > 0 {
		r.logger.Infof("triangulated %d polygonal faces", r.triangulatedFaces)
	}

	r.logger.Noticef(
		"parsed scene in %d ms (%d points, %d triangles, %d materials)",
		time.Since(start).Nanoseconds()/1e6,
		len(r.rawScene.Points), len(r.rawScene.Triangles), len(r.rawScene.Materials),
	)
	return r.rawScene, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Select the default material, creating it on first use.
func (r *wavefrontSceneReader) defaultMaterial() int {
	matIndex, exists := r.matNameToIndex[defaultMaterialName]
	if !exists {
		r.rawScene.Materials = append(r.rawScene.Materials, &input.Material{
			Name:     defaultMaterialName,
			Diffuse:  types.Vec3{0.7, 0.7, 0.7},
			Dissolve: 1.0,
		})
		matIndex = len(r.rawScene.Materials) - 1
		r.matNameToIndex[defaultMaterialName] = matIndex
	}
	return matIndex
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// The main obj file may include (call) several other object files. Each
	// object file uses 1-based indices relative to its own vertex list so
	// we track the offset of the first vertex parsed by this file.
	relVertexOffset := len(r.rawScene.Points)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matIndex, exists := r.matNameToIndex[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curMaterial = matIndex
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.rawScene.Points = append(r.rawScene.Points, v)
		case "f":
			triList, err := r.parseFace(lineTokens, relVertexOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.rawScene.Triangles = append(r.rawScene.Triangles, triList...)
		case "vn", "vt", "g", "o", "s", "l", "p":
			// Normals, uvs, grouping and non-surface elements do not
			// contribute to the partitioned geometry.
		default:
			r.logger.Debugf("[%s: %d] ignoring unsupported statement %q", res.Path(), lineNum, lineTokens[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	return nil
}

// Parse face definition. Each face definition consists of 3 or more
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 indices separated by a slash character. The
// following formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex list. Only the vertex index is used. Faces with more than 3
// vertices are split into a triangle fan around the first vertex.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset int) ([]input.Triangle, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	pointIndices := make([]int, len(lineTokens)-1)
	expIndices := 0
	for arg := 0; arg < len(pointIndices); arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.rawScene.Points), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		pointIndices[arg] = vOffset
	}

	if r.curMaterial == -1 {
		r.curMaterial = r.defaultMaterial()
	}

	if len(pointIndices) > 3 {
		r.triangulatedFaces++
	}

	triangles := make([]input.Triangle, 0, len(pointIndices)-2)
	for i := 1; i+1 < len(pointIndices); i++ {
		triangles = append(triangles, input.Triangle{
			Points:   [3]int{pointIndices[0], pointIndices[i], pointIndices[i+1]},
			Material: r.curMaterial,
		})
	}

	return triangles, nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *input.Material = nil

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = &input.Material{
				Name:     matName,
				Dissolve: 1.0,
			}
			r.rawScene.Materials = append(r.rawScene.Materials, curMaterial)
			r.matNameToIndex[matName] = len(r.rawScene.Materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "Kd":
				curMaterial.Diffuse, err = parseVec3(lineTokens)
			case "Ks":
				curMaterial.Specular, err = parseVec3(lineTokens)
			case "Ke":
				curMaterial.Emission, err = parseVec3(lineTokens)
			case "Ni":
				curMaterial.IOR, err = parseFloat32(lineTokens)
			case "Ns":
				curMaterial.Shininess, err = parseFloat32(lineTokens)
			case "d":
				curMaterial.Dissolve, err = parseFloat32(lineTokens)
			case "Tr":
				var tr float32
				tr, err = parseFloat32(lineTokens)
				curMaterial.Dissolve = 1.0 - tr
			case "illum":
				var illum float32
				illum, err = parseFloat32(lineTokens)
				curMaterial.Illum = int32(illum)
			default:
				r.logger.Debugf("[%s: %d] ignoring unsupported material statement %q", res.Path(), lineNum, lineTokens[0])
			}

			// Report any errors
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	return nil
}

// Given an index for a face coord calculate the proper offset into the coord
// list. Wavefront format can also use negative indices to reference elements
// from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if index == 0 || vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
