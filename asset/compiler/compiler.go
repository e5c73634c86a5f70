package compiler

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/input"
	"github.com/achilleasa/hptrace/asset/reader"
	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/log"
	"github.com/olekukonko/tablewriter"
)

// The output of the build pipeline: an immutable scene together with the
// flattened spatial index built over its geometry.
type Compiled struct {
	Scene   *scene.Scene
	Index   *index.Buffers
	Options index.Options
}

type sceneCompiler struct {
	rawScene *input.Scene
	opts     index.Options
	logger   log.Logger
}

// Read a scene file and compile it.
func CompileFile(sceneFile string, opts index.Options) (*Compiled, error) {
	logger := log.New("scene compiler")

	start := time.Now()
	raw, err := reader.ReadScene(sceneFile)
	if err != nil {
		return nil, err
	}
	logger.Noticef("parsed %q in %d ms", sceneFile, time.Since(start).Nanoseconds()/1e6)

	return Compile(raw, opts)
}

// Compile a scene representation parsed by a scene reader into a scene and a
// spatial index of the variant selected by opts. Nothing is returned if any
// stage fails.
func Compile(raw *input.Scene, opts index.Options) (*Compiled, error) {
	compiler := &sceneCompiler{
		rawScene: raw,
		opts:     opts,
		logger:   log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	sc, err := compiler.buildScene()
	if err != nil {
		return nil, err
	}

	buffers, err := compiler.buildIndex(sc)
	if err != nil {
		return nil, err
	}

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return &Compiled{
		Scene:   sc,
		Index:   buffers,
		Options: opts,
	}, nil
}

func (c *sceneCompiler) buildScene() (*scene.Scene, error) {
	start := time.Now()
	c.logger.Noticef(
		"processing %d points, %d triangles and %d materials",
		len(c.rawScene.Points), len(c.rawScene.Triangles), len(c.rawScene.Materials),
	)

	sc, err := scene.New(c.rawScene)
	if err != nil {
		return nil, err
	}

	if len(sc.Lights) > 0 {
		c.logger.Infof("registered %d emissive geometries (total light value %f)", len(sc.Lights), sc.TotalLightValue)
	} else {
		c.logger.Warning("the scene contains no emissive geometries")
	}

	c.logger.Noticef("processed scene data in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

func (c *sceneCompiler) buildIndex(sc *scene.Scene) (*index.Buffers, error) {
	builder, err := index.NewBuilder(c.opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	variant := c.opts.Variant
	if variant == "" {
		variant = index.KDTreeVariant
	}
	c.logger.Noticef("partitioning %d geometries using %s index", len(sc.Geometries), variant)

	buffers := builder.Build(sc.Geometries, sc.Points)

	stats := buffers.Stats()
	c.logger.Debugf(
		"index stats: nodes %d, leafs %d (%d empty), max depth %d, max leaf size %d, geometry refs %d (%d unique)",
		stats.Nodes, stats.Leafs, stats.EmptyLeafs, stats.MaxDepth, stats.MaxLeafSize, stats.GeometryRefs, stats.UniqueGeometries,
	)
	c.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return buffers, nil
}

// Check the index invariants against the compiled scene.
func (c *Compiled) Validate() error {
	return index.Validate(c.Index, c.Scene.Geometries, c.Scene.Points)
}

// Build a tabular representation of the compiled scene statistics.
func (c *Compiled) Stats() string {
	sc := c.Scene
	stats := c.Index.Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", " ", fmtSize(sc.Points, sc.Geometries)})
	table.Append([]string{"", "Points", fmt.Sprint(len(sc.Points)), fmtSize(sc.Points)})
	table.Append([]string{"", "Triangles", fmt.Sprint(len(sc.Geometries)), fmtSize(sc.Geometries)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Materials", "---", fmt.Sprint(len(sc.Materials)), fmtSize(sc.Materials)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Lights", "---", " ", fmtSize(sc.Lights, sc.LightKeys, sc.LightIndices)})
	table.Append([]string{"", "Emissives", fmt.Sprint(len(sc.Lights)), fmtSize(sc.Lights)})
	table.Append([]string{"", "Importance keys", fmt.Sprint(len(sc.LightKeys)), fmtSize(sc.LightKeys, sc.LightIndices)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Index", "---", " ", fmtSize(c.Index.Nodes, c.Index.LeafData)})
	table.Append([]string{"", "Nodes", fmt.Sprint(stats.Nodes), fmtSize(c.Index.Nodes)})
	table.Append([]string{"", "Leafs (empty)", fmt.Sprintf("%d (%d)", stats.Leafs, stats.EmptyLeafs), " "})
	table.Append([]string{"", "Max depth", fmt.Sprint(stats.MaxDepth), " "})
	table.Append([]string{"", "Max leaf size", fmt.Sprint(stats.MaxLeafSize), " "})
	table.Append([]string{"", "Geometry refs", fmt.Sprintf("%d (%d unique)", stats.GeometryRefs, stats.UniqueGeometries), fmtSize(c.Index.LeafData)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(sc.Points, sc.Geometries, sc.Materials, sc.Lights, sc.LightKeys, sc.LightIndices, c.Index.Nodes, c.Index.LeafData), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
