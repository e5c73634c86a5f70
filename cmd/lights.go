package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/hptrace/asset/compiler"
	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display the light-importance index of a scene.
func ListLights(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	compiled, err := compiler.CompileFile(ctx.Args().First(), indexOptions(ctx, cfg))
	if err != nil {
		return err
	}
	sc := compiled.Scene

	if len(sc.Lights) == 0 {
		logger.Warning("scene contains no emissive geometries")
		return nil
	}

	logger.Noticef("lights per material\n%s", materialLightTable(sc))
	logger.Noticef("light-importance index (total light value %f)\n%s", sc.TotalLightValue, lightTable(sc, ctx.Int("limit")))

	if ctx.IsSet("sample") {
		r := float32(ctx.Float64("sample"))
		if r < 0 || r >= sc.TotalLightValue {
			return fmt.Errorf("sample value must be in [0, %f); got %f", sc.TotalLightValue, r)
		}

		light, prob, _ := sc.SelectLight(r)
		logger.Noticef(
			"sample %f selects geometry %d (material %q) with probability %f",
			r, light.Geometry, sc.MaterialNames[light.Material], prob,
		)
	}

	return nil
}

func materialLightTable(sc *scene.Scene) string {
	counts := make([]int, len(sc.Materials))
	for _, light := range sc.Lights {
		counts[light.Material]++
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Material", "Name", "Lights"})
	for matIndex, count := range counts {
		if count == 0 {
			continue
		}
		table.Append([]string{
			fmt.Sprintf("%d", matIndex),
			sc.MaterialNames[matIndex],
			fmt.Sprintf("%d", count),
		})
	}
	table.SetFooter([]string{"", "TOTAL", fmt.Sprintf("%d", len(sc.Lights))})

	table.Render()
	return buf.String()
}

func lightTable(sc *scene.Scene, limit int) string {
	if limit <= 0 || limit > len(sc.LightKeys) {
		limit = len(sc.LightKeys)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Light", "Geometry", "Material", "Weight", "Cumulative key", "Probability"})
	for slot := 0; slot < limit; slot++ {
		lightIndex := sc.LightIndices[slot]
		light := sc.Lights[lightIndex]
		weight := sc.LightWeight(int(lightIndex))
		table.Append([]string{
			fmt.Sprintf("%d", lightIndex),
			fmt.Sprintf("%d", light.Geometry),
			sc.MaterialNames[light.Material],
			fmt.Sprintf("%f", weight),
			fmt.Sprintf("%f", sc.LightKeys[slot]),
			fmt.Sprintf("%02.3f %%", 100*weight/sc.TotalLightValue),
		})
	}
	if limit < len(sc.LightKeys) {
		table.SetFooter([]string{"", "", "", "", "", fmt.Sprintf("%d more", len(sc.LightKeys)-limit)})
	}

	table.Render()
	return buf.String()
}
