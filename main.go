package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/hptrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	variantFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "variant",
			Value: "kdtree",
			Usage: "spatial index variant (kdtree or grid)",
		},
		cli.StringFlag{
			Name:  "split",
			Value: "midpoint",
			Usage: "kd-tree split strategy (midpoint or sah)",
		},
	}

	probeFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 128,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 128,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of cpu tracers; 0 uses one tracer per cpu",
		},
		cli.IntFlag{
			Name:  "frames",
			Value: 1,
			Usage: "number of frames to render",
		},
		cli.BoolFlag{
			Name:  "verify",
			Usage: "compare every traced ray against a brute-force intersection",
		},
	}

	app := cli.NewApp()
	app.Name = "hptrace"
	app.Usage = "build and inspect ray tracing acceleration indices"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from a TOML file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "build the spatial index for one or more scenes",
			Description: `
Parse a scene definition from a wavefront obj file, build the light-importance
index and partition the scene geometry into a flattened spatial index.

Statistics for the compiled scene and index buffers are displayed for each
input file.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "verify",
					Usage: "check the index invariants after building it",
				},
			}, variantFlags...),
			Action: cmd.CompileScene,
		},
		{
			Name:      "lights",
			Usage:     "list the light-importance index of a scene",
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "limit",
					Value: 20,
					Usage: "max number of index entries to display; 0 displays all",
				},
				cli.Float64Flag{
					Name:  "sample",
					Usage: "select a light using this value in [0, total light value)",
				},
			},
			Action: cmd.ListLights,
		},
		{
			Name:      "trace",
			Usage:     "trace a single ray through the scene index",
			ArgsUsage: "scene_file.obj",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0,0",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,1",
					Usage: "ray direction as x,y,z",
				},
			}, variantFlags...),
			Action: cmd.TraceRay,
		},
		{
			Name:  "probe",
			Usage: "render depth frames using cpu tracers",
			Description: `
Trace one primary ray per pixel and record the distance to the closest hit.
Frame rows are split between a pool of cpu tracers that share the scene and
index buffers.`,
			ArgsUsage: "scene_file.obj",
			Flags:     append(append([]cli.Flag{}, probeFlags...), variantFlags...),
			Action:    cmd.RenderProbe,
		},
		{
			Name:      "watch",
			Usage:     "rebuild the scene index whenever the scene files change",
			ArgsUsage: "scene_file.obj",
			Flags: append(append([]cli.Flag{
				cli.IntFlag{
					Name:  "debounce",
					Value: 250,
					Usage: "delay in ms between the last file change and the rebuild",
				},
			}, probeFlags...), variantFlags...),
			Action: cmd.WatchScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
