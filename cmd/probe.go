package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/achilleasa/hptrace/asset/compiler"
	"github.com/achilleasa/hptrace/config"
	"github.com/achilleasa/hptrace/renderer"
	"github.com/achilleasa/hptrace/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Render depth probe frames with a pool of CPU tracers.
func RenderProbe(ctx *cli.Context) error {
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

	r, err := newProbe(ctx, cfg, compiled)
	if err != nil {
		return err
	}
	defer r.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err = r.Render(sigCtx); err != nil {
		return err
	}

	return displayFrameStats(r.Stats())
}

// Create a probe renderer using the config probe settings with any command
// flag overrides applied.
func newProbe(ctx *cli.Context, cfg *config.Config, compiled *compiler.Compiled) (renderer.Renderer, error) {
	if ctx.IsSet("width") {
		cfg.Probe.Width = uint32(ctx.Int("width"))
	}
	if ctx.IsSet("height") {
		cfg.Probe.Height = uint32(ctx.Int("height"))
	}
	if ctx.IsSet("workers") {
		cfg.Probe.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("frames") {
		cfg.Probe.Frames = uint32(ctx.Int("frames"))
	}
	if ctx.IsSet("verify") {
		cfg.Probe.Verify = ctx.Bool("verify")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tracers := make([]tracer.Tracer, cfg.ProbeWorkers())
	for idx := range tracers {
		tracers[idx] = tracer.NewCPUTracer(fmt.Sprintf("cpu-%d", idx))
	}

	return renderer.NewProbe(compiled.Scene, compiled.Index, tracer.NewPerfectScheduler(), tracers, cfg.ProbeOptions())
}

func displayFrameStats(stats renderer.FrameStats) error {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Block height", "% of frame", "Rays", "Hits", "Steps/ray", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.Hits),
			fmt.Sprintf("%.1f", stepsPerRay(stat.Steps, stat.Rays)),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{
		"TOTAL", "", "",
		fmt.Sprintf("%d", stats.Rays),
		fmt.Sprintf("%d", stats.Hits),
		fmt.Sprintf("%.1f", stepsPerRay(stats.Steps, stats.Rays)),
		stats.RenderTime.String(),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())

	if stats.Mismatches != 0 {
		return fmt.Errorf("%d rays disagree with the brute-force intersection", stats.Mismatches)
	}
	return nil
}

func stepsPerRay(steps, rays uint64) float64 {
	if rays == 0 {
		return 0
	}
	return float64(steps) / float64(rays)
}
