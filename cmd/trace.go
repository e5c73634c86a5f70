package cmd

import (
	"errors"
	"fmt"

	"github.com/achilleasa/hptrace/asset/compiler"
	"github.com/achilleasa/hptrace/tracer"
	"github.com/achilleasa/hptrace/types"
	"github.com/urfave/cli"
)

// Trace a single ray through the scene index and compare the result against
// a brute-force intersection of every scene geometry.
func TraceRay(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	origin, err := types.ParseVec3(ctx.String("origin"))
	if err != nil {
		return fmt.Errorf("invalid ray origin: %w", err)
	}
	dir, err := types.ParseVec3(ctx.String("dir"))
	if err != nil {
		return fmt.Errorf("invalid ray direction: %w", err)
	}

	compiled, err := compiler.CompileFile(ctx.Args().First(), indexOptions(ctx, cfg))
	if err != nil {
		return err
	}

	ray := tracer.Ray{Origin: origin, Dir: dir}
	hit, steps := tracer.ClosestHit(compiled.Index, compiled.Scene, ray)
	exp := tracer.BruteForce(compiled.Scene, ray)

	if hit.Ok() {
		logger.Noticef("ray %v -> %v hits geometry %d at distance %f (%d traversal steps)", origin, dir, hit.Geometry, hit.Distance, steps)
	} else {
		logger.Noticef("ray %v -> %v misses the scene (%d traversal steps)", origin, dir, steps)
	}

	if hit.Ok() != exp.Ok() || (hit.Ok() && hit.Distance != exp.Distance) {
		return fmt.Errorf("index traversal reported %+v but brute force reported %+v", hit, exp)
	}
	logger.Info("brute-force intersection agrees with index traversal")

	return nil
}
