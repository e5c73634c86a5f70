package cmd

import (
	"errors"

	"github.com/achilleasa/hptrace/asset/compiler"
	"github.com/urfave/cli"
)

// Compile one or more scenes and display their statistics.
func CompileScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing scene file argument")
	}

	opts := indexOptions(ctx, cfg)
	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)

		compiled, err := compiler.CompileFile(sceneFile, opts)
		if err != nil {
			return err
		}

		if ctx.Bool("verify") {
			if err = compiled.Validate(); err != nil {
				return err
			}
			logger.Noticef("%q: index invariants hold", sceneFile)
		}

		logger.Noticef("scene statistics for %q\n%s", sceneFile, compiled.Stats())
	}

	return nil
}
