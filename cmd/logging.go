package cmd

import (
	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/config"
	"github.com/achilleasa/hptrace/log"
	"github.com/urfave/cli"
)

var logger = log.New("hptrace")

// Load the configuration selected by the global config flag and apply the
// logging settings. Verbosity flags take precedence over the config file.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	setupLogging(ctx, cfg)
	return cfg, nil
}

func setupLogging(ctx *cli.Context, cfg *config.Config) {
	log.SetLevel(cfg.LogLevel())

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// Get the index builder options from the config with any command flag
// overrides applied.
func indexOptions(ctx *cli.Context, cfg *config.Config) index.Options {
	opts := cfg.IndexOptions()
	if ctx.IsSet("variant") {
		opts.Variant = index.Variant(ctx.String("variant"))
	}
	if ctx.IsSet("split") {
		opts.Split = ctx.String("split")
	}
	return opts
}
