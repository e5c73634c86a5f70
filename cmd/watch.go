package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/achilleasa/hptrace/asset/watcher"
	"github.com/urfave/cli"
)

// Watch a scene for changes. Each rebuilt snapshot is swapped into a probe
// renderer which then renders a verification frame against it.
func WatchScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	w, err := watcher.New(ctx.Args().First(), indexOptions(ctx, cfg), time.Duration(ctx.Int("debounce"))*time.Millisecond)
	if err != nil {
		return err
	}
	defer w.Close()

	r, err := newProbe(ctx, cfg, w.Current().Compiled)
	if err != nil {
		return err
	}
	defer r.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err = r.Render(sigCtx); err != nil {
		return err
	}
	if err = displayFrameStats(r.Stats()); err != nil {
		return err
	}

	if err = w.Start(); err != nil {
		return err
	}
	logger.Notice("waiting for scene changes; press ctrl+c to exit")

	for {
		select {
		case snapshot := <-w.Updates():
			logger.Noticef("rendering snapshot %s", snapshot.ID)
			if err = r.UpdateScene(snapshot.Compiled.Scene, snapshot.Compiled.Index); err != nil {
				return err
			}
			if err = r.Render(sigCtx); err != nil {
				if sigCtx.Err() != nil {
					return nil
				}
				return err
			}
			if err = displayFrameStats(r.Stats()); err != nil {
				logger.Error(err)
			}
		case err = <-w.Errors():
			logger.Warningf("scene rebuild failed: %v", err)
		case <-sigCtx.Done():
			return nil
		}
	}
}
