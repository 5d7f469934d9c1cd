package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/achilleasa/go-raytrace/renderer"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli"
)

// Render a scene and re-render it each time the scene file changes. Scene
// files that fail to load are reported and the last good scene is kept.
func WatchScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sceneFile, err := filepath.Abs(ctx.Args().First())
	if err != nil {
		return err
	}
	imgFile := ctx.String("out")

	session := renderer.NewSession()
	if err = session.Load(sceneFile); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace files instead of writing them in place so
	// watch the parent folder rather than the file itself.
	if err = watcher.Add(filepath.Dir(sceneFile)); err != nil {
		return err
	}

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	render := func() {
		if err := renderScene(sigCtx, ctx, session.Scene(), imgFile); err != nil {
			logger.Errorf("render failed: %v", err)
		}
	}

	render()
	logger.Noticef("watching %s for changes; press ctrl+c to exit", sceneFile)
	for {
		select {
		case <-sigCtx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != sceneFile || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			logger.Noticef("detected change to %s; reloading scene", sceneFile)
			if session.Load(sceneFile) != nil {
				continue
			}
			render()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warningf("watcher error: %v", err)
		}
	}
}
