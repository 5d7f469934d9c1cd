package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/go-raytrace/renderer"
	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/scene/reader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"golang.org/x/image/bmp"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		logger.Error(err)
		return err
	}

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return renderScene(sigCtx, ctx, sc, ctx.String("out"))
}

// Render sc using the options specified by the command flags and write the
// frame to imgFile.
func renderScene(renderCtx context.Context, ctx *cli.Context, sc *scene.Scene, imgFile string) error {
	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	scheduler, err := blockScheduler(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(sc, scheduler, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Notice("rendering frame")
	frame, err := r.Render(renderCtx)
	if err != nil {
		return err
	}

	displayFrameStats(r.Stats())

	start := time.Now()
	if err = writeFrame(imgFile, frame.Image()); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Encode frame using the format that matches the image file extension.
func writeFrame(imgFile string, img image.Image) error {
	var encode func(f *os.File) error
	switch ext := strings.ToLower(filepath.Ext(imgFile)); ext {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	default:
		return fmt.Errorf("unsupported image format %q; use a .png or .bmp file", ext)
	}

	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}

	if err = encode(f); err != nil {
		f.Close()
		return fmt.Errorf("could not encode frame: %w", err)
	}
	return f.Close()
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Primary", "Block height", "% of frame", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%t", stat.IsPrimary),
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		fmt.Sprintf("passes: %d", stats.Passes),
		fmt.Sprintf("edge pixels: %d", stats.EdgePixels),
		"TOTAL",
		stats.RenderTime.String(),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
