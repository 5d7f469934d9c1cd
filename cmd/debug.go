package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/go-raytrace/renderer"
	"github.com/achilleasa/go-raytrace/scene/reader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Trace a single pixel and display every ray spawned while shading it.
func Debug(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		logger.Error(err)
		return err
	}

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	// The ray cache can only be populated by a single tracer
	if !ctx.IsSet("threads") {
		opts.Threads = 1
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

	x, y := ctx.Int("x"), ctx.Int("y")
	rays, color, err := r.DebugPixel(x, y)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Type", "Depth", "Origin", "Direction", "Object", "T", "Normal"})
	for idx, ray := range rays {
		object, dist, normal := "-", "-", "-"
		if ray.Hit {
			object = ray.Object
			dist = fmt.Sprintf("%.4f", ray.T)
			normal = fmtVec(ray.N)
		}
		table.Append([]string{
			fmt.Sprintf("%d", idx),
			ray.Ray.Type.String(),
			fmt.Sprintf("%d", ray.Depth),
			fmtVec(ray.Ray.Origin),
			fmtVec(ray.Ray.Dir),
			object,
			dist,
			normal,
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "", "COLOR", fmtVec(color)})

	table.Render()
	logger.Noticef("rays traced for pixel (%d, %d)\n%s", x, y, buf.String())
	return nil
}
