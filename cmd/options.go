package cmd

import (
	"fmt"

	"github.com/achilleasa/go-raytrace/renderer"
	"github.com/achilleasa/go-raytrace/tracer"
	"github.com/achilleasa/go-raytrace/types"
	"github.com/urfave/cli"
)

// Flags shared by all commands that render scenes.
var RenderFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "load render options from a TOML file",
	},
	cli.IntFlag{
		Name:  "width",
		Value: 512,
		Usage: "frame width; the height is calculated from the camera aspect ratio",
	},
	cli.IntFlag{
		Name:  "depth, d",
		Value: 0,
		Usage: "max number of reflection/refraction bounces",
	},
	cli.IntFlag{
		Name:  "threads, t",
		Usage: "number of cpu tracers (default: number of cpus)",
	},
	cli.BoolFlag{
		Name:  "aa",
		Usage: "enable anti-aliasing",
	},
	cli.IntFlag{
		Name:  "samples",
		Value: 3,
		Usage: "anti-aliasing grid width; each pixel is sampled samples x samples times",
	},
	cli.BoolFlag{
		Name:  "jitter",
		Usage: "jitter anti-aliasing sample positions",
	},
	cli.BoolFlag{
		Name:  "edge-detect",
		Usage: "only anti-alias pixels on detected edges",
	},
	cli.Float64Flag{
		Name:  "edge-threshold",
		Value: 0.1,
		Usage: "edge detection threshold in the [0, 1] range",
	},
	cli.BoolFlag{
		Name:  "no-kdtree",
		Usage: "disable the kd-tree and test every object for each ray",
	},
	cli.IntFlag{
		Name:  "kd-depth",
		Value: 15,
		Usage: "max kd-tree depth",
	},
	cli.IntFlag{
		Name:  "kd-leaf-size",
		Value: 10,
		Usage: "max number of items in a kd-tree leaf",
	},
	cli.BoolFlag{
		Name:  "no-culling",
		Usage: "disable backface culling",
	},
	cli.BoolFlag{
		Name:  "flat",
		Usage: "disable smooth shading of meshes",
	},
	cli.BoolFlag{
		Name:  "no-shadows",
		Usage: "disable shadows",
	},
	cli.BoolFlag{
		Name:  "cubemap",
		Usage: "use the scene cube map as background",
	},
	cli.StringFlag{
		Name:  "scheduler",
		Value: "perfect",
		Usage: "block scheduler: naive or perfect",
	},
}

// Build render options from the optional config file and then apply any
// command line flag that was explicitly set.
func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.DefaultOptions()
	if path := ctx.String("config"); path != "" {
		var err error
		if opts, err = renderer.LoadOptions(path); err != nil {
			return opts, err
		}
	}

	if ctx.IsSet("width") {
		opts.Width = ctx.Int("width")
	}
	if ctx.IsSet("depth") {
		opts.MaxDepth = ctx.Int("depth")
	}
	if ctx.IsSet("threads") {
		opts.Threads = ctx.Int("threads")
	}
	if ctx.IsSet("aa") {
		opts.AntiAlias.Enabled = ctx.Bool("aa")
	}
	if ctx.IsSet("samples") {
		opts.AntiAlias.Samples = ctx.Int("samples")
	}
	if ctx.IsSet("jitter") {
		opts.AntiAlias.Jitter = ctx.Bool("jitter")
	}
	if ctx.IsSet("edge-detect") {
		opts.AntiAlias.EdgeDetect = ctx.Bool("edge-detect")
	}
	if ctx.IsSet("edge-threshold") {
		opts.AntiAlias.EdgeThreshold = ctx.Float64("edge-threshold")
	}
	if ctx.IsSet("no-kdtree") {
		opts.KdTree.Enabled = !ctx.Bool("no-kdtree")
	}
	if ctx.IsSet("kd-depth") {
		opts.KdTree.MaxDepth = ctx.Int("kd-depth")
	}
	if ctx.IsSet("kd-leaf-size") {
		opts.KdTree.LeafSize = ctx.Int("kd-leaf-size")
	}
	if ctx.IsSet("no-culling") {
		opts.BackfaceCulling = !ctx.Bool("no-culling")
	}
	if ctx.IsSet("flat") {
		opts.SmoothShading = !ctx.Bool("flat")
	}
	if ctx.IsSet("no-shadows") {
		opts.Shadows = !ctx.Bool("no-shadows")
	}
	if ctx.IsSet("cubemap") {
		opts.CubeMap = ctx.Bool("cubemap")
	}

	return opts, opts.Validate()
}

// Select the block scheduler requested by the scheduler flag.
func blockScheduler(ctx *cli.Context) (tracer.BlockScheduler, error) {
	switch name := ctx.String("scheduler"); name {
	case "", "perfect":
		return tracer.PerfectScheduler(), nil
	case "naive":
		return tracer.NaiveScheduler(), nil
	default:
		return nil, fmt.Errorf("unknown block scheduler %q", name)
	}
}

func fmtVec(v types.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
