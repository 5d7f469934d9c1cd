package main

import (
	"os"

	"github.com/achilleasa/go-raytrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "go-raytrace"
	app.Usage = "render scenes using whitted ray tracing"
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
	}

	outFlag := cli.StringFlag{
		Name:  "out, o",
		Value: "frame.png",
		Usage: "image filename for the rendered frame (.png or .bmp)",
	}

	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a single frame",
			Description: `
Load a scene from a yaml scene document or a wavefront obj file and render it
to an image file. Render options are read from the optional TOML config file;
flags that are explicitly set override the config file values.`,
			ArgsUsage: "scene_file",
			Flags:     append([]cli.Flag{outFlag}, cmd.RenderFlags...),
			Action:    cmd.RenderFrame,
		},
		{
			Name:  "watch",
			Usage: "render a frame each time the scene file changes",
			Description: `
Render the scene and keep watching the scene file for changes. Scene files
that fail to load are reported and the last successfully loaded scene is
retained.`,
			ArgsUsage: "scene_file",
			Flags:     append([]cli.Flag{outFlag}, cmd.RenderFlags...),
			Action:    cmd.WatchScene,
		},
		{
			Name:  "debug",
			Usage: "trace a single pixel and list all spawned rays",
			Description: `
Trace the primary ray through pixel (x, y) and display every reflected and
refracted ray spawned while shading it. Pixel coordinates start from the
bottom-left corner of the frame.`,
			ArgsUsage: "scene_file",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "x",
					Usage: "pixel column",
				},
				cli.IntFlag{
					Name:  "y",
					Usage: "pixel row",
				},
			}, cmd.RenderFlags...),
			Action: cmd.Debug,
		},
		{
			Name:      "scene-info",
			Usage:     "display scene statistics",
			ArgsUsage: "scene_file",
			Flags:     cmd.RenderFlags,
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:   "list-devices",
			Usage:  "list the host cpus available for rendering",
			Action: cmd.ListDevices,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
