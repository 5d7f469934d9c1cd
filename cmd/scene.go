package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/go-raytrace/scene/reader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sceneFile := ctx.Args().First()
	sc, err := reader.ReadScene(sceneFile)
	if err != nil {
		logger.Error(err)
		return err
	}

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}
	if opts.KdTree.Enabled {
		sc.BuildKdTree(opts.KdTree.MaxDepth, opts.KdTree.LeafSize)
	}

	stats := sc.Stats()
	bounds := sc.Bounds()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Objects", fmt.Sprintf("%d", stats.Objects)})
	table.Append([]string{"Unbounded objects", fmt.Sprintf("%d", stats.Unbounded)})
	table.Append([]string{"Lights", fmt.Sprintf("%d", stats.Lights)})
	table.Append([]string{"Meshes", fmt.Sprintf("%d", stats.Meshes)})
	table.Append([]string{"Faces", fmt.Sprintf("%d", stats.Faces)})
	table.Append([]string{"Textures", fmt.Sprintf("%d", stats.Textures)})
	if !bounds.IsEmpty() {
		table.Append([]string{"Bounds", fmt.Sprintf("%s - %s", fmtVec(bounds.Min), fmtVec(bounds.Max))})
	}
	if stats.KdTree {
		kd := stats.KdTreeStats
		table.Append([]string{"Kd-tree nodes", fmt.Sprintf("%d", kd.Nodes)})
		table.Append([]string{"Kd-tree leafs", fmt.Sprintf("%d", kd.Leafs)})
		table.Append([]string{"Kd-tree depth", fmt.Sprintf("%d", kd.MaxDepth)})
		table.Append([]string{"Kd-tree item refs", fmt.Sprintf("%d", kd.Refs)})
		table.Append([]string{"Kd-tree build time", kd.BuildTime.String()})
		table.Append([]string{"Meshes with private kd-tree", fmt.Sprintf("%d", stats.MeshTrees)})
	}

	table.Render()
	logger.Noticef("scene information for %s\n%s", sceneFile, buf.String())
	return nil
}
