package cmd

import (
	"flag"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/go-raytrace/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"golang.org/x/image/bmp"
)

func mockContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range RenderFlags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestRenderOptionsDefaults(t *testing.T) {
	opts, err := renderOptions(mockContext(t))
	require.NoError(t, err)
	assert.Equal(t, renderer.DefaultOptions(), opts)
}

func TestRenderOptionsFlagsOverrideConfig(t *testing.T) {
	config := filepath.Join(t.TempDir(), "render.toml")
	require.NoError(t, os.WriteFile(config, []byte("width = 200\nmax_depth = 3\nshadows = false\n"), 0644))

	opts, err := renderOptions(mockContext(t, "-config", config, "-width", "64", "-aa", "-flat"))
	require.NoError(t, err)

	assert.Equal(t, 64, opts.Width)
	assert.Equal(t, 3, opts.MaxDepth)
	assert.False(t, opts.Shadows)
	assert.True(t, opts.AntiAlias.Enabled)
	assert.False(t, opts.SmoothShading)
	assert.True(t, opts.KdTree.Enabled)
}

func TestRenderOptionsValidation(t *testing.T) {
	_, err := renderOptions(mockContext(t, "-width", "-5"))
	assert.ErrorIs(t, err, renderer.ErrInvalidOptions)
}

func TestBlockScheduler(t *testing.T) {
	type spec struct {
		args   []string
		expErr bool
	}
	specs := []spec{
		{nil, false},
		{[]string{"-scheduler", "naive"}, false},
		{[]string{"-scheduler", "perfect"}, false},
		{[]string{"-scheduler", "random"}, true},
	}

	for index, s := range specs {
		sch, err := blockScheduler(mockContext(t, s.args...))
		if s.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error", index)
			}
			continue
		}
		if err != nil || sch == nil {
			t.Fatalf("[spec %d] expected a scheduler; got error %v", index, err)
		}
	}
}

func TestWriteFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(1, 0, color.RGBA{255, 0, 0, 255})
	dir := t.TempDir()

	require.NoError(t, writeFrame(filepath.Join(dir, "frame.png"), img))

	bmpFile := filepath.Join(dir, "frame.BMP")
	require.NoError(t, writeFrame(bmpFile, img))
	f, err := os.Open(bmpFile)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := bmp.Decode(f)
	require.NoError(t, err)
	r, g, b, _ := decoded.At(1, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})

	assert.Error(t, writeFrame(filepath.Join(dir, "frame.tga"), img))
}
