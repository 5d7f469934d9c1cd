package tracer

import (
	"image"
	"image/color"
	"testing"

	"github.com/achilleasa/go-raytrace/types"
	"github.com/stretchr/testify/assert"
)

func solidImage(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFrameQuantization(t *testing.T) {
	f := NewFrame(2, 1)

	type spec struct {
		in  float64
		exp byte
	}
	specs := []spec{
		{0, 0},
		{1, 255},
		{0.5, 128},
		{0.1, 26},
		{1.0 / 255.0, 1},
	}

	for index, s := range specs {
		f.Set(1, 0, types.XYZ(s.in, s.in, s.in))
		if got := f.Buffer()[3]; got != s.exp {
			t.Fatalf("[spec %d] expected %f to be stored as %d; got %d", index, s.in, s.exp, got)
		}
	}
}

func TestFrameImageFlipsRows(t *testing.T) {
	f := NewFrame(2, 3)
	f.Set(0, 0, types.XYZ(1, 0, 0))
	f.Set(1, 2, types.XYZ(0, 0, 1))

	img := f.Image()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 2))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(0, 0))

	assert.Equal(t, types.XYZ(1, 0, 0), f.At(0, 0))
}

func TestDetectEdges(t *testing.T) {
	// Left half black, right half white
	f := NewFrame(16, 8)
	for j := 0; j < f.Height(); j++ {
		for i := 8; i < f.Width(); i++ {
			f.Set(i, j, types.XYZ(1, 1, 1))
		}
	}

	mask := DetectEdges(f, 0.1)
	assert.Len(t, mask, 16*8)

	for j := 0; j < f.Height(); j++ {
		for _, i := range []int{7, 8} {
			if !mask[j*16+i] {
				t.Fatalf("expected pixel (%d, %d) next to the edge to be flagged", i, j)
			}
		}
		if j < 2 || j > 5 {
			continue
		}
		for _, i := range []int{2, 3, 12, 13} {
			if mask[j*16+i] {
				t.Fatalf("expected pixel (%d, %d) away from the edge not to be flagged", i, j)
			}
		}
	}

	// A uniform frame has no edges
	for _, flagged := range DetectEdges(NewFrame(8, 8), 0.1) {
		if flagged {
			t.Fatal("expected uniform frame not to contain any edges")
		}
	}
}
