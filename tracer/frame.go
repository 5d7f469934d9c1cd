package tracer

import (
	"image"
	"math"

	"github.com/achilleasa/go-raytrace/types"
)

// A Frame is a flat row-major RGB buffer with 3 bytes per pixel. Row 0 is
// the bottom row of the rendered image.
type Frame struct {
	width  int
	height int
	data   []byte
}

// Allocate a black frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		width:  width,
		height: height,
		data:   make([]byte, width*height*3),
	}
}

func (f *Frame) Width() int {
	return f.width
}

func (f *Frame) Height() int {
	return f.height
}

// Get the raw pixel buffer.
func (f *Frame) Buffer() []byte {
	return f.data
}

// Store color c at pixel (i, j). Channels are expected to be in [0, 1] and
// are quantized as round(255 * c).
func (f *Frame) Set(i, j int, c types.Vec3) {
	offset := (j*f.width + i) * 3
	f.data[offset] = uint8(math.Round(255 * c[0]))
	f.data[offset+1] = uint8(math.Round(255 * c[1]))
	f.data[offset+2] = uint8(math.Round(255 * c[2]))
}

// Get the color stored at pixel (i, j).
func (f *Frame) At(i, j int) types.Vec3 {
	offset := (j*f.width + i) * 3
	return types.XYZ(
		float64(f.data[offset])/255.0,
		float64(f.data[offset+1])/255.0,
		float64(f.data[offset+2])/255.0,
	)
}

// Convert the frame into an image. Rows are flipped so that the bottom frame
// row becomes the last image row.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for j := 0; j < f.height; j++ {
		src := f.data[j*f.width*3 : (j+1)*f.width*3]
		dst := img.Pix[(f.height-1-j)*img.Stride:]
		for i := 0; i < f.width; i++ {
			dst[i*4] = src[i*3]
			dst[i*4+1] = src[i*3+1]
			dst[i*4+2] = src[i*3+2]
			dst[i*4+3] = 0xff
		}
	}
	return img
}
