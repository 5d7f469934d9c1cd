package texture

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/achilleasa/go-raytrace/asset"
	"github.com/achilleasa/go-raytrace/types"
	"golang.org/x/image/bmp"
)

// A Map is a decoded RGB bitmap. Rows are stored bottom-up so that texel
// (0, 0) is the bottom-left corner of the image and the v texture coordinate
// grows upwards.
type Map struct {
	Name   string
	Width  int
	Height int

	// Packed RGB triplets, 3 bytes per texel.
	Data []byte
}

type decodeFn func(io.Reader) (image.Image, error)

var decoders = map[string]decodeFn{
	".png":  png.Decode,
	".bmp":  bmp.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
}

// Create a new texture map from a Resource. The decoder is selected using the
// resource file extension.
func New(res *asset.Resource) (*Map, error) {
	decode, supported := decoders[res.Ext()]
	if !supported {
		return nil, fmt.Errorf("%w: '%s' while loading %s", ErrUnsupportedFormat, res.Ext(), res.Path())
	}

	img, err := decode(res)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %s", ErrDecode, res.Path(), err.Error())
	}

	tex := FromImage(img)
	tex.Name = res.Path()
	return tex, nil
}

// Create a texture map from a decoded image.
func FromImage(img image.Image) *Map {
	bounds := img.Bounds()
	tex := &Map{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Data:   make([]byte, bounds.Dx()*bounds.Dy()*3),
	}

	wOffset := 0
	for y := tex.Height - 1; y >= 0; y-- {
		for x := 0; x < tex.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			tex.Data[wOffset] = uint8(r >> 8)
			tex.Data[wOffset+1] = uint8(g >> 8)
			tex.Data[wOffset+2] = uint8(b >> 8)
			wOffset += 3
		}
	}

	return tex
}

// Get the color of the texel at (x, y). Out of range coordinates are clamped
// to the closest valid row/column.
func (m *Map) PixelAt(x, y int) types.Vec3 {
	if len(m.Data) == 0 {
		return types.XYZ(1, 1, 1)
	}

	if x >= m.Width {
		x = m.Width - 1
	} else if x < 0 {
		x = 0
	}
	if y >= m.Height {
		y = m.Height - 1
	} else if y < 0 {
		y = 0
	}

	pos := (y*m.Width + x) * 3
	return types.XYZ(
		float64(m.Data[pos])/255.0,
		float64(m.Data[pos+1])/255.0,
		float64(m.Data[pos+2])/255.0,
	)
}

// Map a parametric coordinate in the [0, 1]^2 unit square to the bitmap and
// bilinearly interpolate the four surrounding texels.
func (m *Map) MappedValue(uv types.Vec2) types.Vec3 {
	fx := uv[0] * float64(m.Width-1)
	fy := uv[1] * float64(m.Height-1)
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	bottom := m.PixelAt(x0, y0).Mul(1 - dx).Add(m.PixelAt(x0+1, y0).Mul(dx))
	top := m.PixelAt(x0, y0+1).Mul(1 - dx).Add(m.PixelAt(x0+1, y0+1).Mul(dx))
	return bottom.Mul(1 - dy).Add(top.Mul(dy))
}
