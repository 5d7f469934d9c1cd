package scene

import (
	"math"

	"github.com/achilleasa/go-raytrace/asset/texture"
	"github.com/achilleasa/go-raytrace/types"
)

// Cube map face indices.
const (
	FacePosX = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// A CubeMap surrounds the scene with six textures used for shading rays that
// do not hit any object.
type CubeMap struct {
	faces [6]*texture.Map

	// Width of the square texel neighborhood averaged for each lookup.
	filterWidth int
}

// Create a cube map from six face textures ordered as +x, -x, +y, -y, +z, -z.
func NewCubeMap(faces [6]*texture.Map, filterWidth int) *CubeMap {
	if filterWidth < 1 {
		filterWidth = 1
	}
	return &CubeMap{
		faces:       faces,
		filterWidth: filterWidth,
	}
}

// Get the environment color along direction dir.
func (cm *CubeMap) Lookup(dir types.Vec3) types.Vec3 {
	ax, ay, az := math.Abs(dir[0]), math.Abs(dir[1]), math.Abs(dir[2])

	var face int
	var major, u, v float64
	switch {
	case ax >= ay && ax >= az:
		major = ax
		if dir[0] > 0 {
			face, u, v = FacePosX, -dir[2], dir[1]
		} else {
			face, u, v = FaceNegX, dir[2], dir[1]
		}
	case ay >= az:
		major = ay
		if dir[1] > 0 {
			face, u, v = FacePosY, dir[0], -dir[2]
		} else {
			face, u, v = FaceNegY, dir[0], dir[2]
		}
	default:
		major = az
		if dir[2] > 0 {
			face, u, v = FacePosZ, dir[0], dir[1]
		} else {
			face, u, v = FaceNegZ, -dir[0], dir[1]
		}
	}

	if major == 0 || cm.faces[face] == nil {
		return types.Vec3{}
	}

	uv := types.XY((u/major+1)*0.5, (v/major+1)*0.5)
	return cm.sample(cm.faces[face], uv)
}

// Average the texels in a filterWidth x filterWidth neighborhood around uv.
func (cm *CubeMap) sample(tex *texture.Map, uv types.Vec2) types.Vec3 {
	if cm.filterWidth == 1 {
		return tex.MappedValue(uv)
	}

	cx := int(uv[0] * float64(tex.Width-1))
	cy := int(uv[1] * float64(tex.Height-1))
	half := cm.filterWidth / 2

	var sum types.Vec3
	for y := cy - half; y < cy-half+cm.filterWidth; y++ {
		for x := cx - half; x < cx-half+cm.filterWidth; x++ {
			sum = sum.Add(tex.PixelAt(x, y))
		}
	}
	return sum.Mul(1.0 / float64(cm.filterWidth*cm.filterWidth))
}
