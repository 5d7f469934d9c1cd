package scene

import (
	"fmt"

	"github.com/achilleasa/go-raytrace/types"
	"github.com/go-gl/mathgl/mgl64"
)

// Stores the ray directions at the four corners of the camera frustrum. It is
// used as a shortcut for generating per pixel rays via interpolation of the
// corner rays.
type Frustrum [4]types.Vec3

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// A pinhole camera.
type Camera struct {
	Eye    types.Vec3
	LookAt types.Vec3
	Up     types.Vec3

	// Vertical field of view in degrees.
	FOV float64

	aspect   float64
	Frustrum Frustrum
}

// Create a camera at eye looking towards lookAt.
func NewCamera(eye, lookAt, up types.Vec3, fov, aspect float64) *Camera {
	c := &Camera{
		Eye:    eye,
		LookAt: lookAt,
		Up:     up,
		FOV:    fov,
		aspect: aspect,
	}
	c.Update()
	return c
}

// Get the image width to height ratio.
func (c *Camera) AspectRatio() float64 {
	return c.aspect
}

// Change the aspect ratio and update the frustrum.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.aspect = aspect
	c.Update()
}

// Recalculate the frustrum corner rays. Must be called after modifying any
// of the exported camera fields.
func (c *Camera) Update() {
	viewMat := mgl64.LookAtV(mgl64.Vec3(c.Eye), mgl64.Vec3(c.LookAt), mgl64.Vec3(c.Up))
	projMat := mgl64.Perspective(mgl64.DegToRad(c.FOV), c.aspect, 1, 1000)
	invProjViewMat := projMat.Mul4(viewMat).Inv()

	// Unproject each clip space corner on the near plane, apply the
	// perspective divide and subtract the eye position.
	corner := func(x, y float64) types.Vec3 {
		v := invProjViewMat.Mul4x1(mgl64.Vec4{x, y, -1, 1})
		return types.Vec3(v.Vec3().Mul(1.0 / v[3])).Sub(c.Eye)
	}

	c.Frustrum[0] = corner(-1, 1)
	c.Frustrum[1] = corner(1, 1)
	c.Frustrum[2] = corner(-1, -1)
	c.Frustrum[3] = corner(1, -1)
}

// Get the primary ray through the normalized image plane coordinates (x, y).
// The (0, 0) coordinate maps to the bottom-left corner of the image.
func (c *Camera) RayThrough(x, y float64) types.Ray {
	bottom := c.Frustrum[2].Add(c.Frustrum[3].Sub(c.Frustrum[2]).Mul(x))
	top := c.Frustrum[0].Add(c.Frustrum[1].Sub(c.Frustrum[0]).Mul(x))
	dir := bottom.Add(top.Sub(bottom).Mul(y)).Normalize()
	return types.NewRay(c.Eye, dir, types.Visibility)
}
