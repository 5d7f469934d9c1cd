package scene

import (
	"github.com/achilleasa/go-raytrace/types"
	"github.com/go-gl/mathgl/mgl64"
)

// A Transform maps points from an object's local coordinate frame to world
// space and back.
type Transform struct {
	toWorld mgl64.Mat4
	toLocal mgl64.Mat4

	// Inverse transpose of toWorld; used for transforming normals.
	normalMat mgl64.Mat4
}

// Create an identity transform.
func IdentityTransform() *Transform {
	return NewTransform(mgl64.Ident4())
}

// Create a transform from a local-to-world matrix.
func NewTransform(toWorld mgl64.Mat4) *Transform {
	toLocal := toWorld.Inv()
	return &Transform{
		toWorld:   toWorld,
		toLocal:   toLocal,
		normalMat: toLocal.Transpose(),
	}
}

// Return a new transform that applies a translation before this transform.
func (t *Transform) Translate(v types.Vec3) *Transform {
	return t.Compose(mgl64.Translate3D(v[0], v[1], v[2]))
}

// Return a new transform that applies a non-uniform scale before this transform.
func (t *Transform) Scale(v types.Vec3) *Transform {
	return t.Compose(mgl64.Scale3D(v[0], v[1], v[2]))
}

// Return a new transform that applies a rotation of angle radians around axis
// before this transform.
func (t *Transform) Rotate(axis types.Vec3, angle float64) *Transform {
	return t.Compose(mgl64.HomogRotate3D(angle, mgl64.Vec3(axis.Normalize())))
}

// Return a new transform that applies m before this transform.
func (t *Transform) Compose(m mgl64.Mat4) *Transform {
	return NewTransform(t.toWorld.Mul4(m))
}

// Get the local-to-world matrix.
func (t *Transform) Matrix() mgl64.Mat4 {
	return t.toWorld
}

// Map a local-space point to world space.
func (t *Transform) PointToWorld(p types.Vec3) types.Vec3 {
	return types.Vec3(mgl64.TransformCoordinate(mgl64.Vec3(p), t.toWorld))
}

// Map a world-space point to local space.
func (t *Transform) PointToLocal(p types.Vec3) types.Vec3 {
	return types.Vec3(mgl64.TransformCoordinate(mgl64.Vec3(p), t.toLocal))
}

// Map a world-space direction to local space. The result is not normalized.
func (t *Transform) DirToLocal(d types.Vec3) types.Vec3 {
	return types.Vec3(mgl64.TransformNormal(mgl64.Vec3(d), t.toLocal))
}

// Map a local-space normal to a world-space unit normal.
func (t *Transform) NormalToWorld(n types.Vec3) types.Vec3 {
	return types.Vec3(mgl64.TransformNormal(mgl64.Vec3(n), t.normalMat)).Normalize()
}
