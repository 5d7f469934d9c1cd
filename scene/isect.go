package scene

import "github.com/achilleasa/go-raytrace/types"

// The distance reported by an intersection record that does not describe a hit.
const NoHitDist = 1000.0

// An Isect describes the closest surface point hit by a ray.
type Isect struct {
	// Distance along the ray.
	T float64

	// World-space unit surface normal.
	N types.Vec3

	// Barycentric coordinates of the hit point (mesh faces only).
	Bary types.Vec3

	// Surface parametric coordinates used for texture lookups.
	UV types.Vec2

	// The surface material at the hit point. Meshes with per-vertex
	// materials store an interpolated copy here.
	Material Material

	// The object that was hit and, for meshes, the face index.
	Object *Object
	Face   int
}

// Reset the record to the no-hit state.
func (i *Isect) Reset() {
	*i = Isect{T: NoHitDist, Face: -1}
}

// Returns true if the record describes a hit.
func (i *Isect) Hit() bool {
	return i.Object != nil
}
