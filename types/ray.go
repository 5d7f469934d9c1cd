package types

import "fmt"

// Intersections closer than this distance to the ray origin are ignored so
// that secondary rays do not re-hit the surface they were spawned from.
const RayEpsilon = 1e-5

// The ray type is only used for classifying rays when debugging.
type RayType uint8

const (
	Visibility RayType = iota
	Shadow
	Reflection
	Refraction
)

func (t RayType) String() string {
	switch t {
	case Visibility:
		return "visibility"
	case Shadow:
		return "shadow"
	case Reflection:
		return "reflection"
	case Refraction:
		return "refraction"
	}
	return fmt.Sprintf("RayType(%d)", uint8(t))
}

// A ray with an origin and a direction.
type Ray struct {
	Origin Vec3
	Dir    Vec3
	Type   RayType
}

// Create a new ray.
func NewRay(origin, dir Vec3, rayType RayType) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		Type:   rayType,
	}
}

// Get the point at distance t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
