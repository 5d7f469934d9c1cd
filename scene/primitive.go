package scene

import (
	"math"

	"github.com/achilleasa/go-raytrace/types"
)

// The Primitive interface is implemented by all geometry that can be placed in
// a scene. Primitives are defined in their own local coordinate frame; the
// owning Object maps rays and normals between local and world space.
type Primitive interface {
	// Intersect a local-space ray with a unit direction. On a hit the
	// implementation populates the distance, local normal and surface
	// coordinates of i and returns true.
	IntersectLocal(r types.Ray, i *Isect) bool

	// Get the local-space bounding box. Only valid when HasBoundingBox
	// returns true.
	LocalBoundingBox() types.BBox

	HasBoundingBox() bool
}

var (
	unitBox    = types.NewBBox(types.XYZ(-0.5, -0.5, -0.5), types.XYZ(0.5, 0.5, 0.5))
	unitSphere = types.NewBBox(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))
	unitSquare = types.NewBBox(types.XYZ(-0.5, -0.5, 0), types.XYZ(0.5, 0.5, 0))
)

// A sphere of radius 1 centered at the origin.
type Sphere struct{}

func (Sphere) IntersectLocal(r types.Ray, i *Isect) bool {
	b := r.Dir.Dot(r.Origin)
	c := r.Origin.Len2() - 1.0
	disc := b*b - c
	if disc < 0 {
		return false
	}

	root := math.Sqrt(disc)
	t := -b - root
	if t < types.RayEpsilon {
		t = -b + root
		if t < types.RayEpsilon {
			return false
		}
	}

	p := r.At(t)
	i.T = t
	i.N = p.Normalize()
	i.UV = types.XY(
		0.5+math.Atan2(p[1], p[0])/(2*math.Pi),
		0.5+math.Asin(clamp(p[2], -1, 1))/math.Pi,
	)
	return true
}

func (Sphere) LocalBoundingBox() types.BBox { return unitSphere }
func (Sphere) HasBoundingBox() bool         { return true }

// An axis-aligned cube with unit side centered at the origin.
type Box struct{}

func (Box) IntersectLocal(r types.Ray, i *Isect) bool {
	tMin, tMax, hit := unitBox.Intersect(r)
	if !hit {
		return false
	}

	t := tMin
	if t < types.RayEpsilon {
		t = tMax
		if t < types.RayEpsilon {
			return false
		}
	}

	// The face that was hit is the one along the axis where the
	// hit point has the largest magnitude
	p := r.At(t)
	axis := 0
	for a := 1; a < 3; a++ {
		if math.Abs(p[a]) > math.Abs(p[axis]) {
			axis = a
		}
	}

	var n types.Vec3
	n[axis] = math.Copysign(1, p[axis])
	u, v := (axis+1)%3, (axis+2)%3

	i.T = t
	i.N = n
	i.UV = types.XY(p[u]+0.5, p[v]+0.5)
	return true
}

func (Box) LocalBoundingBox() types.BBox { return unitBox }
func (Box) HasBoundingBox() bool         { return true }

// A unit square on the z = 0 plane facing +z.
type Square struct{}

func (Square) IntersectLocal(r types.Ray, i *Isect) bool {
	t, ok := intersectXYPlane(r)
	if !ok {
		return false
	}

	p := r.At(t)
	if p[0] < -0.5 || p[0] > 0.5 || p[1] < -0.5 || p[1] > 0.5 {
		return false
	}

	i.T = t
	i.N = types.XYZ(0, 0, 1)
	i.UV = types.XY(p[0]+0.5, p[1]+0.5)
	return true
}

func (Square) LocalBoundingBox() types.BBox { return unitSquare }
func (Square) HasBoundingBox() bool         { return true }

// The infinite z = 0 plane facing +z. Planes have no bounding box and are
// always tested against every ray.
type Plane struct{}

func (Plane) IntersectLocal(r types.Ray, i *Isect) bool {
	t, ok := intersectXYPlane(r)
	if !ok {
		return false
	}

	p := r.At(t)
	i.T = t
	i.N = types.XYZ(0, 0, 1)
	i.UV = types.XY(p[0]-math.Floor(p[0]), p[1]-math.Floor(p[1]))
	return true
}

func (Plane) LocalBoundingBox() types.BBox { return types.EmptyBBox() }
func (Plane) HasBoundingBox() bool         { return false }

func intersectXYPlane(r types.Ray) (float64, bool) {
	// Parallel rays never hit
	if r.Dir[2] == 0 {
		return 0, false
	}
	t := -r.Origin[2] / r.Dir[2]
	if t < types.RayEpsilon {
		return 0, false
	}
	return t, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
