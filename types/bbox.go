package types

import "math"

// An axis-aligned bounding box. A box whose min corner exceeds its max corner
// along any axis is empty.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create an empty bounding box that can be grown with Merge.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
		Max: Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
	}
}

// Create a bounding box from two corners.
func NewBBox(min, max Vec3) BBox {
	return BBox{Min: min, Max: max}
}

// Returns true if the box does not contain any point.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Grow box so that it also encloses other.
func (b BBox) Merge(other BBox) BBox {
	return BBox{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// Grow box so that it also encloses point p.
func (b BBox) MergePoint(p Vec3) BBox {
	return BBox{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Returns true if point p lies inside or on the surface of the box.
func (b BBox) Contains(p Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Returns true if the two boxes share at least one point.
func (b BBox) Overlaps(other BBox) bool {
	for axis := 0; axis < 3; axis++ {
		if b.Max[axis] < other.Min[axis] || b.Min[axis] > other.Max[axis] {
			return false
		}
	}
	return true
}

// Get the box extents.
func (b BBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Get box center.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the box surface area. Empty boxes have zero area.
func (b BBox) Area() float64 {
	if b.IsEmpty() {
		return 0
	}
	side := b.Size()
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// Get the box volume. Empty boxes have zero volume.
func (b BBox) Volume() float64 {
	if b.IsEmpty() {
		return 0
	}
	side := b.Size()
	return side[0] * side[1] * side[2]
}

// Intersect ray with the box using the slab method. On success it returns the
// parametric distances where the ray enters and exits the box. The entry
// distance is negative when the ray origin lies inside the box.
func (b BBox) Intersect(r Ray) (tMin, tMax float64, hit bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	tMin = -math.MaxFloat64
	tMax = math.MaxFloat64
	for axis := 0; axis < 3; axis++ {
		origin, dir := r.Origin[axis], r.Dir[axis]

		// Parallel rays can only hit if their origin is inside the slab
		if dir == 0 {
			if origin < b.Min[axis] || origin > b.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		invDir := 1.0 / dir
		t0 := (b.Min[axis] - origin) * invDir
		t1 := (b.Max[axis] - origin) * invDir
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, 0, false
		}
	}

	// Box is behind the ray
	if tMax < 0 {
		return 0, 0, false
	}

	return tMin, tMax, true
}

// Transform the 8 box corners with fn and return the box enclosing them.
func (b BBox) TransformCorners(fn func(Vec3) Vec3) BBox {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBBox()
	for corner := 0; corner < 8; corner++ {
		p := b.Min
		if corner&1 != 0 {
			p[0] = b.Max[0]
		}
		if corner&2 != 0 {
			p[1] = b.Max[1]
		}
		if corner&4 != 0 {
			p[2] = b.Max[2]
		}
		out = out.MergePoint(fn(p))
	}
	return out
}
