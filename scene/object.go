package scene

import "github.com/achilleasa/go-raytrace/types"

// An Object places a Primitive in the world using a Transform and assigns it
// a Material.
type Object struct {
	Name      string
	Primitive Primitive
	Transform *Transform
	Material  *Material

	// World-space bounding box; empty for unbounded primitives.
	bbox types.BBox
}

// Create a new object. A nil transform is treated as the identity transform
// and a nil material as a black material.
func NewObject(name string, prim Primitive, xform *Transform, mat *Material) *Object {
	if xform == nil {
		xform = IdentityTransform()
	}
	if mat == nil {
		mat = NewMaterial("")
	}

	obj := &Object{
		Name:      name,
		Primitive: prim,
		Transform: xform,
		Material:  mat,
		bbox:      types.EmptyBBox(),
	}
	if prim.HasBoundingBox() {
		obj.bbox = prim.LocalBoundingBox().TransformCorners(xform.PointToWorld)
	}
	return obj
}

// Returns true if the object has a finite world-space bounding box.
func (o *Object) HasBoundingBox() bool {
	return !o.bbox.IsEmpty()
}

// Get the world-space bounding box.
func (o *Object) BoundingBox() types.BBox {
	return o.bbox
}

// Intersect a world-space ray with the object. On a hit, i receives the
// world-space distance and unit normal, the object material and a reference
// to the object.
func (o *Object) Intersect(r types.Ray, i *Isect) bool {
	if o.HasBoundingBox() {
		if _, _, hit := o.bbox.Intersect(r); !hit {
			return false
		}
	}

	local := types.NewRay(
		o.Transform.PointToLocal(r.Origin),
		o.Transform.DirToLocal(r.Dir),
		r.Type,
	)
	scale := local.Dir.Len()
	if scale == 0 {
		return false
	}
	local.Dir = local.Dir.Mul(1.0 / scale)

	i.Material = *o.Material
	i.Face = -1
	i.Bary = types.Vec3{}
	if !o.Primitive.IntersectLocal(local, i) {
		return false
	}

	i.T /= scale
	i.N = o.Transform.NormalToWorld(i.N)
	i.Object = o
	return true
}
