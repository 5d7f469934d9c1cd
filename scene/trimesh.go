package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/go-raytrace/scene/kdtree"
	"github.com/achilleasa/go-raytrace/types"
)

// Faces whose doubled area falls below this threshold are considered degenerate.
const degenerateFaceArea = 1e-12

// A triangular mesh face. Faces reference vertices by index into the arrays
// of their parent mesh.
type face struct {
	ids    [3]int
	normal types.Vec3
	bbox   types.BBox
}

// A Trimesh is a collection of triangles sharing a vertex buffer. Vertex
// normals and per-vertex materials are optional but when present their count
// must match the vertex count.
type Trimesh struct {
	vertices  []types.Vec3
	normals   []types.Vec3
	materials []*Material
	faces     []face

	// Optional private kd-tree over the mesh faces.
	tree    *kdtree.Tree
	useTree bool

	cullBackfaces bool
	smoothShading bool
}

// Create an empty mesh.
func NewTrimesh() *Trimesh {
	return &Trimesh{
		smoothShading: true,
	}
}

// Append a vertex. Vertices, normals and materials must be added in the same order.
func (m *Trimesh) AddVertex(v types.Vec3) {
	m.vertices = append(m.vertices, v)
}

// Append a vertex normal.
func (m *Trimesh) AddNormal(n types.Vec3) {
	m.normals = append(m.normals, n)
}

// Append a vertex material.
func (m *Trimesh) AddMaterial(mat *Material) {
	m.materials = append(m.materials, mat)
}

// Add a face connecting three existing vertices. Faces with a near-zero area
// are silently dropped.
func (m *Trimesh) AddFace(a, b, c int) error {
	vcnt := len(m.vertices)
	for _, id := range [3]int{a, b, c} {
		if id < 0 || id >= vcnt {
			return fmt.Errorf("%w: face (%d, %d, %d) references vertex %d; mesh has %d vertices", ErrBadMesh, a, b, c, id, vcnt)
		}
	}

	va, vb, vc := m.vertices[a], m.vertices[b], m.vertices[c]
	normal := vb.Sub(va).Cross(vc.Sub(va))
	if normal.Len() < degenerateFaceArea {
		return nil
	}

	m.faces = append(m.faces, face{
		ids:    [3]int{a, b, c},
		normal: normal.Normalize(),
		bbox:   types.EmptyBBox().MergePoint(va).MergePoint(vb).MergePoint(vc),
	})
	return nil
}

// Calculate per-vertex normals by averaging the normals of the faces sharing
// each vertex. Any previously defined normals are replaced.
func (m *Trimesh) GenerateNormals() {
	m.normals = make([]types.Vec3, len(m.vertices))
	faceCount := make([]int, len(m.vertices))

	for _, f := range m.faces {
		for _, id := range f.ids {
			m.normals[id] = m.normals[id].Add(f.normal)
			faceCount[id]++
		}
	}

	for id, count := range faceCount {
		if count != 0 {
			m.normals[id] = m.normals[id].Mul(1.0 / float64(count))
		}
	}
}

// Validate the per-vertex attribute counts. Must be called once all vertices,
// normals, materials and faces have been added.
func (m *Trimesh) Finalize() error {
	if len(m.materials) != 0 && len(m.materials) != len(m.vertices) {
		return fmt.Errorf("%w: wrong number of materials; expected %d, got %d", ErrBadMesh, len(m.vertices), len(m.materials))
	}
	if len(m.normals) != 0 && len(m.normals) != len(m.vertices) {
		return fmt.Errorf("%w: wrong number of normals; expected %d, got %d", ErrBadMesh, len(m.vertices), len(m.normals))
	}
	return nil
}

// Get the number of non-degenerate faces.
func (m *Trimesh) NumFaces() int {
	return len(m.faces)
}

// Get the number of vertices.
func (m *Trimesh) NumVertices() int {
	return len(m.vertices)
}

// Get mesh kd-tree stats. Returns false if the mesh does not have its own tree.
func (m *Trimesh) TreeStats() (kdtree.Stats, bool) {
	if m.tree == nil {
		return kdtree.Stats{}, false
	}
	return m.tree.Stats(), true
}

func (m *Trimesh) buildTree(maxDepth, leafSize int) {
	boxes := make([]types.BBox, len(m.faces))
	for idx, f := range m.faces {
		boxes[idx] = f.bbox
	}
	m.tree = kdtree.Build(boxes, maxDepth, leafSize)
	m.useTree = true
}

func (m *Trimesh) configure(opts Options) {
	m.cullBackfaces = opts.BackfaceCulling
	m.smoothShading = opts.SmoothShading
}

func (m *Trimesh) LocalBoundingBox() types.BBox {
	bbox := types.EmptyBBox()
	for _, f := range m.faces {
		bbox = bbox.Merge(f.bbox)
	}
	return bbox
}

func (m *Trimesh) HasBoundingBox() bool {
	return len(m.faces) != 0
}

// Intersect the mesh faces and keep the closest hit.
func (m *Trimesh) IntersectLocal(r types.Ray, i *Isect) bool {
	bestFace := -1
	bestT := math.Inf(1)
	var bestBary types.Vec3

	if m.tree != nil && m.useTree {
		m.tree.Traverse(r, func(idx int) (float64, bool) {
			t, bary, hit := m.intersectFace(r, idx)
			if hit && t < bestT {
				bestFace, bestT, bestBary = idx, t, bary
			}
			return t, hit
		})
	} else {
		for idx := range m.faces {
			if t, bary, hit := m.intersectFace(r, idx); hit && t < bestT {
				bestFace, bestT, bestBary = idx, t, bary
			}
		}
	}

	if bestFace == -1 {
		i.T = NoHitDist
		return false
	}

	m.fillIsect(i, bestFace, bestT, bestBary)
	return true
}

// Intersect ray with a face and return the hit distance and the barycentric
// coordinates of the hit point. The barycentric coordinates are calculated
// from the signed areas of the sub-triangles formed by the hit point,
// projected on the plane where the face has the largest extent.
func (m *Trimesh) intersectFace(r types.Ray, faceIdx int) (float64, types.Vec3, bool) {
	f := &m.faces[faceIdx]
	a, b, c := m.vertices[f.ids[0]], m.vertices[f.ids[1]], m.vertices[f.ids[2]]

	denom := f.normal.Dot(r.Dir)
	if denom == 0 {
		return 0, types.Vec3{}, false
	}

	// Skip faces pointing away from the camera
	if m.cullBackfaces && r.Type == types.Visibility && denom > 0 {
		return 0, types.Vec3{}, false
	}

	t := f.normal.Dot(a.Sub(r.Origin)) / denom
	if t < types.RayEpsilon {
		return 0, types.Vec3{}, false
	}

	x, y := projectionAxes(f.normal)
	p := r.At(t)
	a2 := types.XY(a[x], a[y])
	b2 := types.XY(b[x], b[y])
	c2 := types.XY(c[x], c[y])
	p2 := types.XY(p[x], p[y])

	area := b2.Sub(a2).Cross(c2.Sub(a2))
	bary := types.XYZ(
		b2.Sub(p2).Cross(c2.Sub(p2))/area,
		p2.Sub(a2).Cross(c2.Sub(a2))/area,
		b2.Sub(a2).Cross(p2.Sub(a2))/area,
	)
	for _, w := range bary {
		if w < 0 || w > 1 {
			return 0, types.Vec3{}, false
		}
	}

	return t, bary, true
}

func (m *Trimesh) fillIsect(i *Isect, faceIdx int, t float64, bary types.Vec3) {
	f := &m.faces[faceIdx]

	i.T = t
	i.Face = faceIdx
	i.Bary = bary
	i.UV = types.XY(bary[0], bary[1])

	i.N = f.normal
	if m.smoothShading && len(m.normals) == len(m.vertices) {
		n := m.normals[f.ids[0]].Mul(bary[0]).
			Add(m.normals[f.ids[1]].Mul(bary[1])).
			Add(m.normals[f.ids[2]].Mul(bary[2])).
			Normalize()
		if !n.IsZero() {
			i.N = n
		}
	}

	if len(m.materials) == len(m.vertices) && len(m.materials) != 0 {
		i.Material = Blend(
			[3]*Material{m.materials[f.ids[0]], m.materials[f.ids[1]], m.materials[f.ids[2]]},
			bary,
			i.UV,
		)
	}
}

// Select the two axes of the plane where a face with normal n has the
// largest projected area.
func projectionAxes(n types.Vec3) (int, int) {
	ax, ay, az := math.Abs(n[0]), math.Abs(n[1]), math.Abs(n[2])
	switch {
	case ax >= ay && ax >= az:
		return 1, 2
	case ay >= ax && ay >= az:
		return 0, 2
	default:
		return 0, 1
	}
}
