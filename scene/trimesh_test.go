package scene

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/achilleasa/go-raytrace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A single triangle on the z = 0 plane facing +z.
func makeTriangle(t *testing.T) *Trimesh {
	mesh := NewTrimesh()
	mesh.AddVertex(types.XYZ(0, 0, 0))
	mesh.AddVertex(types.XYZ(1, 0, 0))
	mesh.AddVertex(types.XYZ(0, 1, 0))
	require.NoError(t, mesh.AddFace(0, 1, 2))
	require.NoError(t, mesh.Finalize())
	return mesh
}

func TestTriangleBarycentrics(t *testing.T) {
	type spec struct {
		x, y    float64
		expHit  bool
		expBary types.Vec3
	}
	specs := []spec{
		{0.25, 0.25, true, types.XYZ(0.5, 0.25, 0.25)},
		{0, 0, true, types.XYZ(1, 0, 0)},
		{0.5, 0.5, true, types.XYZ(0, 0.5, 0.5)},
		{0.1, 0.7, true, types.XYZ(0.2, 0.1, 0.7)},
		// outside the triangle
		{0.6, 0.6, false, types.Vec3{}},
		{-0.1, 0.5, false, types.Vec3{}},
		{0.5, -0.01, false, types.Vec3{}},
	}

	mesh := makeTriangle(t)
	for index, s := range specs {
		r := types.NewRay(types.XYZ(s.x, s.y, 1), types.XYZ(0, 0, -1), types.Visibility)
		var i Isect
		hit := mesh.IntersectLocal(r, &i)
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit)
		}
		if !hit {
			continue
		}

		sum := i.Bary[0] + i.Bary[1] + i.Bary[2]
		if math.Abs(sum-1) > types.RayEpsilon {
			t.Fatalf("[spec %d] expected barycentrics to sum to 1; got %f", index, sum)
		}
		for c := 0; c < 3; c++ {
			if math.Abs(i.Bary[c]-s.expBary[c]) > 1e-9 {
				t.Fatalf("[spec %d] expected bary %v; got %v", index, s.expBary, i.Bary)
			}
		}
		assert.InDelta(t, 1.0, i.T, 1e-12)
	}
}

func TestRandomTriangleHitsHaveValidBarycentrics(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 200; n++ {
		mesh := NewTrimesh()
		for v := 0; v < 3; v++ {
			mesh.AddVertex(types.XYZ(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1))
		}
		require.NoError(t, mesh.AddFace(0, 1, 2))

		r := types.NewRay(
			types.XYZ(rng.Float64()*4-2, rng.Float64()*4-2, 5),
			types.XYZ(rng.Float64()*0.4-0.2, rng.Float64()*0.4-0.2, -1).Normalize(),
			types.Shadow,
		)
		var i Isect
		if !mesh.IntersectLocal(r, &i) {
			continue
		}
		sum := 0.0
		for _, w := range i.Bary {
			require.GreaterOrEqual(t, w, 0.0)
			require.LessOrEqual(t, w, 1.0)
			sum += w
		}
		require.InDelta(t, 1.0, sum, types.RayEpsilon)
	}
}

func TestDegenerateFacesAreDropped(t *testing.T) {
	mesh := NewTrimesh()
	mesh.AddVertex(types.XYZ(0, 0, 0))
	mesh.AddVertex(types.XYZ(1, 0, 0))
	mesh.AddVertex(types.XYZ(2, 0, 0))
	mesh.AddVertex(types.XYZ(0, 1, 0))

	require.NoError(t, mesh.AddFace(0, 1, 2))
	require.NoError(t, mesh.AddFace(0, 0, 3))
	assert.Equal(t, 0, mesh.NumFaces())

	require.NoError(t, mesh.AddFace(0, 1, 3))
	assert.Equal(t, 1, mesh.NumFaces())
}

func TestMeshStructuralErrors(t *testing.T) {
	mesh := makeTriangle(t)

	err := mesh.AddFace(0, 1, 3)
	assert.True(t, errors.Is(err, ErrBadMesh), "expected ErrBadMesh; got %v", err)
	err = mesh.AddFace(-1, 1, 2)
	assert.True(t, errors.Is(err, ErrBadMesh), "expected ErrBadMesh; got %v", err)

	mesh.AddMaterial(NewMaterial("a"))
	err = mesh.Finalize()
	require.True(t, errors.Is(err, ErrBadMesh))
	assert.Contains(t, err.Error(), "wrong number of materials")

	mesh = makeTriangle(t)
	mesh.AddNormal(types.XYZ(0, 0, 1))
	err = mesh.Finalize()
	require.True(t, errors.Is(err, ErrBadMesh))
	assert.Contains(t, err.Error(), "wrong number of normals")
}

func TestGenerateNormals(t *testing.T) {
	// Two faces folded along the y axis
	mesh := NewTrimesh()
	mesh.AddVertex(types.XYZ(0, 0, 0))
	mesh.AddVertex(types.XYZ(0, 1, 0))
	mesh.AddVertex(types.XYZ(-1, 0, 0))
	mesh.AddVertex(types.XYZ(0, 0, -1))
	require.NoError(t, mesh.AddFace(0, 1, 2))
	require.NoError(t, mesh.AddFace(0, 3, 1))
	mesh.GenerateNormals()
	require.NoError(t, mesh.Finalize())

	// Face normals are +z and +x; the shared vertices average them
	assert.Equal(t, types.XYZ(0, 0, 1), mesh.normals[2])
	assert.Equal(t, types.XYZ(1, 0, 0), mesh.normals[3])
	assert.Equal(t, types.XYZ(0.5, 0, 0.5), mesh.normals[0])
	assert.Equal(t, types.XYZ(0.5, 0, 0.5), mesh.normals[1])
}

func TestSmoothShadingInterpolatesNormals(t *testing.T) {
	mesh := makeTriangle(t)
	mesh.AddNormal(types.XYZ(1, 0, 1).Normalize())
	mesh.AddNormal(types.XYZ(1, 0, 1).Normalize())
	mesh.AddNormal(types.XYZ(1, 0, 1).Normalize())
	require.NoError(t, mesh.Finalize())

	r := types.NewRay(types.XYZ(0.2, 0.2, 1), types.XYZ(0, 0, -1), types.Visibility)

	var i Isect
	require.True(t, mesh.IntersectLocal(r, &i))
	assert.InDelta(t, math.Sqrt(0.5), i.N[0], 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), i.N[2], 1e-12)

	mesh.configure(Options{SmoothShading: false})
	require.True(t, mesh.IntersectLocal(r, &i))
	assert.Equal(t, types.XYZ(0, 0, 1), i.N)
}

func TestPerVertexMaterialsAreInterpolated(t *testing.T) {
	mesh := makeTriangle(t)
	for _, kd := range []types.Vec3{types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.XYZ(0, 0, 1)} {
		mat := NewMaterial("")
		mat.Kd = Constant(kd)
		mesh.AddMaterial(mat)
	}
	require.NoError(t, mesh.Finalize())

	r := types.NewRay(types.XYZ(0.25, 0.25, 1), types.XYZ(0, 0, -1), types.Visibility)
	var i Isect
	require.True(t, mesh.IntersectLocal(r, &i))

	kd := i.Material.Kd.Value(i.UV)
	assert.InDelta(t, 0.5, kd[0], 1e-9)
	assert.InDelta(t, 0.25, kd[1], 1e-9)
	assert.InDelta(t, 0.25, kd[2], 1e-9)
}

func TestBackfaceCullingOnlyAffectsVisibilityRays(t *testing.T) {
	mesh := makeTriangle(t)
	mesh.configure(Options{BackfaceCulling: true})

	// Approaching the triangle from behind
	origin, dir := types.XYZ(0.2, 0.2, -1), types.XYZ(0, 0, 1)

	var i Isect
	assert.False(t, mesh.IntersectLocal(types.NewRay(origin, dir, types.Visibility), &i))
	assert.True(t, mesh.IntersectLocal(types.NewRay(origin, dir, types.Shadow), &i))
	assert.True(t, mesh.IntersectLocal(types.NewRay(origin, dir, types.Reflection), &i))

	mesh.configure(Options{BackfaceCulling: false})
	assert.True(t, mesh.IntersectLocal(types.NewRay(origin, dir, types.Visibility), &i))
}

func makeGridMesh(n int) *Trimesh {
	mesh := NewTrimesh()
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			// A bumpy height field
			z := 0.2 * math.Sin(float64(x)) * math.Cos(float64(y))
			mesh.AddVertex(types.XYZ(float64(x), float64(y), z))
		}
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v := y*(n+1) + x
			_ = mesh.AddFace(v, v+1, v+n+2)
			_ = mesh.AddFace(v, v+n+2, v+n+1)
		}
	}
	return mesh
}

func TestMeshTreeMatchesLinearScan(t *testing.T) {
	mesh := makeGridMesh(12)
	mesh.configure(Options{})

	treeMesh := makeGridMesh(12)
	treeMesh.configure(Options{})
	treeMesh.buildTree(15, 4)
	_, hasTree := treeMesh.TreeStats()
	require.True(t, hasTree)

	rng := rand.New(rand.NewPCG(5, 5))
	for n := 0; n < 500; n++ {
		r := types.NewRay(
			types.XYZ(rng.Float64()*12, rng.Float64()*12, 3),
			types.XYZ(rng.Float64()*2-1, rng.Float64()*2-1, -1).Normalize(),
			types.Visibility,
		)

		var exp, got Isect
		expHit := mesh.IntersectLocal(r, &exp)
		gotHit := treeMesh.IntersectLocal(r, &got)
		require.Equal(t, expHit, gotHit, "ray %d", n)
		if expHit {
			require.InDelta(t, exp.T, got.T, 1e-9, "ray %d", n)
			require.Equal(t, exp.Face, got.Face, "ray %d", n)
		}
	}
}

func TestReusedIsectClearsBarycentrics(t *testing.T) {
	mat := NewMaterial("plain")
	tri := NewObject("tri", makeTriangle(t), nil, mat)
	ball := NewObject("ball", Sphere{}, IdentityTransform().Translate(types.XYZ(5, 0, 0)), mat)

	var i Isect
	require.True(t, tri.Intersect(types.NewRay(types.XYZ(0.25, 0.25, 1), types.XYZ(0, 0, -1), types.Visibility), &i))
	require.False(t, i.Bary.IsZero())

	require.True(t, ball.Intersect(types.NewRay(types.XYZ(5, 0, 5), types.XYZ(0, 0, -1), types.Visibility), &i))
	assert.Equal(t, types.Vec3{}, i.Bary)
	assert.Equal(t, -1, i.Face)
}
