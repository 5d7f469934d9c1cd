package kdtree

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/achilleasa/go-raytrace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Treat each box as a solid item and report the distance to the first point
// of its surface along the ray.
func boxHit(box types.BBox, r types.Ray) (float64, bool) {
	tMin, tMax, hit := box.Intersect(r)
	if !hit {
		return 0, false
	}
	if tMin >= 0 {
		return tMin, true
	}
	return tMax, true
}

func bruteForce(boxes []types.BBox, r types.Ray) (int, float64, bool) {
	bestIdx, bestT, found := -1, math.Inf(1), false
	for idx, box := range boxes {
		if dist, ok := boxHit(box, r); ok && dist < bestT {
			bestIdx, bestT, found = idx, dist, true
		}
	}
	return bestIdx, bestT, found
}

func randomBoxes(rng *rand.Rand, count int) []types.BBox {
	boxes := make([]types.BBox, count)
	for i := range boxes {
		center := types.XYZ(rng.Float64()*20-10, rng.Float64()*20-10, rng.Float64()*20-10)
		half := types.XYZ(rng.Float64()+0.05, rng.Float64()+0.05, rng.Float64()+0.05)
		boxes[i] = types.NewBBox(center.Sub(half), center.Add(half))
	}
	return boxes
}

func randomRay(rng *rand.Rand) types.Ray {
	origin := types.XYZ(rng.Float64()*40-20, rng.Float64()*40-20, rng.Float64()*40-20)
	dir := types.XYZ(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1).Normalize()
	return types.NewRay(origin, dir, types.Visibility)
}

func TestTraverseMatchesBruteForce(t *testing.T) {
	type spec struct {
		items    int
		maxDepth int
		leafSize int
	}
	specs := []spec{
		{1, 15, 10},
		{50, 15, 1},
		{300, 15, 10},
		{300, 4, 2},
		{500, 30, 1},
	}

	for index, s := range specs {
		rng := rand.New(rand.NewPCG(uint64(index), 42))
		boxes := randomBoxes(rng, s.items)
		tree := Build(boxes, s.maxDepth, s.leafSize)

		for rayIdx := 0; rayIdx < 500; rayIdx++ {
			r := randomRay(rng)
			expIdx, expT, expHit := bruteForce(boxes, r)

			bestIdx := -1
			bestT := math.Inf(1)
			gotT, gotHit := tree.Traverse(r, func(idx int) (float64, bool) {
				dist, ok := boxHit(boxes[idx], r)
				if ok && dist < bestT {
					bestIdx, bestT = idx, dist
				}
				return dist, ok
			})

			if gotHit != expHit {
				t.Fatalf("[spec %d] ray %d: expected hit to be %t; got %t", index, rayIdx, expHit, gotHit)
			}
			if !expHit {
				continue
			}
			if math.Abs(gotT-expT) > 1e-9 {
				t.Fatalf("[spec %d] ray %d: expected t %f; got %f", index, rayIdx, expT, gotT)
			}
			if bestIdx != expIdx {
				t.Fatalf("[spec %d] ray %d: expected closest item %d; got %d", index, rayIdx, expIdx, bestIdx)
			}
		}
	}
}

func TestBuildLeafConditions(t *testing.T) {
	type spec struct {
		items     int
		maxDepth  int
		leafSize  int
		expLeafs  int
		expMaxDep int
	}
	specs := []spec{
		// Item count at or below leaf size
		{10, 15, 10, 1, 1},
		// Depth 1 only allows the root
		{100, 1, 1, 1, 1},
	}

	for index, s := range specs {
		rng := rand.New(rand.NewPCG(7, uint64(index)))
		tree := Build(randomBoxes(rng, s.items), s.maxDepth, s.leafSize)
		stats := tree.Stats()

		if stats.Leafs != s.expLeafs {
			t.Fatalf("[spec %d] expected %d leafs; got %d", index, s.expLeafs, stats.Leafs)
		}
		if stats.MaxDepth != s.expMaxDep {
			t.Fatalf("[spec %d] expected max depth %d; got %d", index, s.expMaxDep, stats.MaxDepth)
		}
		if stats.Items != s.items {
			t.Fatalf("[spec %d] expected %d items; got %d", index, s.items, stats.Items)
		}
	}
}

func TestBuildRespectsMaxDepth(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	tree := Build(randomBoxes(rng, 400), 6, 1)
	assert.LessOrEqual(t, tree.Stats().MaxDepth, 6)
	assert.Greater(t, tree.Stats().Leafs, 1)
}

func TestSplitSeparatesClusters(t *testing.T) {
	boxes := []types.BBox{
		types.NewBBox(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)),
		types.NewBBox(types.XYZ(10, 0, 0), types.XYZ(11, 1, 1)),
	}
	tree := Build(boxes, 15, 1)

	root := tree.nodes[0]
	require.False(t, root.isLeaf())
	assert.Equal(t, int8(0), root.axis)
	assert.GreaterOrEqual(t, root.split, 1.0)
	assert.LessOrEqual(t, root.split, 10.0)
}

func TestStraddlingItemsAreNotDoubleCounted(t *testing.T) {
	// A long box crossing every split plane chosen for the small ones
	boxes := []types.BBox{
		types.NewBBox(types.XYZ(-10, -0.5, -0.5), types.XYZ(10, 0.5, 0.5)),
	}
	for x := -9.0; x < 10; x += 2 {
		boxes = append(boxes, types.NewBBox(types.XYZ(x, 2, -0.5), types.XYZ(x+0.5, 3, 0.5)))
	}
	tree := Build(boxes, 15, 1)
	require.Greater(t, tree.Stats().Refs, tree.Stats().Items)

	r := types.NewRay(types.XYZ(-20, 0, 0), types.XYZ(1, 0, 0), types.Visibility)
	hits := 0
	dist, hit := tree.Traverse(r, func(idx int) (float64, bool) {
		d, ok := boxHit(boxes[idx], r)
		if ok {
			hits++
		}
		return d, ok
	})

	require.True(t, hit)
	assert.InDelta(t, 10.0, dist, 1e-12)
	// The nearest cell already contains the hit; the walk stops there
	assert.Equal(t, 1, hits)
}

func TestTraverseEmptyTree(t *testing.T) {
	tree := Build(nil, 15, 10)
	_, hit := tree.Traverse(types.NewRay(types.Vec3{}, types.XYZ(0, 0, 1), types.Visibility), func(int) (float64, bool) {
		t.Fatal("visit should not be called for an empty tree")
		return 0, false
	})
	assert.False(t, hit)
}

func TestTraverseRayParallelToSplit(t *testing.T) {
	boxes := []types.BBox{
		types.NewBBox(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)),
		types.NewBBox(types.XYZ(4, 0, 0), types.XYZ(5, 1, 1)),
	}
	tree := Build(boxes, 15, 1)

	// Travels along +z inside the slab of the second box
	r := types.NewRay(types.XYZ(4.5, 0.5, -5), types.XYZ(0, 0, 1), types.Visibility)
	dist, hit := tree.Traverse(r, func(idx int) (float64, bool) {
		return boxHit(boxes[idx], r)
	})
	require.True(t, hit)
	assert.InDelta(t, 5.0, dist, 1e-12)
}
