package kdtree

import (
	"math"
	"time"

	"github.com/achilleasa/go-raytrace/types"
)

// Axis value used for tagging leaf nodes.
const leafAxis int8 = -1

// A kd-tree node. Internal nodes store the indices of their children while
// leafs store a range into the tree's item reference list.
type node struct {
	bbox  types.BBox
	axis  int8
	split float64

	left, right int32

	first, count int32
}

func (n *node) isLeaf() bool {
	return n.axis == leafAxis
}

// Tree build statistics.
type Stats struct {
	// Number of partitioned items.
	Items int

	// Total node count (including leafs).
	Nodes int
	Leafs int

	// Total item references stored in leafs. Items straddling split
	// planes are referenced more than once.
	Refs int

	MaxDepth  int
	BuildTime time.Duration
}

// A Tree is an immutable kd-tree over a set of indexed items. It is safe for
// concurrent use by multiple goroutines.
type Tree struct {
	nodes []node
	refs  []int32
	bbox  types.BBox
	stats Stats
}

// A VisitFunc tests the ray against the item with the given index and returns
// the hit distance.
type VisitFunc func(idx int) (float64, bool)

type stackEntry struct {
	node       int32
	tMin, tMax float64
}

// Get tree statistics.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Get the bounding box enclosing all tree items.
func (t *Tree) Bounds() types.BBox {
	return t.bbox
}

// Walk the tree cells pierced by ray in front-to-back order, invoking visit
// for every item referenced by the visited leafs, and return the closest hit
// distance reported by visit. The walk stops as soon as a hit is found that
// lies inside the cell being processed since no item in a cell further along
// the ray can produce a closer hit.
//
// Items may be visited more than once if they span multiple cells.
func (t *Tree) Traverse(r types.Ray, visit VisitFunc) (float64, bool) {
	if len(t.nodes) == 0 {
		return 0, false
	}

	tMin, tMax, hit := t.bbox.Intersect(r)
	if !hit {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0
	}

	var stackBuf [64]stackEntry
	stack := stackBuf[:0]

	best := math.Inf(1)
	found := false

	cur := int32(0)
	for {
		n := &t.nodes[cur]
		if !n.isLeaf() {
			axis := n.axis
			origin, dir := r.Origin[axis], r.Dir[axis]

			// The near child is the one containing the ray origin
			near, far := n.left, n.right
			if origin > n.split || (origin == n.split && dir > 0) {
				near, far = n.right, n.left
			}

			// Rays parallel to the split plane never cross into the far child
			if dir == 0 {
				cur = near
				continue
			}

			tSplit := (n.split - origin) / dir
			switch {
			case tSplit > tMax || tSplit <= 0:
				cur = near
			case tSplit < tMin:
				cur = far
			default:
				stack = append(stack, stackEntry{node: far, tMin: tSplit, tMax: tMax})
				cur = near
				tMax = tSplit
			}
			continue
		}

		for _, ref := range t.refs[n.first : n.first+n.count] {
			if dist, ok := visit(int(ref)); ok && dist < best {
				best = dist
				found = true
			}
		}

		if found && best <= tMax {
			return best, true
		}

		// Resume from the nearest pending far cell
		if len(stack) == 0 {
			return best, found
		}
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Pending cells are ordered front-to-back
		if found && best <= entry.tMin {
			return best, true
		}
		cur, tMin, tMax = entry.node, entry.tMin, entry.tMax
	}
}
