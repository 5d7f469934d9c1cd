package kdtree

import (
	"sort"
	"time"

	"github.com/achilleasa/go-raytrace/log"
	"github.com/achilleasa/go-raytrace/types"
)

const (
	// Split cost weights: cost = traversalCost + intersectCost * (P_l * N_l + P_r * N_r)
	// where P is the surface area ratio of a child to its parent.
	traversalCost = 1.0
	intersectCost = 80.0
)

type splitCandidate struct {
	axis                  int
	splitPoint            float64
	leftCount, rightCount int
	score                 float64
}

type kdBuilder struct {
	logger log.Logger

	// Item bounding boxes indexed by item id.
	boxes []types.BBox

	// The tree being populated.
	tree *Tree

	maxDepth int
	leafSize int
}

// Build a kd-tree over a list of item bounding boxes. The returned tree
// references items by their index in the boxes slice. Items with an empty
// bounding box are ignored.
//
// Each node is split along the plane that minimizes a surface-area cost
// estimate. Candidate planes are the bbox boundaries of every item in the node
// along each axis. Items straddling the selected plane are referenced by both
// children. Partitioning stops when a node contains at most leafSize items or
// when maxDepth is reached; a maxDepth of 1 produces a single leaf.
func Build(boxes []types.BBox, maxDepth, leafSize int) *Tree {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if leafSize < 1 {
		leafSize = 1
	}

	builder := &kdBuilder{
		logger:   log.New("kdtree"),
		boxes:    boxes,
		tree:     &Tree{bbox: types.EmptyBBox()},
		maxDepth: maxDepth,
		leafSize: leafSize,
	}

	start := time.Now()
	workList := make([]int32, 0, len(boxes))
	for idx, box := range boxes {
		if box.IsEmpty() {
			continue
		}
		workList = append(workList, int32(idx))
		builder.tree.bbox = builder.tree.bbox.Merge(box)
	}
	builder.tree.stats.Items = len(workList)

	if len(workList) != 0 {
		builder.partition(workList, builder.tree.bbox, 1)
	}

	builder.tree.stats.BuildTime = time.Since(start)
	builder.logger.Debugf(
		"kd-tree build time: %d ms, items: %d, maxDepth: %d, nodes: %d, leafs: %d, refs: %d",
		builder.tree.stats.BuildTime.Nanoseconds()/1e6,
		builder.tree.stats.Items, builder.tree.stats.MaxDepth,
		builder.tree.stats.Nodes, builder.tree.stats.Leafs, builder.tree.stats.Refs,
	)
	return builder.tree
}

// Partition worklist and return node index.
func (b *kdBuilder) partition(workList []int32, bbox types.BBox, depth int) int32 {
	if depth > b.tree.stats.MaxDepth {
		b.tree.stats.MaxDepth = depth
	}

	if depth >= b.maxDepth || len(workList) <= b.leafSize {
		return b.createLeaf(bbox, workList)
	}

	best, found := b.findSplit(workList, bbox)

	// Splits that do not reduce the item count on either side would recurse
	// forever; turn the node into a leaf instead.
	if !found || (best.leftCount == len(workList) && best.rightCount == len(workList)) {
		return b.createLeaf(bbox, workList)
	}

	leftWorkList := make([]int32, 0, best.leftCount)
	rightWorkList := make([]int32, 0, best.rightCount)
	for _, item := range workList {
		itemBox := b.boxes[item]
		if itemBox.Min[best.axis] <= best.splitPoint {
			leftWorkList = append(leftWorkList, item)
		}
		if itemBox.Max[best.axis] >= best.splitPoint {
			rightWorkList = append(rightWorkList, item)
		}
	}

	leftBox, rightBox := bbox, bbox
	leftBox.Max[best.axis] = best.splitPoint
	rightBox.Min[best.axis] = best.splitPoint

	nodeIndex := int32(len(b.tree.nodes))
	b.tree.nodes = append(b.tree.nodes, node{
		bbox:  bbox,
		axis:  int8(best.axis),
		split: best.splitPoint,
	})
	b.tree.stats.Nodes++

	left := b.partition(leftWorkList, leftBox, depth+1)
	right := b.partition(rightWorkList, rightBox, depth+1)
	b.tree.nodes[nodeIndex].left = left
	b.tree.nodes[nodeIndex].right = right

	return nodeIndex
}

// Evaluate every item boundary along each axis as a split plane candidate and
// return the one with the lowest cost.
func (b *kdBuilder) findSplit(workList []int32, bbox types.BBox) (splitCandidate, bool) {
	area := bbox.Area()
	if area <= 0 {
		return splitCandidate{}, false
	}

	var best splitCandidate
	found := false

	mins := make([]float64, len(workList))
	maxs := make([]float64, len(workList))
	for axis := 0; axis < 3; axis++ {
		for idx, item := range workList {
			mins[idx] = b.boxes[item].Min[axis]
			maxs[idx] = b.boxes[item].Max[axis]
		}
		sort.Float64s(mins)
		sort.Float64s(maxs)

		for _, candidates := range [2][]float64{mins, maxs} {
			for idx, splitPoint := range candidates {
				// Skip duplicate planes and planes on the node boundary
				if idx > 0 && candidates[idx-1] == splitPoint {
					continue
				}
				if splitPoint <= bbox.Min[axis] || splitPoint >= bbox.Max[axis] {
					continue
				}

				candidate := splitCandidate{
					axis:       axis,
					splitPoint: splitPoint,
					// items with min <= split
					leftCount: sort.Search(len(mins), func(i int) bool { return mins[i] > splitPoint }),
					// items with max >= split
					rightCount: len(maxs) - sort.Search(len(maxs), func(i int) bool { return maxs[i] >= splitPoint }),
				}
				candidate.score = b.score(candidate, bbox, area)

				if !found || candidate.score < best.score {
					best = candidate
					found = true
				}
			}
		}
	}

	return best, found
}

// Calculate the surface area cost of splitting a node with the given candidate.
func (b *kdBuilder) score(c splitCandidate, bbox types.BBox, area float64) float64 {
	leftBox, rightBox := bbox, bbox
	leftBox.Max[c.axis] = c.splitPoint
	rightBox.Min[c.axis] = c.splitPoint

	return traversalCost + intersectCost*(leftBox.Area()/area*float64(c.leftCount)+
		rightBox.Area()/area*float64(c.rightCount))
}

// Append a leaf node containing all items in the work list. Returns the index
// to the node in the node array.
func (b *kdBuilder) createLeaf(bbox types.BBox, workList []int32) int32 {
	nodeIndex := int32(len(b.tree.nodes))
	b.tree.nodes = append(b.tree.nodes, node{
		bbox:  bbox,
		axis:  leafAxis,
		first: int32(len(b.tree.refs)),
		count: int32(len(workList)),
	})
	b.tree.refs = append(b.tree.refs, workList...)

	b.tree.stats.Nodes++
	b.tree.stats.Leafs++
	b.tree.stats.Refs += len(workList)

	return nodeIndex
}
