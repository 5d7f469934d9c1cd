package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign to the pool
	// of tracers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each tracer
	// in the input list.
	Schedule(tracers []Tracer, frameH int) []int
}

// The naive scheduler splits the frame rows proportionally to the speed
// estimate of each tracer.
type naiveScheduler struct{}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return naiveScheduler{}
}

func (naiveScheduler) Schedule(tracers []Tracer, frameH int) []int {
	weights := make([]float64, len(tracers))
	for idx, tr := range tracers {
		weights[idx] = tr.SpeedEstimate()
	}
	return distributeRows(weights, frameH)
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []int
}

// Create a new perfect scheduler instance
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height and assign to the pool
// of tracers using feedback collected from previous frames.
//
// This function returns the block height assignment for each tracer in the
// input list. When previous frame information is available the scheduler
// uses the following formula for estimating the workload for tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH int) []int {
	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the block assignments
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = naiveScheduler{}.Schedule(tracers, frameH)
		return sch.blockAssignment
	}

	// Use last frame statistics
	weights := make([]float64, len(tracers))
	for idx, tr := range tracers {
		stats := tr.Stats()
		if stats.BlockH == 0 || stats.RenderTime <= 0 {
			// No usable feedback; fall back to the speed estimate
			sch.blockAssignment = naiveScheduler{}.Schedule(tracers, frameH)
			return sch.blockAssignment
		}
		weights[idx] = float64(stats.BlockH) / float64(stats.RenderTime)
	}

	sch.blockAssignment = distributeRows(weights, frameH)
	return sch.blockAssignment
}

// Split frameH rows proportionally to weights. Each entry receives at least
// one row as long as there are enough rows to go around; any rows lost to
// rounding are appended to the first entry.
func distributeRows(weights []float64, frameH int) []int {
	assignment := make([]int, len(weights))
	if len(weights) == 0 {
		return assignment
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	scaler := float64(frameH) / total

	scheduledRows := 0
	for idx, w := range weights {
		assignment[idx] = int(math.Max(1.0, math.Floor(w*scaler)))
		scheduledRows += assignment[idx]
	}

	// In case rows don't add up to the frame height append the missing ones to the first tracer
	if scheduledRows <= frameH {
		assignment[0] += frameH - scheduledRows
		return assignment
	}

	// The one row minimum over-committed the frame; trim the largest blocks
	for ; scheduledRows > frameH; scheduledRows-- {
		largest := 0
		for idx, rows := range assignment {
			if rows > assignment[largest] {
				largest = idx
			}
		}
		if assignment[largest] <= 1 {
			break
		}
		assignment[largest]--
	}

	return assignment
}
