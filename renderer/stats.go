package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// True if this is the primary tracer
	IsPrimary bool

	// The block height and the percentage of total frame area it represents.
	BlockH       int
	FramePercent float64

	// Render time for assigned block
	RenderTime time.Duration
}

type FrameStats struct {
	// Individual tracer stats for the last pass.
	Tracers []TracerStat

	// Frame dims.
	Width  int
	Height int

	// Number of rendering passes and supersampled pixels.
	Passes       int
	EdgePixels   int
	Supersampled bool

	// Total render time for entire frame.
	RenderTime time.Duration
}
