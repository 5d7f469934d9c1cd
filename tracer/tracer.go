package tracer

import (
	"sync/atomic"
	"time"

	"github.com/achilleasa/go-raytrace/scene"
)

// The type of work performed for a block.
type Pass uint8

const (
	// Trace a single ray per pixel.
	TracePass Pass = iota

	// Supersample pixels. If the block request specifies an edge mask
	// only the flagged pixels are processed.
	SupersamplePass
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY int
	BlockH int

	// The frame receiving the traced pixels. Each request covers a
	// disjoint set of rows.
	Frame *Frame

	Pass     Pass
	EdgeMask []bool

	// A cooperative stop flag checked between pixels.
	Stop *atomic.Bool

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- int

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH int

	// The time for rendering this block
	RenderTime time.Duration
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline (single cpu core) implementation.
	SpeedEstimate() float64

	// Setup the tracer for rendering a scene.
	Setup(sc *scene.Scene, cfg Config) error

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Retrieve last block statistics.
	Stats() *Stats
}
