package tracer

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/go-raytrace/log"
	"github.com/achilleasa/go-raytrace/scene"
)

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// The ray tracer used by the worker.
	rt atomic.Pointer[RayTracer]

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered block.
	stats *Stats
}

// Create a new tracer that renders blocks on a dedicated go-routine.
func NewCPUTracer(id string) Tracer {
	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		blockReqChan: make(chan BlockRequest, 1),
		stats:        &Stats{},
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// All cpu tracers run on a single core.
func (tr *cpuTracer) SpeedEstimate() float64 {
	return 1.0
}

// Attach the scene to be rendered and start the worker if it is not running.
func (tr *cpuTracer) Setup(sc *scene.Scene, cfg Config) error {
	tr.Lock()
	defer tr.Unlock()

	if sc == nil {
		return ErrNoSceneData
	}

	// Derive a distinct jitter sequence for each tracer
	hash := fnv.New64a()
	hash.Write([]byte(tr.id))
	tr.rt.Store(NewRayTracer(sc, cfg, hash.Sum64()))

	if tr.closeChan == nil {
		tr.startWorker()
	}
	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	tr.cleanup()
}

// Cleanup tracer. This method is meant to be called while holding tr.Lock()
func (tr *cpuTracer) cleanup() {
	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.wg.Wait()
		tr.closeChan = nil
	}

	tr.rt.Store(nil)
}

// Enqueue block request.
func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is not listening
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- ErrTracerBusy
	}
}

// Retrieve last block statistics.
func (tr *cpuTracer) Stats() *Stats {
	return tr.stats
}

// Spawn a go-routine to process block render requests.
func (tr *cpuTracer) startWorker() {
	// Worker already running
	if tr.closeChan != nil {
		return
	}

	tr.closeChan = make(chan struct{})
	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq BlockRequest
		var startTime time.Time
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:
				startTime = time.Now()

				// Pick up the ray tracer from the latest Setup call
				rt := tr.rt.Load()
				if rt == nil {
					blockReq.ErrChan <- ErrNotSetup
					continue
				}

				rows := renderBlock(rt, &blockReq)

				// Update stats
				tr.stats.BlockH = blockReq.BlockH
				tr.stats.RenderTime = time.Since(startTime)

				blockReq.DoneChan <- rows
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Render the rows of a block request and return the number of completed rows.
// Rendering stops early if the request stop flag is raised.
func renderBlock(rt *RayTracer, blockReq *BlockRequest) int {
	f := blockReq.Frame
	for row := 0; row < blockReq.BlockH; row++ {
		j := blockReq.BlockY + row
		for i := 0; i < f.width; i++ {
			if blockReq.Stop != nil && blockReq.Stop.Load() {
				return row
			}

			switch blockReq.Pass {
			case TracePass:
				rt.TracePixel(f, i, j)
			case SupersamplePass:
				if blockReq.EdgeMask == nil || blockReq.EdgeMask[j*f.width+i] {
					rt.SupersamplePixel(f, i, j)
				}
			}
		}
	}
	return blockReq.BlockH
}
