package renderer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/go-raytrace/log"
	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/tracer"
	"github.com/achilleasa/go-raytrace/types"
)

type Renderer interface {
	// Render a frame. Rendering is aborted with ErrInterrupted if ctx is
	// cancelled or Stop is invoked.
	Render(ctx context.Context) (*tracer.Frame, error)

	// Request the frame being rendered to be abandoned.
	Stop()

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats

	// Trace the primary ray for pixel (i, j) and return every ray spawned
	// while shading it together with the pixel color.
	DebugPixel(i, j int) ([]tracer.DebugRay, types.Vec3, error)
}

type defaultRenderer struct {
	sync.Mutex

	logger log.Logger

	sc        *scene.Scene
	scheduler tracer.BlockScheduler
	options   Options

	tracers          []tracer.Tracer
	blockAssignments []int

	frameW, frameH int

	// Raised to abort the frame being rendered.
	stopFlag atomic.Bool

	stats FrameStats
}

// Create a new renderer for sc that distributes work across opts.Threads
// cpu tracers using the supplied block scheduler.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, opts Options) (Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera() == nil {
		return nil, ErrCameraNotDefined
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		sc:        sc,
		scheduler: scheduler,
		options:   opts,
		frameW:    opts.Width,
		frameH:    opts.FrameHeight(sc.Camera().AspectRatio()),
	}

	sc.Configure(opts.sceneOptions())
	if opts.KdTree.Enabled {
		sc.BuildKdTree(opts.KdTree.MaxDepth, opts.KdTree.LeafSize)
	} else {
		sc.UseKdTree(false)
	}

	// Every tracer needs at least one row to work on
	numTracers := opts.Threads
	if numTracers > r.frameH {
		numTracers = r.frameH
	}

	cfg := opts.tracerConfig()
	for idx := 0; idx < numTracers; idx++ {
		tr := tracer.NewCPUTracer(fmt.Sprintf("cpu-%d", idx))
		if err := tr.Setup(sc, cfg); err != nil {
			r.logger.Warningf("could not setup tracer %q: %v", tr.Id(), err)
			tr.Close()
			continue
		}
		r.tracers = append(r.tracers, tr)
	}

	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	r.logger.Debugf("rendering %dx%d frames using %d tracer(s)", r.frameW, r.frameH, len(r.tracers))
	return r, nil
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	r.Lock()
	defer r.Unlock()
	return r.stats
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	r.Stop()

	r.Lock()
	defer r.Unlock()
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Request the frame being rendered to be abandoned.
func (r *defaultRenderer) Stop() {
	r.stopFlag.Store(true)
}

// Render a frame.
func (r *defaultRenderer) Render(ctx context.Context) (*tracer.Frame, error) {
	r.Lock()
	defer r.Unlock()

	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	if ctx.Err() != nil {
		return nil, ErrInterrupted
	}
	r.stopFlag.Store(false)

	// Raise the stop flag if ctx is cancelled before the frame completes
	doneChan := make(chan struct{})
	defer close(doneChan)
	go func() {
		select {
		case <-ctx.Done():
			r.stopFlag.Store(true)
		case <-doneChan:
		}
	}()

	return r.renderFrame()
}

// Render a frame using the configured anti-aliasing strategy.
func (r *defaultRenderer) renderFrame() (*tracer.Frame, error) {
	start := time.Now()
	frame := tracer.NewFrame(r.frameW, r.frameH)

	r.stats = FrameStats{
		Width:  r.frameW,
		Height: r.frameH,
	}

	aa := r.options.AntiAlias
	var err error
	switch {
	case !aa.Enabled:
		err = r.renderPass(frame, tracer.TracePass, nil)
	case !aa.EdgeDetect:
		r.stats.Supersampled = true
		err = r.renderPass(frame, tracer.SupersamplePass, nil)
	default:
		if err = r.renderPass(frame, tracer.TracePass, nil); err != nil {
			break
		}

		mask := tracer.DetectEdges(frame, aa.EdgeThreshold)
		for _, flagged := range mask {
			if flagged {
				r.stats.EdgePixels++
			}
		}
		r.logger.Debugf("edge detection flagged %d/%d pixels for supersampling", r.stats.EdgePixels, len(mask))

		r.stats.Supersampled = true
		err = r.renderPass(frame, tracer.SupersamplePass, mask)
	}

	r.stats.RenderTime = time.Since(start)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// Split the frame into blocks, dispatch them to the tracers and wait for all
// of them to complete.
func (r *defaultRenderer) renderPass(frame *tracer.Frame, pass tracer.Pass, mask []bool) error {
	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.frameH)

	doneChan := make(chan int, len(r.tracers))
	errChan := make(chan error, len(r.tracers))

	pending := 0
	blockY := 0
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		if blockH <= 0 {
			continue
		}

		tr.Enqueue(tracer.BlockRequest{
			BlockY:   blockY,
			BlockH:   blockH,
			Frame:    frame,
			Pass:     pass,
			EdgeMask: mask,
			Stop:     &r.stopFlag,
			DoneChan: doneChan,
			ErrChan:  errChan,
		})
		blockY += blockH
		pending++
	}

	var err error
	for ; pending > 0; pending-- {
		select {
		case <-doneChan:
		case blockErr := <-errChan:
			// Abort the remaining blocks but keep draining the channels
			// so no tracer is left blocked on a send.
			if err == nil {
				err = blockErr
				r.stopFlag.Store(true)
			}
		}
	}

	r.stats.Passes++
	r.updateStats()

	if err != nil {
		return err
	}
	if r.stopFlag.Load() {
		return ErrInterrupted
	}
	return nil
}

// Collect per-tracer statistics for the last pass.
func (r *defaultRenderer) updateStats() {
	r.stats.Tracers = make([]TracerStat, len(r.tracers))
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		stat := TracerStat{
			Id:           tr.Id(),
			IsPrimary:    idx == 0,
			BlockH:       blockH,
			FramePercent: blockPercent(blockH, r.frameH),
		}
		if blockH != 0 {
			stat.RenderTime = tr.Stats().RenderTime
		}
		r.stats.Tracers[idx] = stat
	}
}

// Trace the primary ray for pixel (i, j) and return every ray spawned while
// shading it. Debugging is only supported when rendering with a single thread.
func (r *defaultRenderer) DebugPixel(i, j int) ([]tracer.DebugRay, types.Vec3, error) {
	r.Lock()
	defer r.Unlock()

	if r.options.Threads > 1 {
		return nil, types.Vec3{}, ErrDebugCacheConcurrent
	}
	if i < 0 || j < 0 || i >= r.frameW || j >= r.frameH {
		return nil, types.Vec3{}, fmt.Errorf("renderer: pixel (%d, %d) outside %dx%d frame", i, j, r.frameW, r.frameH)
	}

	cache := tracer.NewDebugCache()
	rt := tracer.NewRayTracer(r.sc, r.options.tracerConfig(), 0).WithDebug(cache)
	color := rt.Trace(float64(i)/float64(r.frameW), float64(j)/float64(r.frameH))
	return cache.Rays(), color, nil
}

// Percentage of the frame area covered by a block of blockH rows.
func blockPercent(blockH, frameH int) float64 {
	if frameH == 0 {
		return 0
	}
	return math.Round(1000.0*float64(blockH)/float64(frameH)) / 10.0
}
