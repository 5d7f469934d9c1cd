package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/tracer"
	"github.com/achilleasa/go-raytrace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glowScene() *scene.Scene {
	mat := scene.NewMaterial("glow")
	mat.Ke = scene.Constant(types.XYZ(1, 1, 1))

	sc := scene.NewScene()
	sc.SetCamera(scene.NewCamera(types.XYZ(0, 0, 1), types.Vec3{}, types.XYZ(0, 1, 0), 90, 1))
	sc.Add(scene.NewObject("wall", scene.Plane{}, nil, mat))
	return sc
}

func testOptions(width, threads int) Options {
	opts := DefaultOptions()
	opts.Width = width
	opts.Threads = threads
	return opts
}

func assertWhiteFrame(t *testing.T, f *tracer.Frame) {
	t.Helper()
	for j := 0; j < f.Height(); j++ {
		for i := 0; i < f.Width(); i++ {
			if got := f.At(i, j); got != types.XYZ(1, 1, 1) {
				t.Fatalf("expected pixel (%d, %d) to be white; got %v", i, j, got)
			}
		}
	}
}

func TestNewDefaultErrors(t *testing.T) {
	noCamera := scene.NewScene()

	type spec struct {
		sc     *scene.Scene
		opts   Options
		expErr error
	}
	specs := []spec{
		{nil, testOptions(8, 1), ErrSceneNotDefined},
		{noCamera, testOptions(8, 1), ErrCameraNotDefined},
		{glowScene(), testOptions(0, 1), ErrInvalidOptions},
	}

	for index, s := range specs {
		_, err := NewDefault(s.sc, tracer.NaiveScheduler(), s.opts)
		if !errors.Is(err, s.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.expErr, err)
		}
	}
}

func TestRenderFrame(t *testing.T) {
	r, err := NewDefault(glowScene(), tracer.NaiveScheduler(), testOptions(8, 3))
	require.NoError(t, err)
	defer r.Close()

	f, err := r.Render(context.Background())
	require.NoError(t, err)
	require.Equal(t, 8, f.Width())
	require.Equal(t, 8, f.Height())
	assertWhiteFrame(t, f)

	stats := r.Stats()
	assert.Equal(t, 1, stats.Passes)
	assert.False(t, stats.Supersampled)
	require.Len(t, stats.Tracers, 3)

	rows := 0
	for _, tr := range stats.Tracers {
		rows += tr.BlockH
	}
	assert.Equal(t, 8, rows)
	assert.True(t, stats.Tracers[0].IsPrimary)
}

func TestRenderPasses(t *testing.T) {
	type spec struct {
		edgeDetect bool
		expPasses  int
	}
	specs := []spec{
		{false, 1},
		{true, 2},
	}

	for index, s := range specs {
		opts := testOptions(6, 2)
		opts.AntiAlias.Enabled = true
		opts.AntiAlias.Samples = 2
		opts.AntiAlias.EdgeDetect = s.edgeDetect

		r, err := NewDefault(glowScene(), tracer.PerfectScheduler(), opts)
		require.NoError(t, err)

		f, err := r.Render(context.Background())
		require.NoError(t, err)
		assertWhiteFrame(t, f)

		stats := r.Stats()
		if stats.Passes != s.expPasses {
			t.Fatalf("[spec %d] expected %d passes; got %d", index, s.expPasses, stats.Passes)
		}
		if !stats.Supersampled {
			t.Fatalf("[spec %d] expected frame to be supersampled", index)
		}
		r.Close()
	}
}

func TestTracerCountIsCappedByFrameHeight(t *testing.T) {
	sc := glowScene()
	sc.Camera().SetAspectRatio(4)

	r, err := NewDefault(sc, tracer.NaiveScheduler(), testOptions(8, 16))
	require.NoError(t, err)
	defer r.Close()

	assert.Len(t, r.(*defaultRenderer).tracers, 2)

	f, err := r.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.Height())
}

func TestRenderCancelled(t *testing.T) {
	r, err := NewDefault(glowScene(), tracer.NaiveScheduler(), testOptions(8, 2))
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Render(ctx)
	assert.ErrorIs(t, err, ErrInterrupted)

	// The renderer is usable again with a live context
	_, err = r.Render(context.Background())
	assert.NoError(t, err)
}

func TestRenderAfterClose(t *testing.T) {
	r, err := NewDefault(glowScene(), tracer.NaiveScheduler(), testOptions(4, 1))
	require.NoError(t, err)
	r.Close()

	_, err = r.Render(context.Background())
	assert.ErrorIs(t, err, ErrNoTracers)
}

func TestDebugPixel(t *testing.T) {
	r, err := NewDefault(glowScene(), tracer.NaiveScheduler(), testOptions(4, 1))
	require.NoError(t, err)
	defer r.Close()

	rays, color, err := r.DebugPixel(2, 2)
	require.NoError(t, err)
	assert.Equal(t, types.XYZ(1, 1, 1), color)
	require.Len(t, rays, 1)
	assert.True(t, rays[0].Hit)
	assert.Equal(t, "wall", rays[0].Object)

	_, _, err = r.DebugPixel(4, 0)
	assert.Error(t, err)
}

func TestDebugPixelRequiresSingleThread(t *testing.T) {
	r, err := NewDefault(glowScene(), tracer.NaiveScheduler(), testOptions(4, 2))
	require.NoError(t, err)
	defer r.Close()

	_, _, err = r.DebugPixel(0, 0)
	assert.ErrorIs(t, err, ErrDebugCacheConcurrent)
}
