package tracer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/achilleasa/go-raytrace/scene"
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

func waitForBlock(t *testing.T, doneChan <-chan int, errChan <-chan error) int {
	t.Helper()
	select {
	case rows := <-doneChan:
		return rows
	case err := <-errChan:
		t.Fatal(err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for block")
	}
	return 0
}

func TestTracerBlockWorker(t *testing.T) {
	tr := NewCPUTracer("test")
	defer tr.Close()
	require.NoError(t, tr.Setup(glowScene(), Config{}))

	f := NewFrame(4, 4)
	doneChan := make(chan int, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(BlockRequest{
		BlockY:   1,
		BlockH:   2,
		Frame:    f,
		Pass:     TracePass,
		DoneChan: doneChan,
		ErrChan:  errChan,
	})

	assert.Equal(t, 2, waitForBlock(t, doneChan, errChan))
	assert.Equal(t, 2, tr.Stats().BlockH)

	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			exp := types.Vec3{}
			if j == 1 || j == 2 {
				exp = types.XYZ(1, 1, 1)
			}
			assert.Equal(t, exp, f.At(i, j), "pixel (%d, %d)", i, j)
		}
	}
}

func TestTracerSupersamplesMaskedPixels(t *testing.T) {
	tr := NewCPUTracer("test")
	defer tr.Close()
	require.NoError(t, tr.Setup(glowScene(), Config{Samples: 2}))

	f := NewFrame(2, 1)
	doneChan := make(chan int, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(BlockRequest{
		BlockH:   1,
		Frame:    f,
		Pass:     SupersamplePass,
		EdgeMask: []bool{false, true},
		DoneChan: doneChan,
		ErrChan:  errChan,
	})
	waitForBlock(t, doneChan, errChan)

	assert.Equal(t, types.Vec3{}, f.At(0, 0))
	assert.Equal(t, types.XYZ(1, 1, 1), f.At(1, 0))
}

func TestTracerStopFlag(t *testing.T) {
	tr := NewCPUTracer("test")
	defer tr.Close()
	require.NoError(t, tr.Setup(glowScene(), Config{}))

	var stop atomic.Bool
	stop.Store(true)

	f := NewFrame(4, 4)
	doneChan := make(chan int, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(BlockRequest{
		BlockH:   4,
		Frame:    f,
		Stop:     &stop,
		DoneChan: doneChan,
		ErrChan:  errChan,
	})

	assert.Equal(t, 0, waitForBlock(t, doneChan, errChan))
	for _, b := range f.Buffer() {
		if b != 0 {
			t.Fatal("expected frame to remain untouched after stopping")
		}
	}
}

func TestTracerSetupWithoutScene(t *testing.T) {
	tr := NewCPUTracer("test")
	defer tr.Close()
	assert.ErrorIs(t, tr.Setup(nil, Config{}), ErrNoSceneData)
}
