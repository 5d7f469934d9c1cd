package renderer

import (
	"fmt"
	"os"
	"runtime"

	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/tracer"
	"github.com/pelletier/go-toml/v2"
)

type KdTreeOptions struct {
	Enabled  bool `toml:"enabled"`
	MaxDepth int  `toml:"max_depth"`
	LeafSize int  `toml:"leaf_size"`
}

type AntiAliasOptions struct {
	Enabled bool `toml:"enabled"`

	// Sub-pixel grid width.
	Samples int  `toml:"samples"`
	Jitter  bool `toml:"jitter"`

	// Only supersample pixels flagged by an edge filter applied to a
	// single-sample pass.
	EdgeDetect    bool    `toml:"edge_detect"`
	EdgeThreshold float64 `toml:"edge_threshold"`
}

type Options struct {
	// Frame width. The height is derived from the camera aspect ratio.
	Width int `toml:"width"`

	// Number of reflection/refraction bounces.
	MaxDepth int `toml:"max_depth"`

	// Number of cpu tracers.
	Threads int `toml:"threads"`

	KdTree    KdTreeOptions    `toml:"kdtree"`
	AntiAlias AntiAliasOptions `toml:"anti_alias"`

	BackfaceCulling bool `toml:"backface_culling"`
	SmoothShading   bool `toml:"smooth_shading"`
	Shadows         bool `toml:"shadows"`
	CubeMap         bool `toml:"cube_map"`
}

// Get the default render options.
func DefaultOptions() Options {
	return Options{
		Width:    512,
		MaxDepth: 0,
		Threads:  runtime.NumCPU(),
		KdTree: KdTreeOptions{
			Enabled:  true,
			MaxDepth: 15,
			LeafSize: 10,
		},
		AntiAlias: AntiAliasOptions{
			Samples:       3,
			EdgeThreshold: 0.1,
		},
		BackfaceCulling: true,
		SmoothShading:   true,
		Shadows:         true,
	}
}

// Load options from a TOML file. Settings missing from the file keep their
// default values while unknown settings are rejected.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	f, err := os.Open(path)
	if err != nil {
		return opts, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err = dec.Decode(&opts); err != nil {
		return opts, fmt.Errorf("renderer: could not parse options from %s: %w", path, err)
	}

	return opts, opts.Validate()
}

// Validate options.
func (o Options) Validate() error {
	switch {
	case o.Width <= 0:
		return fmt.Errorf("%w: width must be positive; got %d", ErrInvalidOptions, o.Width)
	case o.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative; got %d", ErrInvalidOptions, o.MaxDepth)
	case o.Threads <= 0:
		return fmt.Errorf("%w: thread count must be positive; got %d", ErrInvalidOptions, o.Threads)
	case o.KdTree.Enabled && o.KdTree.MaxDepth <= 0:
		return fmt.Errorf("%w: kd-tree depth must be positive; got %d", ErrInvalidOptions, o.KdTree.MaxDepth)
	case o.KdTree.Enabled && o.KdTree.LeafSize <= 0:
		return fmt.Errorf("%w: kd-tree leaf size must be positive; got %d", ErrInvalidOptions, o.KdTree.LeafSize)
	case o.AntiAlias.Enabled && o.AntiAlias.Samples <= 0:
		return fmt.Errorf("%w: anti-alias samples must be positive; got %d", ErrInvalidOptions, o.AntiAlias.Samples)
	case o.AntiAlias.EdgeThreshold < 0 || o.AntiAlias.EdgeThreshold > 1:
		return fmt.Errorf("%w: edge threshold must be in [0, 1]; got %f", ErrInvalidOptions, o.AntiAlias.EdgeThreshold)
	}
	return nil
}

// Get the scene options.
func (o Options) sceneOptions() scene.Options {
	return scene.Options{
		BackfaceCulling: o.BackfaceCulling,
		SmoothShading:   o.SmoothShading,
		Shadows:         o.Shadows,
	}
}

// Get the tracer configuration.
func (o Options) tracerConfig() tracer.Config {
	samples := 1
	if o.AntiAlias.Enabled {
		samples = o.AntiAlias.Samples
	}
	return tracer.Config{
		MaxDepth:   o.MaxDepth,
		Samples:    samples,
		Jitter:     o.AntiAlias.Jitter,
		UseCubeMap: o.CubeMap,
	}
}

// Calculate the frame height for the given camera aspect ratio.
func (o Options) FrameHeight(aspect float64) int {
	if aspect <= 0 {
		aspect = 1
	}
	height := int(float64(o.Width)/aspect + 0.5)
	if height < 1 {
		height = 1
	}
	return height
}
