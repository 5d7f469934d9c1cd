package tracer

import (
	"math"
	"math/rand/v2"

	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/types"
)

// Ray tracer configuration.
type Config struct {
	// Recursion budget for reflected and refracted rays.
	MaxDepth int

	// Sub-pixel grid width used by SupersamplePixel.
	Samples int

	// Randomize sample positions within each sub-pixel cell.
	Jitter bool

	// Use the scene cube map for rays that miss all objects.
	UseCubeMap bool
}

// A RayTracer evaluates the color of camera rays using recursive Whitted
// style shading. A RayTracer only reads from its scene; multiple RayTracers
// may share the same scene. A single RayTracer must not be used concurrently
// when jittering is enabled or a debug cache is attached.
type RayTracer struct {
	sc    *scene.Scene
	cfg   Config
	rng   *rand.Rand
	debug *DebugCache
}

// Create a ray tracer for sc. The seed initializes the generator used for
// jittering sample positions.
func NewRayTracer(sc *scene.Scene, cfg Config, seed uint64) *RayTracer {
	if cfg.Samples < 1 {
		cfg.Samples = 1
	}
	return &RayTracer{
		sc:  sc,
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15)),
	}
}

// Get a copy of the tracer that records every traced ray to cache.
func (rt *RayTracer) WithDebug(cache *DebugCache) *RayTracer {
	clone := *rt
	clone.debug = cache
	return &clone
}

// Trace r through the scene and return its unclamped color. Depth is the
// number of reflection and refraction bounces still allowed.
func (rt *RayTracer) TraceRay(r types.Ray, depth int) types.Vec3 {
	var isect scene.Isect
	hit := rt.sc.Intersect(r, &isect)

	if rt.debug != nil {
		entry := DebugRay{Ray: r, Depth: depth, Hit: hit}
		if hit {
			entry.T, entry.N, entry.Object = isect.T, isect.N, isect.Object.Name
		}
		rt.debug.record(entry)
	}

	if !hit {
		return rt.background(r)
	}

	mat := &isect.Material
	color := mat.Shade(rt.sc, r, &isect)
	if depth == 0 {
		return color
	}

	p := r.At(isect.T)

	if kr := mat.Kr.Value(isect.UV); !kr.IsZero() {
		reflected := types.NewRay(p, r.Dir.Reflect(isect.N).Normalize(), types.Reflection)
		color = color.Add(kr.MulVec(rt.TraceRay(reflected, depth-1)))
	}

	if kt := mat.Kt.Value(isect.UV); !kt.IsZero() {
		if dir, ok := refract(r.Dir, isect.N, mat.Index.Intensity(isect.UV)); ok {
			refracted := types.NewRay(p, dir, types.Refraction)
			color = color.Add(kt.MulVec(rt.TraceRay(refracted, depth-1)))
		}
	}

	return color
}

// Get the color for rays that do not hit anything.
func (rt *RayTracer) background(r types.Ray) types.Vec3 {
	if cubeMap := rt.sc.CubeMap(); rt.cfg.UseCubeMap && cubeMap != nil {
		return cubeMap.Lookup(r.Dir)
	}
	return rt.sc.Background()
}

// Calculate the direction of a ray with direction d refracted at a surface
// with outward normal n. Rays with a direction facing away from n exit the
// medium with the given index of refraction into the surrounding medium
// (index 1); all other rays enter it. Returns false if the incidence angle is
// at or beyond the critical angle.
func refract(d, n types.Vec3, index float64) (types.Vec3, bool) {
	d = d.Normalize()
	cosI := -n.Dot(d)
	eta := 1.0 / index
	if cosI < 0 {
		n = n.Neg()
		cosI = -cosI
		eta = index
	}

	sinT2 := eta * eta * (1.0 - cosI*cosI)
	if sinT2 >= 1.0 {
		return types.Vec3{}, false
	}

	cosT := math.Sqrt(1.0 - sinT2)
	return d.Mul(eta).Add(n.Mul(eta*cosI - cosT)).Normalize(), true
}

// Trace the camera ray through the normalized image plane coordinates (x, y)
// and return its color clamped to [0, 1]. Rays are appended to the debug
// cache, if one is attached.
func (rt *RayTracer) Trace(x, y float64) types.Vec3 {
	r := rt.sc.Camera().RayThrough(x, y)
	return rt.TraceRay(r, rt.cfg.MaxDepth).Clamp(0, 1)
}

// Trace the camera ray through the corner of pixel (i, j) and store its color
// in f.
func (rt *RayTracer) TracePixel(f *Frame, i, j int) types.Vec3 {
	rt.resetDebug()
	color := rt.Trace(float64(i)/float64(f.width), float64(j)/float64(f.height))
	f.Set(i, j, color)
	return color
}

// Trace a Samples x Samples grid of rays through the pixel (i, j) and store
// the average color in f. Each ray passes through the center of its grid
// cell unless jittering is enabled.
func (rt *RayTracer) SupersamplePixel(f *Frame, i, j int) types.Vec3 {
	rt.resetDebug()
	n := rt.cfg.Samples
	cell := 1.0 / float64(n)

	var sum types.Vec3
	for sy := 0; sy < n; sy++ {
		for sx := 0; sx < n; sx++ {
			ox, oy := 0.5, 0.5
			if rt.cfg.Jitter {
				ox, oy = rt.rng.Float64(), rt.rng.Float64()
			}
			x := (float64(i) + (float64(sx)+ox)*cell) / float64(f.width)
			y := (float64(j) + (float64(sy)+oy)*cell) / float64(f.height)
			sum = sum.Add(rt.Trace(x, y))
		}
	}

	color := sum.Mul(1.0 / float64(n*n))
	f.Set(i, j, color)
	return color
}

// Discard the rays recorded for the previous pixel.
func (rt *RayTracer) resetDebug() {
	if rt.debug != nil {
		rt.debug.Reset()
	}
}
