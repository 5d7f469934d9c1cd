package tracer

import "github.com/achilleasa/go-raytrace/types"

// A traced ray and its closest hit.
type DebugRay struct {
	Ray   types.Ray
	Depth int

	Hit    bool
	T      float64
	N      types.Vec3
	Object string
}

// A DebugCache records every ray traced for a pixel. It is not safe for
// concurrent use.
type DebugCache struct {
	rays []DebugRay
}

func NewDebugCache() *DebugCache {
	return &DebugCache{}
}

// Discard all recorded rays.
func (c *DebugCache) Reset() {
	c.rays = c.rays[:0]
}

// Get the recorded rays in trace order.
func (c *DebugCache) Rays() []DebugRay {
	return c.rays
}

func (c *DebugCache) record(entry DebugRay) {
	c.rays = append(c.rays, entry)
}
