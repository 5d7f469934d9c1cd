package scene

import (
	"fmt"
	"sync"

	"github.com/achilleasa/go-raytrace/asset"
	"github.com/achilleasa/go-raytrace/asset/texture"
	"github.com/achilleasa/go-raytrace/scene/kdtree"
	"github.com/achilleasa/go-raytrace/types"
)

// Scene options that affect intersection and shading. They must be applied
// via Configure before rendering starts.
type Options struct {
	BackfaceCulling bool
	SmoothShading   bool
	Shadows         bool
}

// Get the default scene options.
func DefaultOptions() Options {
	return Options{
		BackfaceCulling: true,
		SmoothShading:   true,
		Shadows:         true,
	}
}

// Implemented by primitives whose behavior depends on scene options.
type configurable interface {
	configure(Options)
}

// Scene statistics.
type Stats struct {
	Objects   int
	Unbounded int
	Lights    int
	Meshes    int
	Faces     int
	Textures  int

	// Scene kd-tree stats; only valid if KdTree is true.
	KdTree      bool
	KdTreeStats kdtree.Stats

	// Number of meshes with a private kd-tree.
	MeshTrees int
}

// A Scene owns the objects, lights and textures of a renderable scene.
type Scene struct {
	camera *Camera

	objects []*Object
	lights  []Light

	ambient    types.Vec3
	background types.Vec3
	cubeMap    *CubeMap

	// Decoded textures keyed by their resolved path.
	texMutex sync.Mutex
	textures map[string]*texture.Map

	// Spatial index over bounded objects; unbounded objects are stored
	// separately and always tested.
	tree      *kdtree.Tree
	unbounded []*Object
	useKdTree bool

	opts Options
}

// Create an empty scene.
func NewScene() *Scene {
	return &Scene{
		textures: make(map[string]*texture.Map),
		opts:     DefaultOptions(),
	}
}

// Attach a camera to the scene.
func (s *Scene) SetCamera(camera *Camera) {
	s.camera = camera
}

// Get the scene camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// Add an object to the scene. Adding objects invalidates any existing kd-tree.
func (s *Scene) Add(obj *Object) {
	if c, ok := obj.Primitive.(configurable); ok {
		c.configure(s.opts)
	}
	s.objects = append(s.objects, obj)
	s.tree = nil
	s.useKdTree = false
}

// Add a light to the scene.
func (s *Scene) AddLight(light Light) {
	s.lights = append(s.lights, light)
}

// Get the scene objects.
func (s *Scene) Objects() []*Object {
	return s.objects
}

// Get the scene lights.
func (s *Scene) Lights() []Light {
	return s.lights
}

// Set the ambient light color.
func (s *Scene) SetAmbient(c types.Vec3) {
	s.ambient = c
}

// Get the ambient light color.
func (s *Scene) Ambient() types.Vec3 {
	return s.ambient
}

// Set the color returned for rays that do not hit any object.
func (s *Scene) SetBackground(c types.Vec3) {
	s.background = c
}

// Get the background color.
func (s *Scene) Background() types.Vec3 {
	return s.background
}

// Attach an environment cube map.
func (s *Scene) SetCubeMap(cm *CubeMap) {
	s.cubeMap = cm
}

// Get the environment cube map or nil if the scene does not define one.
func (s *Scene) CubeMap() *CubeMap {
	return s.cubeMap
}

// Apply options to the scene and its objects.
func (s *Scene) Configure(opts Options) {
	s.opts = opts
	for _, obj := range s.objects {
		if c, ok := obj.Primitive.(configurable); ok {
			c.configure(opts)
		}
	}
}

// Get the scene options.
func (s *Scene) Options() Options {
	return s.opts
}

// Load a texture relative to the resource relTo. Textures are decoded once
// and cached by their resolved path.
func (s *Scene) Texture(pathToTexture string, relTo *asset.Resource) (*texture.Map, error) {
	texURL, err := asset.ResolvePath(pathToTexture, relTo)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrInvalidTexture, pathToTexture, err)
	}
	key := texURL.String()

	s.texMutex.Lock()
	defer s.texMutex.Unlock()

	if tex, exists := s.textures[key]; exists {
		return tex, nil
	}

	res, err := asset.NewResource(pathToTexture, relTo)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrInvalidTexture, pathToTexture, err)
	}
	defer res.Close()

	tex, err := texture.New(res)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrInvalidTexture, pathToTexture, err)
	}

	s.textures[key] = tex
	return tex, nil
}

// Build a kd-tree over the bounded scene objects and enable accelerated
// intersection queries. Meshes with more than leafSize faces receive their own
// private tree built with the same parameters.
func (s *Scene) BuildKdTree(maxDepth, leafSize int) {
	boxes := make([]types.BBox, len(s.objects))
	s.unbounded = s.unbounded[:0]
	for idx, obj := range s.objects {
		boxes[idx] = obj.BoundingBox()
		if !obj.HasBoundingBox() {
			s.unbounded = append(s.unbounded, obj)
		}

		if mesh, ok := obj.Primitive.(*Trimesh); ok && mesh.NumFaces() > leafSize {
			mesh.buildTree(maxDepth, leafSize)
		}
	}

	s.tree = kdtree.Build(boxes, maxDepth, leafSize)
	s.UseKdTree(true)
}

// Toggle between kd-tree and linear intersection queries. Enabling the
// kd-tree has no effect unless BuildKdTree has been called.
func (s *Scene) UseKdTree(enabled bool) {
	s.useKdTree = enabled && s.tree != nil
	for _, obj := range s.objects {
		if mesh, ok := obj.Primitive.(*Trimesh); ok {
			mesh.useTree = s.useKdTree && mesh.tree != nil
		}
	}
}

// Find the closest intersection between r and the scene objects. Returns
// false and sets the distance in i to NoHitDist if nothing is hit.
func (s *Scene) Intersect(r types.Ray, i *Isect) bool {
	if !s.useKdTree {
		return s.IntersectLinear(r, i)
	}

	i.Reset()
	var cur Isect
	for _, obj := range s.unbounded {
		if obj.Intersect(r, &cur) && (cur.T < i.T || !i.Hit()) {
			*i = cur
		}
	}

	s.tree.Traverse(r, func(idx int) (float64, bool) {
		if !s.objects[idx].Intersect(r, &cur) {
			return 0, false
		}
		if cur.T < i.T || !i.Hit() {
			*i = cur
		}
		return cur.T, true
	})

	return i.Hit()
}

// Find the closest intersection by testing every scene object.
func (s *Scene) IntersectLinear(r types.Ray, i *Isect) bool {
	i.Reset()
	var cur Isect
	for _, obj := range s.objects {
		if !obj.Intersect(r, &cur) {
			continue
		}
		if cur.T < i.T || !i.Hit() {
			*i = cur
		}
	}

	if !i.Hit() {
		i.T = NoHitDist
		return false
	}
	return true
}

// Get the world-space box enclosing all bounded objects.
func (s *Scene) Bounds() types.BBox {
	bbox := types.EmptyBBox()
	for _, obj := range s.objects {
		if obj.HasBoundingBox() {
			bbox = bbox.Merge(obj.BoundingBox())
		}
	}
	return bbox
}

// Collect scene statistics.
func (s *Scene) Stats() Stats {
	stats := Stats{
		Objects:  len(s.objects),
		Lights:   len(s.lights),
		Textures: len(s.textures),
		KdTree:   s.tree != nil,
	}
	if s.tree != nil {
		stats.KdTreeStats = s.tree.Stats()
	}

	for _, obj := range s.objects {
		if !obj.HasBoundingBox() {
			stats.Unbounded++
		}
		if mesh, ok := obj.Primitive.(*Trimesh); ok {
			stats.Meshes++
			stats.Faces += mesh.NumFaces()
			if _, hasTree := mesh.TreeStats(); hasTree {
				stats.MeshTrees++
			}
		}
	}
	return stats
}
