package reader

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/go-raytrace/asset"
	"github.com/achilleasa/go-raytrace/asset/texture"
	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/types"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// A color or vector. Scalars are expanded to all three components.
type yamlVec3 struct {
	set   bool
	value types.Vec3
}

func (v *yamlVec3) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s float64
		if err := node.Decode(&s); err != nil {
			return err
		}
		v.value = types.XYZ(s, s, s)
	case yaml.SequenceNode:
		var vec [3]float64
		if err := node.Decode(&vec); err != nil {
			return err
		}
		v.value = types.Vec3(vec)
	default:
		return fmt.Errorf("line %d: expected a scalar or a 3 element list", node.Line)
	}
	v.set = true
	return nil
}

func (v yamlVec3) or(def types.Vec3) types.Vec3 {
	if v.set {
		return v.value
	}
	return def
}

// A material parameter; either a scalar, a 3 element list or a {map: file}
// texture reference.
type yamlParam struct {
	yamlVec3
	texture string
}

func (p *yamlParam) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return p.yamlVec3.UnmarshalYAML(node)
	}

	var tex struct {
		Map string `yaml:"map"`
	}
	if err := node.Decode(&tex); err != nil {
		return err
	}
	if tex.Map == "" {
		return fmt.Errorf("line %d: texture reference requires a 'map' entry", node.Line)
	}
	p.texture = tex.Map
	p.set = true
	return nil
}

type yamlMaterial struct {
	Emissive     yamlParam `yaml:"emissive"`
	Ambient      yamlParam `yaml:"ambient"`
	Specular     yamlParam `yaml:"specular"`
	Diffuse      yamlParam `yaml:"diffuse"`
	Reflective   yamlParam `yaml:"reflective"`
	Transmissive yamlParam `yaml:"transmissive"`
	Shininess    yamlParam `yaml:"shininess"`
	Index        yamlParam `yaml:"index"`
}

// A material reference; either the name of a material from the materials
// section or an inline material definition.
type yamlMaterialRef struct {
	name   string
	inline *yamlMaterial
}

func (m *yamlMaterialRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&m.name)
	case yaml.MappingNode:
		m.inline = &yamlMaterial{}
		return node.Decode(m.inline)
	}
	return fmt.Errorf("line %d: expected a material name or definition", node.Line)
}

type yamlCamera struct {
	Eye         yamlVec3 `yaml:"eye"`
	LookAt      yamlVec3 `yaml:"look_at"`
	Up          yamlVec3 `yaml:"up"`
	FOV         float64  `yaml:"fov"`
	AspectRatio float64  `yaml:"aspect_ratio"`
}

type yamlCubeMap struct {
	PosX        string `yaml:"xpos"`
	NegX        string `yaml:"xneg"`
	PosY        string `yaml:"ypos"`
	NegY        string `yaml:"yneg"`
	PosZ        string `yaml:"zpos"`
	NegZ        string `yaml:"zneg"`
	FilterWidth int    `yaml:"filter_width"`
}

type yamlLight struct {
	Type        string   `yaml:"type"`
	Color       yamlVec3 `yaml:"color"`
	Position    yamlVec3 `yaml:"position"`
	Direction   yamlVec3 `yaml:"direction"`
	Attenuation struct {
		Constant  float64 `yaml:"constant"`
		Linear    float64 `yaml:"linear"`
		Quadratic float64 `yaml:"quadratic"`
	} `yaml:"attenuation"`

	// Spot cone half angle in degrees and falloff exponent.
	Cutoff  float64 `yaml:"cutoff"`
	Falloff float64 `yaml:"falloff"`
}

type yamlRotation struct {
	Axis  yamlVec3 `yaml:"axis"`
	Angle float64  `yaml:"angle"`
}

// A single transformation step. Exactly one of the fields must be set.
type yamlTransformOp struct {
	Translate *yamlVec3     `yaml:"translate"`
	Scale     *yamlVec3     `yaml:"scale"`
	Rotate    *yamlRotation `yaml:"rotate"`
}

type yamlObject struct {
	Type      string            `yaml:"type"`
	Name      string            `yaml:"name"`
	Material  *yamlMaterialRef  `yaml:"material"`
	Transform []yamlTransformOp `yaml:"transform"`

	// Inline mesh definition.
	Points          []yamlVec3        `yaml:"points"`
	Faces           [][3]int          `yaml:"faces"`
	Normals         []yamlVec3        `yaml:"normals"`
	Materials       []yamlMaterialRef `yaml:"materials"`
	GenerateNormals bool              `yaml:"generate_normals"`

	// Wavefront mesh file.
	File string `yaml:"file"`
}

type yamlDocument struct {
	Camera     *yamlCamera             `yaml:"camera"`
	Ambient    yamlVec3                `yaml:"ambient"`
	Background yamlVec3                `yaml:"background"`
	CubeMap    *yamlCubeMap            `yaml:"cubemap"`
	Materials  map[string]yamlMaterial `yaml:"materials"`
	Lights     []yamlLight             `yaml:"lights"`
	Objects    []yamlObject            `yaml:"objects"`
}

type yamlSceneReader struct {
	res *asset.Resource
	sc  *scene.Scene

	materials map[string]*scene.Material
}

// Create a new yaml scene reader.
func newYamlReader() *yamlSceneReader {
	return &yamlSceneReader{}
}

// Read a yaml scene document. Unknown document keys are rejected.
func (r *yamlSceneReader) Read(res *asset.Resource) (*scene.Scene, error) {
	start := time.Now()

	var doc yamlDocument
	dec := yaml.NewDecoder(res)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reader: could not parse %s: %w", res.Path(), err)
	}

	r.res = res
	r.sc = scene.NewScene()
	r.materials = make(map[string]*scene.Material)

	if doc.Camera == nil {
		return nil, fmt.Errorf("reader: %s: %w", res.Path(), scene.ErrCameraNotSet)
	}
	r.sc.SetCamera(r.camera(doc.Camera))
	r.sc.SetAmbient(doc.Ambient.value)
	r.sc.SetBackground(doc.Background.value)

	if doc.CubeMap != nil {
		cubeMap, err := r.cubeMap(doc.CubeMap)
		if err != nil {
			return nil, fmt.Errorf("reader: cubemap: %w", err)
		}
		r.sc.SetCubeMap(cubeMap)
	}

	for name, def := range doc.Materials {
		mat, err := r.material(name, &def)
		if err != nil {
			return nil, fmt.Errorf("reader: material '%s': %w", name, err)
		}
		r.materials[name] = mat
	}

	for index, def := range doc.Lights {
		light, err := r.light(&def)
		if err != nil {
			return nil, fmt.Errorf("reader: light %d: %w", index, err)
		}
		r.sc.AddLight(light)
	}

	for index, def := range doc.Objects {
		if err := r.object(index, &def); err != nil {
			return nil, fmt.Errorf("reader: object %d (%s): %w", index, def.Type, err)
		}
	}

	logger.Infof("loaded scene %s in %d ms", res.Path(), time.Since(start).Nanoseconds()/1000000)
	return r.sc, nil
}

func (r *yamlSceneReader) camera(def *yamlCamera) *scene.Camera {
	fov := def.FOV
	if fov <= 0 {
		fov = 45
	}
	aspect := def.AspectRatio
	if aspect <= 0 {
		aspect = 1
	}
	return scene.NewCamera(
		def.Eye.value,
		def.LookAt.or(types.XYZ(0, 0, -1)),
		def.Up.or(types.XYZ(0, 1, 0)),
		fov,
		aspect,
	)
}

func (r *yamlSceneReader) cubeMap(def *yamlCubeMap) (*scene.CubeMap, error) {
	var faces [6]*texture.Map
	for face, path := range [6]string{def.PosX, def.NegX, def.PosY, def.NegY, def.PosZ, def.NegZ} {
		if path == "" {
			return nil, fmt.Errorf("all six faces must be specified")
		}
		tex, err := r.sc.Texture(path, r.res)
		if err != nil {
			return nil, err
		}
		faces[face] = tex
	}
	return scene.NewCubeMap(faces, def.FilterWidth), nil
}

func (r *yamlSceneReader) material(name string, def *yamlMaterial) (*scene.Material, error) {
	mat := scene.NewMaterial(name)
	targets := []struct {
		param *yamlParam
		dst   *scene.MaterialParam
	}{
		{&def.Emissive, &mat.Ke},
		{&def.Ambient, &mat.Ka},
		{&def.Specular, &mat.Ks},
		{&def.Diffuse, &mat.Kd},
		{&def.Reflective, &mat.Kr},
		{&def.Transmissive, &mat.Kt},
		{&def.Shininess, &mat.Shininess},
		{&def.Index, &mat.Index},
	}

	for _, target := range targets {
		switch {
		case !target.param.set:
			continue
		case target.param.texture != "":
			tex, err := r.sc.Texture(target.param.texture, r.res)
			if err != nil {
				return nil, err
			}
			*target.dst = scene.Mapped(tex)
		default:
			*target.dst = scene.Constant(target.param.value)
		}
	}
	return mat, nil
}

// Resolve a material reference. Objects without a material get a grey
// diffuse one.
func (r *yamlSceneReader) materialRef(ref *yamlMaterialRef, objName string) (*scene.Material, error) {
	switch {
	case ref == nil:
		mat := scene.NewMaterial("default")
		mat.Kd = scene.Scalar(0.7)
		return mat, nil
	case ref.inline != nil:
		return r.material(objName, ref.inline)
	}

	mat, exists := r.materials[ref.name]
	if !exists {
		return nil, fmt.Errorf("undefined material '%s'", ref.name)
	}
	return mat, nil
}

func (r *yamlSceneReader) light(def *yamlLight) (scene.Light, error) {
	color := def.Color.or(types.XYZ(1, 1, 1))
	atten := scene.Attenuation{
		Constant:  def.Attenuation.Constant,
		Linear:    def.Attenuation.Linear,
		Quadratic: def.Attenuation.Quadratic,
	}

	switch def.Type {
	case "directional":
		if !def.Direction.set || def.Direction.value.IsZero() {
			return nil, fmt.Errorf("directional lights require a non-zero direction")
		}
		return scene.NewDirectionalLight(color, def.Direction.value), nil
	case "point":
		return scene.NewPointLight(color, def.Position.value, atten), nil
	case "spot":
		if !def.Direction.set || def.Direction.value.IsZero() {
			return nil, fmt.Errorf("spot lights require a non-zero direction")
		}
		cutoff := def.Cutoff
		if cutoff <= 0 {
			cutoff = 30
		}
		return scene.NewSpotLight(color, def.Position.value, def.Direction.value, atten, mgl64.DegToRad(cutoff), def.Falloff), nil
	}
	return nil, fmt.Errorf("unknown light type '%s'", def.Type)
}

// Build the object transformation. Steps are applied in listed order to the
// object's local coordinates, outermost first.
func (r *yamlSceneReader) transform(ops []yamlTransformOp) (*scene.Transform, error) {
	xform := scene.IdentityTransform()
	for index, op := range ops {
		set := 0
		if op.Translate != nil {
			set++
			xform = xform.Translate(op.Translate.value)
		}
		if op.Scale != nil {
			set++
			xform = xform.Scale(op.Scale.value)
		}
		if op.Rotate != nil {
			set++
			axis := op.Rotate.Axis.value
			if axis.IsZero() {
				return nil, fmt.Errorf("transform step %d: rotation axis must be non-zero", index)
			}
			xform = xform.Rotate(axis, mgl64.DegToRad(op.Rotate.Angle))
		}
		if set != 1 {
			return nil, fmt.Errorf("transform step %d: expected exactly one of translate, scale or rotate", index)
		}
	}
	return xform, nil
}

func (r *yamlSceneReader) object(index int, def *yamlObject) error {
	name := def.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", def.Type, index)
	}

	xform, err := r.transform(def.Transform)
	if err != nil {
		return err
	}

	var prim scene.Primitive
	switch def.Type {
	case "sphere":
		prim = scene.Sphere{}
	case "box":
		prim = scene.Box{}
	case "square":
		prim = scene.Square{}
	case "plane":
		prim = scene.Plane{}
	case "mesh":
		if def.File != "" {
			return r.meshFile(name, def, xform)
		}
		if prim, err = r.mesh(name, def); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown object type '%s'", def.Type)
	}

	mat, err := r.materialRef(def.Material, name)
	if err != nil {
		return err
	}
	r.sc.Add(scene.NewObject(name, prim, xform, mat))
	return nil
}

// Build an inline triangle mesh.
func (r *yamlSceneReader) mesh(name string, def *yamlObject) (*scene.Trimesh, error) {
	mesh := scene.NewTrimesh()
	for _, p := range def.Points {
		mesh.AddVertex(p.value)
	}
	for _, n := range def.Normals {
		mesh.AddNormal(n.value)
	}
	for index := range def.Materials {
		mat, err := r.materialRef(&def.Materials[index], fmt.Sprintf("%s-%d", name, index))
		if err != nil {
			return nil, err
		}
		mesh.AddMaterial(mat)
	}
	for _, f := range def.Faces {
		if err := mesh.AddFace(f[0], f[1], f[2]); err != nil {
			return nil, err
		}
	}
	if def.GenerateNormals && len(def.Normals) == 0 {
		mesh.GenerateNormals()
	}
	if err := mesh.Finalize(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// Load the meshes defined by a wavefront file. The object material, if
// specified, overrides the materials from the file.
func (r *yamlSceneReader) meshFile(name string, def *yamlObject, xform *scene.Transform) error {
	res, err := asset.NewResource(def.File, r.res)
	if err != nil {
		return err
	}
	defer res.Close()

	groups, err := newWavefrontMeshReader(r.sc).ReadMeshes(res)
	if err != nil {
		return err
	}

	var override *scene.Material
	if def.Material != nil {
		if override, err = r.materialRef(def.Material, name); err != nil {
			return err
		}
	}

	for _, group := range groups {
		mat := group.material
		if override != nil {
			mat = override
		}
		r.sc.Add(scene.NewObject(name+"/"+group.name, group.mesh, xform, mat))
	}
	return nil
}
