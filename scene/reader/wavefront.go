package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/go-raytrace/asset"
	"github.com/achilleasa/go-raytrace/log"
	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/types"
)

// A group of faces sharing the same material. Each group is converted into a
// separate mesh that only contains the vertices referenced by its faces.
type meshGroup struct {
	name     string
	material *scene.Material

	mesh *scene.Trimesh

	// Maps a (vertex, normal) index pair to a mesh vertex index.
	vertexMap map[[2]int]int

	// Per mesh vertex normals and the number of vertices without one.
	normals        []types.Vec3
	missingNormals int
}

type wavefrontSceneReader struct {
	logger log.Logger

	// The scene is used for caching any textures referenced by materials.
	sc *scene.Scene

	// Materials defined by material libraries.
	materials map[string]*scene.Material

	// Currently selected material and group name.
	curMaterial *scene.Material
	curName     string

	// List of vertices and normals.
	vertexList []types.Vec3
	normalList []types.Vec3

	groups   []*meshGroup
	curGroup *meshGroup

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return newWavefrontMeshReader(scene.NewScene())
}

// Create a wavefront reader for loading meshes into an existing scene.
func newWavefrontMeshReader(sc *scene.Scene) *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:    log.New("wavefrontReader"),
		sc:        sc,
		materials: make(map[string]*scene.Material),
		curName:   "default",
	}
}

// Read a scene consisting of the meshes defined by a wavefront object file.
// The scene receives a default camera facing the meshes, a directional light
// and a dim ambient light.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	groups, err := r.ReadMeshes(sceneRes)
	if err != nil {
		return nil, err
	}

	for _, group := range groups {
		r.sc.Add(scene.NewObject(group.name, group.mesh, nil, group.material))
	}

	bounds := r.sc.Bounds()
	if bounds.IsEmpty() {
		return nil, r.emitError(sceneRes.Path(), 0, "scene does not contain any faces")
	}
	center := bounds.Center()
	dist := bounds.Size().Len() * 1.5
	r.sc.SetCamera(scene.NewCamera(center.Add(types.XYZ(0, 0, dist)), center, types.XYZ(0, 1, 0), 45, 1))
	r.sc.AddLight(scene.NewDirectionalLight(types.XYZ(1, 1, 1), types.XYZ(-1, -1, -1)))
	r.sc.SetAmbient(types.XYZ(0.2, 0.2, 0.2))

	return r.sc, nil
}

// Parse a wavefront object file and return the meshes it defines.
func (r *wavefrontSceneReader) ReadMeshes(res *asset.Resource) ([]*meshGroup, error) {
	r.logger.Infof("parsing meshes from %s", res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}

	faces := 0
	for _, group := range r.groups {
		if group.missingNormals == 0 && len(group.normals) != 0 {
			for _, n := range group.normals {
				group.mesh.AddNormal(n)
			}
		} else {
			group.mesh.GenerateNormals()
		}

		if err := group.mesh.Finalize(); err != nil {
			return nil, r.emitError(res.Path(), 0, "mesh '%s': %s", group.name, err.Error())
		}
		faces += group.mesh.NumFaces()
	}

	r.logger.Infof("parsed %d meshes with %d faces in %d ms", len(r.groups), faces, time.Since(start).Nanoseconds()/1000000)
	return r.groups, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Get the material for faces that do not select one.
func (r *wavefrontSceneReader) defaultMaterial() *scene.Material {
	mat, exists := r.materials[""]
	if !exists {
		mat = scene.NewMaterial("default")
		mat.Kd = scene.Constant(types.XYZ(0.7, 0.7, 0.7))
		r.materials[""] = mat
	}
	return mat
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for '%s'; expected 1 argument; got %d", lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for 'usemtl'; expected 1 argument; got %d", len(lineTokens)-1)
			}

			mat, exists := r.materials[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, "undefined material with name '%s'", lineTokens[1])
			}

			// Faces with a different material go to a new mesh
			if mat != r.curMaterial {
				r.curMaterial = mat
				r.curGroup = nil
			}
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for '%s'; expected 1 argument for object name; got %d", lineTokens[0], len(lineTokens)-1)
			}
			r.curName = lineTokens[1]
			r.curGroup = nil
		case "f":
			if err := r.parseFace(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	return scanner.Err()
}

// Get the group receiving new faces, creating it if needed.
func (r *wavefrontSceneReader) group() *meshGroup {
	if r.curGroup != nil {
		return r.curGroup
	}

	if r.curMaterial == nil {
		r.curMaterial = r.defaultMaterial()
	}
	r.curGroup = &meshGroup{
		name:      r.curName,
		material:  r.curMaterial,
		mesh:      scene.NewTrimesh(),
		vertexMap: make(map[[2]int]int),
	}
	r.groups = append(r.groups, r.curGroup)
	return r.curGroup
}

// Parse face definition. Each face definitions consists of at least 3
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 args separated by a slash character. The following
// formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex list. Texture coordinates are ignored. Faces with more than 3
// vertices are split into a triangle fan.
func (r *wavefrontSceneReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf("unsupported syntax for 'f'; expected at least 3 arguments; got %d", len(lineTokens)-1)
	}

	group := r.group()
	ids := make([]int, len(lineTokens)-1)
	expIndices := 0
	for arg := range ids {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vIndex, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList))
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		nIndex := -1
		if len(vTokens) == 3 && vTokens[2] != "" {
			nIndex, err = selectFaceCoordIndex(vTokens[2], len(r.normalList))
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}

		key := [2]int{vIndex, nIndex}
		meshIndex, exists := group.vertexMap[key]
		if !exists {
			meshIndex = group.mesh.NumVertices()
			group.vertexMap[key] = meshIndex
			group.mesh.AddVertex(r.vertexList[vIndex])
			if nIndex == -1 {
				group.normals = append(group.normals, types.Vec3{})
				group.missingNormals++
			} else {
				group.normals = append(group.normals, r.normalList[nIndex])
			}
		}
		ids[arg] = meshIndex
	}

	for tri := 1; tri < len(ids)-1; tri++ {
		if err := group.mesh.AddFace(ids[0], ids[tri], ids[tri+1]); err != nil {
			return err
		}
	}
	return nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	scanner := bufio.NewScanner(res)

	var curMaterial *scene.Material = nil

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for 'newmtl'; expected 1 argument; got %d", len(lineTokens)-1)
			}

			matName := lineTokens[1]
			if _, exists := r.materials[matName]; exists {
				return r.emitError(res.Path(), lineNum, "material '%s' already defined", matName)
			}

			curMaterial = scene.NewMaterial(matName)
			r.materials[matName] = curMaterial
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, "got '%s' without a 'newmtl'", lineTokens[0])
			}

			var target *scene.MaterialParam
			switch lineTokens[0] {
			case "Kd", "map_Kd":
				target = &curMaterial.Kd
			case "Ka", "map_Ka":
				target = &curMaterial.Ka
			case "Ks", "map_Ks":
				target = &curMaterial.Ks
			case "Ke", "map_Ke":
				target = &curMaterial.Ke
			case "Kr", "map_Kr":
				target = &curMaterial.Kr
			case "Kt", "map_Kt":
				target = &curMaterial.Kt
			case "Ns", "map_Ns":
				target = &curMaterial.Shininess
			case "Ni", "map_Ni":
				target = &curMaterial.Index
			default:
				r.logger.Debugf("[%s: %d] ignoring unsupported material property '%s'", res.Path(), lineNum, lineTokens[0])
				continue
			}

			switch {
			case strings.HasPrefix(lineTokens[0], "map_"):
				if len(lineTokens) != 2 {
					return r.emitError(res.Path(), lineNum, "unsupported syntax for '%s'; expected 1 argument; got %d", lineTokens[0], len(lineTokens)-1)
				}
				tex, texErr := r.sc.Texture(lineTokens[1], res)
				if texErr != nil {
					return r.emitError(res.Path(), lineNum, "%s", texErr.Error())
				}
				*target = scene.Mapped(tex)
			case len(lineTokens) <= 2:
				var s float64
				s, err = parseFloat(lineTokens)
				*target = scene.Scalar(s)
			default:
				var v types.Vec3
				v, err = parseVec3(lineTokens)
				*target = scene.Constant(v)
			}

			// Report any errors
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	return scanner.Err()
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat(lineTokens []string) (float64, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf("unsupported syntax for '%s'; expected 1 argument; got %d", lineTokens[0], len(lineTokens)-1)
	}

	return strconv.ParseFloat(lineTokens[1], 64)
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 64)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = coord
	}
	return v, nil
}
