package scene

import (
	"math"

	"github.com/achilleasa/go-raytrace/asset/texture"
	"github.com/achilleasa/go-raytrace/types"
)

// A MaterialParam is either a constant value or a value sampled from a
// texture map using the surface parametric coordinates of a hit point.
type MaterialParam struct {
	value types.Vec3
	tex   *texture.Map
}

// Create a constant material parameter.
func Constant(v types.Vec3) MaterialParam {
	return MaterialParam{value: v}
}

// Create a constant scalar material parameter.
func Scalar(s float64) MaterialParam {
	return MaterialParam{value: types.XYZ(s, s, s)}
}

// Create a texture-mapped material parameter.
func Mapped(tex *texture.Map) MaterialParam {
	return MaterialParam{tex: tex}
}

// Returns true if the parameter is sampled from a texture.
func (p MaterialParam) IsMapped() bool {
	return p.tex != nil
}

// Evaluate the parameter at surface coordinate uv.
func (p MaterialParam) Value(uv types.Vec2) types.Vec3 {
	if p.tex != nil {
		return p.tex.MappedValue(uv)
	}
	return p.value
}

// Evaluate the parameter as a scalar using the luma of its value.
func (p MaterialParam) Intensity(uv types.Vec2) float64 {
	return p.Value(uv).Luminance()
}

// Returns true if the parameter evaluates to black everywhere. Texture-mapped
// parameters are never considered to be zero.
func (p MaterialParam) IsZero() bool {
	return p.tex == nil && p.value.IsZero()
}

// A Material describes the Phong reflectance of a surface together with its
// mirror reflectivity and transparency.
type Material struct {
	Name string

	// Emissive, ambient, specular and diffuse coefficients.
	Ke MaterialParam
	Ka MaterialParam
	Ks MaterialParam
	Kd MaterialParam

	// Reflective and transmissive coefficients.
	Kr MaterialParam
	Kt MaterialParam

	Shininess MaterialParam

	// Index of refraction.
	Index MaterialParam
}

// Create a black material with an index of refraction of 1.
func NewMaterial(name string) *Material {
	return &Material{
		Name:  name,
		Index: Scalar(1.0),
	}
}

// Blend the three vertex materials of a mesh face using the barycentric
// weights of a hit point. Texture-mapped parameters are sampled at uv so the
// blended material only contains constant parameters.
func Blend(mats [3]*Material, weights types.Vec3, uv types.Vec2) Material {
	blend := func(get func(*Material) MaterialParam) MaterialParam {
		var out types.Vec3
		for idx, mat := range mats {
			out = out.Add(get(mat).Value(uv).Mul(weights[idx]))
		}
		return Constant(out)
	}

	return Material{
		Name:      mats[0].Name,
		Ke:        blend(func(m *Material) MaterialParam { return m.Ke }),
		Ka:        blend(func(m *Material) MaterialParam { return m.Ka }),
		Ks:        blend(func(m *Material) MaterialParam { return m.Ks }),
		Kd:        blend(func(m *Material) MaterialParam { return m.Kd }),
		Kr:        blend(func(m *Material) MaterialParam { return m.Kr }),
		Kt:        blend(func(m *Material) MaterialParam { return m.Kt }),
		Shininess: blend(func(m *Material) MaterialParam { return m.Shininess }),
		Index:     blend(func(m *Material) MaterialParam { return m.Index }),
	}
}

// Evaluate the local illumination at the surface point described by i using
// the Phong model: emissive + ambient + the diffuse and specular contribution
// of each scene light. Light colors are scaled by their distance attenuation
// and, if shadows are enabled, filtered by their shadow attenuation.
func (m *Material) Shade(sc *Scene, r types.Ray, i *Isect) types.Vec3 {
	uv := i.UV
	p := r.At(i.T)

	color := m.Ke.Value(uv).Add(m.Ka.Value(uv).MulVec(sc.Ambient()))

	kd := m.Kd.Value(uv)
	ks := m.Ks.Value(uv)
	shininess := m.Shininess.Intensity(uv)
	view := r.Dir.Neg().Normalize()

	for _, light := range sc.Lights() {
		toLight := light.Direction(p)

		var lightColor types.Vec3
		if sc.Options().Shadows {
			lightColor = light.ShadowAttenuation(sc, r, p)
		} else {
			lightColor = light.Color()
		}
		lightColor = lightColor.Mul(light.DistanceAttenuation(p))
		if lightColor.IsZero() {
			continue
		}

		// Lights behind the surface contribute nothing
		nDotL := i.N.Dot(toLight)
		if nDotL <= 0 {
			continue
		}
		color = color.Add(kd.MulVec(lightColor).Mul(nDotL))

		// Mirror the light direction about the normal
		reflected := i.N.Mul(2 * nDotL).Sub(toLight)
		if rDotV := reflected.Dot(view); rDotV > 0 {
			color = color.Add(ks.MulVec(lightColor).Mul(math.Pow(rDotV, shininess)))
		}
	}

	return color
}
