package scene

import (
	"math"

	"github.com/achilleasa/go-raytrace/types"
)

// Shadow rays pass through at most this many translucent occluders.
const maxShadowOccluders = 16

// The Light interface is implemented by all scene light sources.
type Light interface {
	// Get the unit direction from point p towards the light.
	Direction(p types.Vec3) types.Vec3

	// Get the un-occluded light color.
	Color() types.Vec3

	// Get the attenuation factor for the light reaching point p.
	DistanceAttenuation(p types.Vec3) float64

	// Get the light color reaching point p after passing any occluders
	// between p and the light.
	ShadowAttenuation(sc *Scene, r types.Ray, p types.Vec3) types.Vec3
}

// A light source at infinite distance.
type DirectionalLight struct {
	color       types.Vec3
	orientation types.Vec3
}

// Create a directional light emitting along orientation.
func NewDirectionalLight(color, orientation types.Vec3) *DirectionalLight {
	return &DirectionalLight{
		color:       color,
		orientation: orientation.Normalize(),
	}
}

func (l *DirectionalLight) Direction(_ types.Vec3) types.Vec3 {
	return l.orientation.Neg()
}

func (l *DirectionalLight) Color() types.Vec3 {
	return l.color
}

func (l *DirectionalLight) DistanceAttenuation(_ types.Vec3) float64 {
	return 1.0
}

// Any occluder along the light direction blocks the light.
func (l *DirectionalLight) ShadowAttenuation(sc *Scene, _ types.Ray, p types.Vec3) types.Vec3 {
	var i Isect
	if sc.Intersect(types.NewRay(p, l.Direction(p), types.Shadow), &i) {
		return types.Vec3{}
	}
	return l.color
}

// Light attenuation coefficients: 1 / (constant + linear * d + quadratic * d^2)
type Attenuation struct {
	Constant  float64
	Linear    float64
	Quadratic float64
}

// A light source emitting uniformly from a point.
type PointLight struct {
	color    types.Vec3
	position types.Vec3
	atten    Attenuation
}

// Create a point light.
func NewPointLight(color, position types.Vec3, atten Attenuation) *PointLight {
	return &PointLight{
		color:    color,
		position: position,
		atten:    atten,
	}
}

func (l *PointLight) Direction(p types.Vec3) types.Vec3 {
	return l.position.Sub(p).Normalize()
}

func (l *PointLight) Color() types.Vec3 {
	return l.color
}

func (l *PointLight) DistanceAttenuation(p types.Vec3) float64 {
	d2 := l.position.Sub(p).Len2()
	denom := l.atten.Constant + l.atten.Linear*math.Sqrt(d2) + l.atten.Quadratic*d2
	if denom <= 1.0 {
		return 1.0
	}
	return 1.0 / denom
}

func (l *PointLight) ShadowAttenuation(sc *Scene, _ types.Ray, p types.Vec3) types.Vec3 {
	return translucentShadow(sc, l.color, p, l.position)
}

// A point light whose emission is restricted to a cone.
type SpotLight struct {
	PointLight

	direction types.Vec3

	// Cosine of the cone half-angle.
	cosCutoff float64

	falloff float64
}

// Create a spot light pointing along direction. The cone half-angle is
// specified in radians.
func NewSpotLight(color, position, direction types.Vec3, atten Attenuation, halfAngle, falloff float64) *SpotLight {
	return &SpotLight{
		PointLight: PointLight{
			color:    color,
			position: position,
			atten:    atten,
		},
		direction: direction.Normalize(),
		cosCutoff: math.Cos(halfAngle),
		falloff:   falloff,
	}
}

// The distance attenuation of a spot light also includes its angular
// falloff: zero outside the cone and (cos theta)^falloff inside it.
func (l *SpotLight) DistanceAttenuation(p types.Vec3) float64 {
	cosTheta := p.Sub(l.position).Normalize().Dot(l.direction)
	if cosTheta < l.cosCutoff {
		return 0
	}
	return l.PointLight.DistanceAttenuation(p) * math.Pow(cosTheta, l.falloff)
}

// Trace a shadow ray from p to the light position. Occluders closer than the
// light filter its color by their transmissive coefficient.
func translucentShadow(sc *Scene, color, p, lightPos types.Vec3) types.Vec3 {
	toLight := lightPos.Sub(p)
	remaining := toLight.Len()
	dir := toLight.Normalize()

	origin := p
	for hop := 0; hop < maxShadowOccluders; hop++ {
		var i Isect
		r := types.NewRay(origin, dir, types.Shadow)
		if !sc.Intersect(r, &i) || i.T >= remaining {
			return color
		}

		color = color.MulVec(i.Material.Kt.Value(i.UV))
		if color.IsZero() {
			return color
		}

		origin = r.At(i.T)
		remaining -= i.T
	}

	return color
}
