package lights

import (
	"fmt"
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
)

// AreaLight emits constant radiance from the surface of a primitive.
// The primitive is owned by the scene; the light only references it.
type AreaLight struct {
	Emission  core.Vec3
	TwoSided  bool
	primitive *geometry.Primitive
	sampler   geometry.AreaSampler
}

// NewAreaLight binds a light to primitive and registers it as the primitive's emitter.
// The primitive's shape must support area sampling.
func NewAreaLight(primitive *geometry.Primitive, emission core.Vec3, twoSided bool) *AreaLight {
	sampler, ok := primitive.Shape.(geometry.AreaSampler)
	if !ok {
		panic(fmt.Sprintf("lights: shape %T cannot back an area light", primitive.Shape))
	}
	light := &AreaLight{
		Emission:  emission,
		TwoSided:  twoSided,
		primitive: primitive,
		sampler:   sampler,
	}
	primitive.AreaLight = light
	return light
}

// GetPrimitive returns the primitive this light is bound to
func (al *AreaLight) GetPrimitive() *geometry.Primitive {
	return al.primitive
}

// Type implements Light
func (al *AreaLight) Type() LightType {
	return LightTypeArea
}

// Eval implements Light and core.AreaEmitter.
// The ray must start off the surface; only the face it strikes first decides whether it sees emission.
func (al *AreaLight) Eval(ray core.Ray) core.Vec3 {
	var isect core.IntersectionInfo
	if !al.primitive.Shape.Hit(ray, core.RayEpsilon, math.Inf(1), &isect) {
		return core.Vec3{}
	}
	return al.emitted(isect.FrontFace)
}

func (al *AreaLight) emitted(frontFace bool) core.Vec3 {
	if frontFace || al.TwoSided {
		return al.Emission
	}
	return core.Vec3{}
}

// Sample implements Light by choosing a point uniformly by area
func (al *AreaLight) Sample(isect *core.IntersectionInfo, u core.Vec2) LightSample {
	point, normal := al.sampler.SampleArea(u)
	toLight := point.Subtract(isect.Point)
	distSq := toLight.LengthSquared()
	if distSq == 0 {
		return NewLightSample(core.Vec3{}, point, core.Vec3{}, 0, LightTypeArea)
	}
	wi := toLight.Multiply(1.0 / math.Sqrt(distSq))

	// Cosine at the light between its normal and the direction back to the shading point
	cosLight := -normal.Dot(wi)
	pdf := al.solidAnglePDF(distSq, cosLight)
	return NewLightSample(wi, point, al.emitted(cosLight > 0), pdf, LightTypeArea)
}

// PDF implements Light by locating where wi meets the light
func (al *AreaLight) PDF(isect *core.IntersectionInfo, wi core.Vec3) float64 {
	ray := core.NewRay(isect.Point, wi)
	var hit core.IntersectionInfo
	if !al.primitive.Shape.Hit(ray, core.RayEpsilon, math.Inf(1), &hit) {
		return 0
	}
	distSq := hit.Point.Subtract(isect.Point).LengthSquared()
	return al.solidAnglePDF(distSq, -hit.GeometricNormal.Dot(wi))
}

// solidAnglePDF converts the uniform area density 1/A to solid angle at the shading point
func (al *AreaLight) solidAnglePDF(distSq, cosLight float64) float64 {
	cosLight = math.Abs(cosLight)
	area := al.sampler.Area()
	if cosLight == 0 || area == 0 {
		return 0
	}
	return distSq / (cosLight * area)
}

// Power implements Light
func (al *AreaLight) Power() core.Vec3 {
	power := al.Emission.Multiply(al.sampler.Area() * math.Pi)
	if al.TwoSided {
		power = power.Multiply(2)
	}
	return power
}
