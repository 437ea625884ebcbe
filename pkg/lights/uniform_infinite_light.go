package lights

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// UniformInfiniteLight surrounds the scene with constant radiance
type UniformInfiniteLight struct {
	emission    core.Vec3
	worldCenter core.Vec3
	worldRadius float64
}

// NewUniformInfiniteLight creates a new uniform infinite light
func NewUniformInfiniteLight(emission core.Vec3) *UniformInfiniteLight {
	return &UniformInfiniteLight{emission: emission}
}

// Type implements Light
func (uil *UniformInfiniteLight) Type() LightType {
	return LightTypeInfinite
}

// Eval implements Light; every escaping ray sees the same radiance
func (uil *UniformInfiniteLight) Eval(ray core.Ray) core.Vec3 {
	return uil.emission
}

// Sample implements Light with cosine-weighted directions over the shading hemisphere
func (uil *UniformInfiniteLight) Sample(isect *core.IntersectionInfo, u core.Vec2) LightSample {
	wi, pdf := sampleHemisphereDirection(isect.Normal, u)
	point := distantPoint(isect.Point, wi, uil.worldCenter, uil.worldRadius)
	return NewLightSample(wi, point, uil.emission, pdf, LightTypeInfinite)
}

// PDF implements Light
func (uil *UniformInfiniteLight) PDF(isect *core.IntersectionInfo, wi core.Vec3) float64 {
	return hemisphereDirectionPDF(isect.Normal, wi)
}

// Power implements Light
func (uil *UniformInfiniteLight) Power() core.Vec3 {
	return uil.emission.Multiply(math.Pi * uil.worldRadius * uil.worldRadius)
}

// Preprocess implements geometry.Preprocessor - sets world bounds from scene
func (uil *UniformInfiniteLight) Preprocess(worldCenter core.Vec3, worldRadius float64) error {
	uil.worldCenter = worldCenter
	uil.worldRadius = worldRadius
	return nil
}

// sampleHemisphereDirection draws a cosine-weighted world-space direction around normal
func sampleHemisphereDirection(normal core.Vec3, u core.Vec2) (core.Vec3, float64) {
	local := core.SampleCosineHemisphereLocal(u)
	// The shading transform is orthonormal, so its transpose maps local to world
	wi := core.CreateBsdfCoordTransform(normal).Transpose().ApplyVector(local)
	return wi, core.CosineHemispherePDF(local.Z)
}

// hemisphereDirectionPDF is the density of sampleHemisphereDirection
func hemisphereDirectionPDF(normal, wi core.Vec3) float64 {
	cosTheta := normal.Dot(wi)
	if cosTheta <= 0 {
		return 0
	}
	return core.CosineHemispherePDF(cosTheta)
}
