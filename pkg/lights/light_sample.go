package lights

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// LightSample is the result of sampling a light from a shading point.
// It is an immutable value; wi points from the shading point toward the light.
type LightSample struct {
	wi        core.Vec3
	point     core.Vec3
	radiance  core.Vec3
	pdf       float64
	lightType LightType
}

// NewLightSample creates a new light sample
func NewLightSample(wi, point, radiance core.Vec3, pdf float64, lightType LightType) LightSample {
	return LightSample{wi: wi, point: point, radiance: radiance, pdf: pdf, lightType: lightType}
}

// IncidentDirection returns the unit direction from the shading point toward the light
func (s LightSample) IncidentDirection() core.Vec3 { return s.wi }

// Point returns the sampled point on the light
func (s LightSample) Point() core.Vec3 { return s.point }

// Radiance returns the radiance arriving at the shading point along wi, ignoring occlusion
func (s LightSample) Radiance() core.Vec3 { return s.radiance }

// Pdf returns the sampling density (solid angle, or 1 for delta lights)
func (s LightSample) Pdf() float64 { return s.pdf }

// Type returns the type of the light that produced the sample
func (s LightSample) Type() LightType { return s.lightType }

// TestIllumination reports whether the sample can contribute at all
func (s LightSample) TestIllumination() bool {
	return s.pdf != 0 && !s.radiance.IsBlack()
}

// GenerateTestRay returns the ray from the light point toward p
func (s LightSample) GenerateTestRay(p core.Vec3) core.Ray {
	return core.RayFromTo(s.point, p)
}

// GenerateShadowRay returns the ray from p toward the light point
func (s LightSample) GenerateShadowRay(p core.Vec3) core.Ray {
	return core.RayFromTo(p, s.point)
}

// TestVisibility reports whether the segment between the shading point and the light point is unblocked
func (s LightSample) TestVisibility(occluder Occluder, isect *core.IntersectionInfo, ws *core.Workspace) bool {
	ray := s.GenerateShadowRay(isect.Point)
	distance := s.point.Subtract(isect.Point).Length()
	return !occluder.Occluded(ray, distance, ws)
}
