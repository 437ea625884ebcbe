package material

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo ColorSource // Base color/reflectance (can be solid or textured)
}

// NewLambertian creates a new lambertian material with solid color
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: NewSolidColor(albedo)}
}

// NewTexturedLambertian creates a new lambertian material with texture
func NewTexturedLambertian(albedoTexture ColorSource) *Lambertian {
	return &Lambertian{Albedo: albedoTexture}
}

// ComputeBsdf implements core.Material
func (l *Lambertian) ComputeBsdf(ws *core.Workspace, isect *core.IntersectionInfo) core.Bsdf {
	bsdf := core.Alloc[LambertianBsdf](ws)
	bsdf.Albedo = l.Albedo.Evaluate(isect.UV, isect.Point)
	return bsdf
}

// LambertianBsdf scatters uniformly over the hemisphere: f = albedo / π
type LambertianBsdf struct {
	Albedo core.Vec3
}

// Type implements core.Bsdf
func (b *LambertianBsdf) Type() core.BsdfType {
	return core.BsdfReflection | core.BsdfDiffuse
}

// SampleAndEval draws a cosine-weighted direction on the side of wo
func (b *LambertianBsdf) SampleAndEval(u core.Vec2, wo core.Vec3) (core.Vec3, core.Vec3, float64) {
	if wo.Z == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	wi := core.SampleCosineHemisphereLocal(u)
	if wo.Z < 0 {
		wi.Z = -wi.Z
	}
	pdf := core.CosineHemispherePDF(core.AbsCosTheta(wi))
	if pdf == 0 {
		return core.Vec3{}, wi, 0
	}
	return b.Albedo.Multiply(1.0 / math.Pi), wi, pdf
}

// Eval implements core.Bsdf
func (b *LambertianBsdf) Eval(wo, wi core.Vec3) core.Vec3 {
	if !core.SameHemisphere(wo, wi) {
		return core.Vec3{}
	}
	return b.Albedo.Multiply(1.0 / math.Pi)
}

// Pdf implements core.Bsdf
func (b *LambertianBsdf) Pdf(wo, wi core.Vec3) float64 {
	if !core.SameHemisphere(wo, wi) {
		return 0
	}
	return core.CosineHemispherePDF(core.AbsCosTheta(wi))
}
