package material

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Mirror is a perfectly specular reflector tinted by Albedo
type Mirror struct {
	Albedo core.Vec3
}

// NewMirror creates a new mirror material
func NewMirror(albedo core.Vec3) *Mirror {
	return &Mirror{Albedo: albedo}
}

// ComputeBsdf implements core.Material
func (m *Mirror) ComputeBsdf(ws *core.Workspace, isect *core.IntersectionInfo) core.Bsdf {
	bsdf := core.Alloc[SpecularReflectionBsdf](ws)
	bsdf.R = m.Albedo
	return bsdf
}

// SpecularReflectionBsdf reflects every incoming direction about the normal
type SpecularReflectionBsdf struct {
	R core.Vec3
}

// Type implements core.Bsdf
func (b *SpecularReflectionBsdf) Type() core.BsdfType {
	return core.BsdfReflection | core.BsdfSpecular
}

// SampleAndEval returns the mirror direction with a unit discrete probability
func (b *SpecularReflectionBsdf) SampleAndEval(u core.Vec2, wo core.Vec3) (core.Vec3, core.Vec3, float64) {
	wi := core.NewVec3(-wo.X, -wo.Y, wo.Z)
	cos := core.AbsCosTheta(wi)
	if cos == 0 {
		return core.Vec3{}, wi, 0
	}
	return b.R.Multiply(1.0 / cos), wi, 1
}

// Eval is zero: a delta lobe is never hit by an independently chosen direction
func (b *SpecularReflectionBsdf) Eval(wo, wi core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// Pdf is zero for the same reason as Eval
func (b *SpecularReflectionBsdf) Pdf(wo, wi core.Vec3) float64 {
	return 0
}
