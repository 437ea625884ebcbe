package material

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractiveIndex float64 // Index of refraction (e.g., 1.5 for glass)
}

// NewDielectric creates a new dielectric material
func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex}
}

// ComputeBsdf implements core.Material
func (d *Dielectric) ComputeBsdf(ws *core.Workspace, isect *core.IntersectionInfo) core.Bsdf {
	bsdf := core.Alloc[FresnelSpecularBsdf](ws)
	if isect.FrontFace {
		bsdf.EtaRatio = 1.0 / d.RefractiveIndex // entering the material
	} else {
		bsdf.EtaRatio = d.RefractiveIndex // leaving the material
	}
	return bsdf
}

// FresnelSpecularBsdf picks between mirror reflection and refraction in proportion to Fresnel reflectance.
// EtaRatio is the incident over transmitted index of refraction.
type FresnelSpecularBsdf struct {
	EtaRatio float64
}

// Type implements core.Bsdf
func (b *FresnelSpecularBsdf) Type() core.BsdfType {
	return core.BsdfReflection | core.BsdfTransmission | core.BsdfSpecular
}

// SampleAndEval chooses reflection with probability F and refraction with probability 1-F.
// The throughput update f·|cos|/pdf is exactly 1 in both branches.
func (b *FresnelSpecularBsdf) SampleAndEval(u core.Vec2, wo core.Vec3) (core.Vec3, core.Vec3, float64) {
	cosTheta := math.Min(math.Abs(wo.Z), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	// Total internal reflection counts as F = 1
	reflectance := 1.0
	if b.EtaRatio*sinTheta <= 1.0 {
		reflectance = Reflectance(cosTheta, b.EtaRatio)
	}

	var wi core.Vec3
	var pdf float64
	if u.X < reflectance {
		wi = core.NewVec3(-wo.X, -wo.Y, wo.Z)
		pdf = reflectance
	} else {
		normal := core.NewVec3(0, 0, math.Copysign(1, wo.Z))
		wi = refractVector(wo.Negate(), normal, b.EtaRatio)
		pdf = 1 - reflectance
	}

	cos := core.AbsCosTheta(wi)
	if cos == 0 || pdf == 0 {
		return core.Vec3{}, wi, 0
	}
	return core.NewSpectrum(pdf / cos), wi, pdf
}

// Eval implements core.Bsdf; delta lobes evaluate to zero
func (b *FresnelSpecularBsdf) Eval(wo, wi core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// Pdf implements core.Bsdf; delta lobes have zero density
func (b *FresnelSpecularBsdf) Pdf(wo, wi core.Vec3) float64 {
	return 0
}

// refractVector calculates the refraction of a unit vector using Snell's law
func refractVector(uv, n core.Vec3, etaiOverEtat float64) core.Vec3 {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}

// Reflectance calculates the Fresnel reflectance using Schlick's approximation
func Reflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
