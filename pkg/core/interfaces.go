package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// IntersectionInfo describes the closest surface hit by a ray.
// Material and AreaLight are borrowed from scene-owned primitives and may be nil.
// The record is only meaningful for the bounce that produced it.
type IntersectionInfo struct {
	Point           Vec3    // Point of intersection
	Normal          Vec3    // Shading normal, facing the incoming ray
	GeometricNormal Vec3    // Outward geometric normal of the surface
	T               float64 // Parameter t along the ray
	FrontFace       bool    // Whether ray hit the front face
	UV              Vec2    // Surface parameterization at the hit
	Material        Material
	AreaLight       AreaEmitter
}

// SetFaceNormal sets the normal vector and determines front/back face
func (isect *IntersectionInfo) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	isect.GeometricNormal = outwardNormal
	isect.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if isect.FrontFace {
		isect.Normal = outwardNormal
	} else {
		isect.Normal = outwardNormal.Negate()
	}
}

// AreaEmitter is the part of a light that can be struck directly by a ray
type AreaEmitter interface {
	Eval(ray Ray) Vec3
}

// Material produces the scattering function at a surface point
type Material interface {
	// ComputeBsdf returns a BSDF allocated from ws, or nil if the surface does not scatter
	ComputeBsdf(ws *Workspace, isect *IntersectionInfo) Bsdf
}

// BsdfType is a set of scattering capability flags
type BsdfType uint8

const (
	BsdfReflection BsdfType = 1 << iota
	BsdfTransmission
	BsdfDiffuse
	BsdfGlossy
	BsdfSpecular
)

// Contains reports whether every flag in flags is set
func (t BsdfType) Contains(flags BsdfType) bool {
	return t&flags == flags
}

// Bsdf evaluates and samples scattering in the local shading frame, where the normal is +Z.
// wo points away from the surface toward the viewer; wi points away toward the light.
type Bsdf interface {
	Type() BsdfType

	// SampleAndEval draws wi for the given wo. A zero pdf means no usable sample.
	// Specular BSDFs return f already divided by |cos θi| and a pdf of 1.
	SampleAndEval(u Vec2, wo Vec3) (f Vec3, wi Vec3, pdf float64)

	// Eval returns the BSDF value for a pair of directions (zero for specular lobes)
	Eval(wo, wi Vec3) Vec3

	// Pdf returns the solid-angle density SampleAndEval would assign to wi (zero for specular lobes)
	Pdf(wo, wi Vec3) float64
}
