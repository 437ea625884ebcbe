package lights

import "github.com/usami-ray/go-pathtracer/pkg/core"

// LightType classifies how a light can be reached by sampling
type LightType int

const (
	LightTypeDeltaPoint     LightType = iota // all light leaves a single point
	LightTypeDeltaDirection                  // all light arrives from a single direction
	LightTypeInfinite                        // surrounds the scene; hit by escaping rays
	LightTypeArea                            // bound to emissive geometry
)

// IsDelta reports whether the light can only be reached by explicit sampling
func (t LightType) IsDelta() bool {
	return t == LightTypeDeltaPoint || t == LightTypeDeltaDirection
}

func (t LightType) String() string {
	switch t {
	case LightTypeDeltaPoint:
		return "point"
	case LightTypeDeltaDirection:
		return "directional"
	case LightTypeInfinite:
		return "infinite"
	case LightTypeArea:
		return "area"
	}
	return "unknown"
}

// Light is a source of radiance that can be evaluated and sampled for direct lighting
type Light interface {
	Type() LightType

	// Eval returns the radiance carried back along ray when it strikes the light directly.
	// Delta lights always return zero.
	Eval(ray core.Ray) core.Vec3

	// Sample picks a point on the light as seen from isect. The result is deterministic in (isect, u).
	// Non-delta lights report a solid-angle pdf; delta lights report 1.
	Sample(isect *core.IntersectionInfo, u core.Vec2) LightSample

	// PDF returns the solid-angle density with which Sample would produce the direction wi from isect.
	// Delta lights return zero.
	PDF(isect *core.IntersectionInfo, wi core.Vec3) float64

	// Power returns the total emitted flux
	Power() core.Vec3
}

// Occluder answers shadow-ray queries
type Occluder interface {
	// Occluded reports whether anything blocks ray within (RayEpsilon, tMax - RayEpsilon)
	Occluded(ray core.Ray, tMax float64, ws *core.Workspace) bool
}

// LightSampler chooses one light per shading point
type LightSampler interface {
	// SampleLight selects a light and returns it with its selection probability and index.
	// With no lights it returns (nil, 0, -1).
	SampleLight(u float64) (Light, float64, int)

	// Probability returns the selection probability of the light at index
	Probability(index int) float64

	// Count returns the number of lights in this sampler
	Count() int
}
