package lights

import (
	"fmt"
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// SpotLight is a point light that only emits inside a cone around Direction.
// Intensity fades with a quartic curve between the falloff start and the cone edge.
type SpotLight struct {
	Position        core.Vec3
	Direction       core.Vec3 // Unit cone axis, pointing away from the light
	Intensity       core.Vec3
	cosTotalWidth   float64 // Cosine of the cone half-angle
	cosFalloffStart float64 // Cosine of the angle where the falloff begins
}

// NewSpotLight creates a spot light at from aimed at to.
// coneAngleDegrees is the cone half-angle; the falloff covers its outer coneDeltaAngleDegrees.
func NewSpotLight(from, to, intensity core.Vec3, coneAngleDegrees, coneDeltaAngleDegrees float64) *SpotLight {
	axis := to.Subtract(from)
	if axis.LengthSquared() == 0 {
		panic(fmt.Sprintf("lights: spot light at %v has no direction", from))
	}
	return &SpotLight{
		Position:        from,
		Direction:       axis.Normalize(),
		Intensity:       intensity,
		cosTotalWidth:   math.Cos(coneAngleDegrees * math.Pi / 180),
		cosFalloffStart: math.Cos((coneAngleDegrees - coneDeltaAngleDegrees) * math.Pi / 180),
	}
}

// Type implements Light
func (sl *SpotLight) Type() LightType {
	return LightTypeDeltaPoint
}

// Eval implements Light; a point cannot be hit by a ray
func (sl *SpotLight) Eval(ray core.Ray) core.Vec3 {
	return core.Vec3{}
}

// Sample implements Light with inverse-square falloff attenuated by the cone
func (sl *SpotLight) Sample(isect *core.IntersectionInfo, u core.Vec2) LightSample {
	toLight := sl.Position.Subtract(isect.Point)
	distSq := toLight.LengthSquared()
	if distSq == 0 {
		return NewLightSample(core.Vec3{}, sl.Position, core.Vec3{}, 1, LightTypeDeltaPoint)
	}
	wi := toLight.Multiply(1.0 / math.Sqrt(distSq))
	attenuation := sl.Falloff(sl.Direction.Dot(wi.Negate()))
	return NewLightSample(wi, sl.Position, sl.Intensity.Multiply(attenuation/distSq), 1, LightTypeDeltaPoint)
}

// PDF implements Light
func (sl *SpotLight) PDF(isect *core.IntersectionInfo, wi core.Vec3) float64 {
	return 0
}

// Power implements Light, approximating the falloff band by its midpoint
func (sl *SpotLight) Power() core.Vec3 {
	return sl.Intensity.Multiply(2 * math.Pi * (1 - 0.5*(sl.cosFalloffStart+sl.cosTotalWidth)))
}

// Falloff returns the cone attenuation for a direction at angle acos(cosAngle) from the axis
func (sl *SpotLight) Falloff(cosAngle float64) float64 {
	if cosAngle < sl.cosTotalWidth {
		return 0
	}
	if cosAngle >= sl.cosFalloffStart {
		return 1
	}
	delta := (cosAngle - sl.cosTotalWidth) / (sl.cosFalloffStart - sl.cosTotalWidth)
	return delta * delta * delta * delta
}
