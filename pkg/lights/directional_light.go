package lights

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// DirectionalLight models a source infinitely far away, such as the sun.
// Direction is the direction light travels.
type DirectionalLight struct {
	Direction   core.Vec3
	Radiance    core.Vec3
	worldCenter core.Vec3
	worldRadius float64
}

// NewDirectionalLight creates a new directional light
func NewDirectionalLight(direction, radiance core.Vec3) *DirectionalLight {
	return &DirectionalLight{Direction: direction.Normalize(), Radiance: radiance}
}

// Type implements Light
func (dl *DirectionalLight) Type() LightType {
	return LightTypeDeltaDirection
}

// Eval implements Light; no ray can travel exactly along the light's direction by chance
func (dl *DirectionalLight) Eval(ray core.Ray) core.Vec3 {
	return core.Vec3{}
}

// Sample implements Light. The light point is placed beyond the scene bounds so shadow rays cover the whole scene.
func (dl *DirectionalLight) Sample(isect *core.IntersectionInfo, u core.Vec2) LightSample {
	wi := dl.Direction.Negate()
	point := distantPoint(isect.Point, wi, dl.worldCenter, dl.worldRadius)
	return NewLightSample(wi, point, dl.Radiance, 1, LightTypeDeltaDirection)
}

// PDF implements Light
func (dl *DirectionalLight) PDF(isect *core.IntersectionInfo, wi core.Vec3) float64 {
	return 0
}

// Power implements Light as the flux through a disc covering the scene
func (dl *DirectionalLight) Power() core.Vec3 {
	return dl.Radiance.Multiply(math.Pi * dl.worldRadius * dl.worldRadius)
}

// Preprocess implements geometry.Preprocessor
func (dl *DirectionalLight) Preprocess(worldCenter core.Vec3, worldRadius float64) error {
	dl.worldCenter = worldCenter
	dl.worldRadius = worldRadius
	return nil
}

// unboundedDistance stands in for the scene size before Preprocess has run
const unboundedDistance = 1e10

// distantPoint returns a point along wi from p that lies outside the scene's bounding sphere
func distantPoint(p, wi, worldCenter core.Vec3, worldRadius float64) core.Vec3 {
	if worldRadius <= 0 {
		return p.Add(wi.Multiply(unboundedDistance))
	}
	distance := 2*worldRadius + p.Subtract(worldCenter).Length()
	return p.Add(wi.Multiply(distance))
}
