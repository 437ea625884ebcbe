package lights

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// PointLight emits Intensity uniformly in all directions from Position
type PointLight struct {
	Position  core.Vec3
	Intensity core.Vec3
}

// NewPointLight creates a new point light
func NewPointLight(position, intensity core.Vec3) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

// Type implements Light
func (pl *PointLight) Type() LightType {
	return LightTypeDeltaPoint
}

// Eval implements Light; a point cannot be hit by a ray
func (pl *PointLight) Eval(ray core.Ray) core.Vec3 {
	return core.Vec3{}
}

// Sample implements Light with inverse-square falloff
func (pl *PointLight) Sample(isect *core.IntersectionInfo, u core.Vec2) LightSample {
	toLight := pl.Position.Subtract(isect.Point)
	distSq := toLight.LengthSquared()
	if distSq == 0 {
		return NewLightSample(core.Vec3{}, pl.Position, core.Vec3{}, 1, LightTypeDeltaPoint)
	}
	wi := toLight.Multiply(1.0 / math.Sqrt(distSq))
	return NewLightSample(wi, pl.Position, pl.Intensity.Multiply(1.0/distSq), 1, LightTypeDeltaPoint)
}

// PDF implements Light
func (pl *PointLight) PDF(isect *core.IntersectionInfo, wi core.Vec3) float64 {
	return 0
}

// Power implements Light
func (pl *PointLight) Power() core.Vec3 {
	return pl.Intensity.Multiply(4 * math.Pi)
}
