package lights

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// GradientInfiniteLight is a sky that blends from BottomColor (straight down) to TopColor (straight up)
type GradientInfiniteLight struct {
	TopColor    core.Vec3
	BottomColor core.Vec3
	worldCenter core.Vec3
	worldRadius float64
}

// NewGradientInfiniteLight creates a new gradient infinite light
func NewGradientInfiniteLight(topColor, bottomColor core.Vec3) *GradientInfiniteLight {
	return &GradientInfiniteLight{TopColor: topColor, BottomColor: bottomColor}
}

// Type implements Light
func (gil *GradientInfiniteLight) Type() LightType {
	return LightTypeInfinite
}

// emissionForDirection maps the Y component from [-1,1] to a blend factor in [0,1]
func (gil *GradientInfiniteLight) emissionForDirection(direction core.Vec3) core.Vec3 {
	t := 0.5 * (direction.Normalize().Y + 1.0)
	return gil.BottomColor.Lerp(gil.TopColor, t)
}

// Eval implements Light
func (gil *GradientInfiniteLight) Eval(ray core.Ray) core.Vec3 {
	return gil.emissionForDirection(ray.Direction)
}

// Sample implements Light with cosine-weighted directions over the shading hemisphere
func (gil *GradientInfiniteLight) Sample(isect *core.IntersectionInfo, u core.Vec2) LightSample {
	wi, pdf := sampleHemisphereDirection(isect.Normal, u)
	point := distantPoint(isect.Point, wi, gil.worldCenter, gil.worldRadius)
	return NewLightSample(wi, point, gil.emissionForDirection(wi), pdf, LightTypeInfinite)
}

// PDF implements Light
func (gil *GradientInfiniteLight) PDF(isect *core.IntersectionInfo, wi core.Vec3) float64 {
	return hemisphereDirectionPDF(isect.Normal, wi)
}

// Power implements Light; Y is uniform over the sphere so the average radiance is the midpoint
func (gil *GradientInfiniteLight) Power() core.Vec3 {
	average := gil.BottomColor.Lerp(gil.TopColor, 0.5)
	return average.Multiply(math.Pi * gil.worldRadius * gil.worldRadius)
}

// Preprocess implements geometry.Preprocessor - sets world bounds from scene
func (gil *GradientInfiniteLight) Preprocess(worldCenter core.Vec3, worldRadius float64) error {
	gil.worldCenter = worldCenter
	gil.worldRadius = worldRadius
	return nil
}
