package material

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Checkerboard is a solid 3D checker pattern, independent of surface parameterization
type Checkerboard struct {
	Scale float64 // Size of one check in world units
	Even  core.Vec3
	Odd   core.Vec3
}

// NewCheckerboardTexture creates a procedural checkerboard color source
func NewCheckerboardTexture(scale float64, even, odd core.Vec3) *Checkerboard {
	if scale <= 0 {
		scale = 1
	}
	return &Checkerboard{Scale: scale, Even: even, Odd: odd}
}

// Evaluate picks a color from the cell that contains point
func (c *Checkerboard) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	inv := 1.0 / c.Scale
	sum := int(math.Floor(point.X*inv)) + int(math.Floor(point.Y*inv)) + int(math.Floor(point.Z*inv))
	if sum%2 == 0 {
		return c.Even
	}
	return c.Odd
}
