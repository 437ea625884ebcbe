package geometry

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Shape interface for objects that can be hit by rays
type Shape interface {
	// Hit fills isect with the closest hit in [tMin, tMax] and reports whether one exists
	Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool
	BoundingBox() AABB
}

// AreaSampler is implemented by shapes that can back an area light
type AreaSampler interface {
	Area() float64

	// SampleArea returns a point distributed uniformly over the surface and its outward normal
	SampleArea(u core.Vec2) (point, normal core.Vec3)
}

// Preprocessor interface for objects that need scene preprocessing
type Preprocessor interface {
	Preprocess(worldCenter core.Vec3, worldRadius float64) error
}
