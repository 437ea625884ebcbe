package geometry

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Primitive binds a shape to its surface response and, if emissive, its area light.
// Either reference may be nil: a light proxy has no material, a plain surface no light.
type Primitive struct {
	Shape     Shape
	Material  core.Material
	AreaLight core.AreaEmitter
}

// NewPrimitive creates a primitive with the given material
func NewPrimitive(shape Shape, material core.Material) *Primitive {
	return &Primitive{Shape: shape, Material: material}
}

// Hit implements Shape and attaches the primitive's material and light to the hit
func (p *Primitive) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	if !p.Shape.Hit(ray, tMin, tMax, isect) {
		return false
	}
	isect.Material = p.Material
	isect.AreaLight = p.AreaLight
	return true
}

// BoundingBox implements Shape
func (p *Primitive) BoundingBox() AABB {
	return p.Shape.BoundingBox()
}
