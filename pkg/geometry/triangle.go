package geometry

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3
	normal     core.Vec3 // (V1-V0) × (V2-V0), normalized
	area       float64
	bbox       AABB
}

// NewTriangle creates a new triangle; the winding V0, V1, V2 decides the outward side
func NewTriangle(v0, v1, v2 core.Vec3) *Triangle {
	cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
	return &Triangle{
		V0:     v0,
		V1:     v1,
		V2:     v2,
		normal: cross.Normalize(),
		area:   0.5 * cross.Length(),
		bbox:   NewAABBFromPoints(v0, v1, v2).Expand(1e-4),
	}
}

// Hit tests if a ray intersects with the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	const epsilon = 1e-12

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the triangle's plane
	if math.Abs(a) < epsilon {
		return false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false
	}

	dist := f * edge2.Dot(q)
	if dist < tMin || dist > tMax {
		return false
	}

	isect.T = dist
	isect.Point = ray.At(dist)
	isect.UV = core.NewVec2(u, v)
	isect.SetFaceNormal(ray, t.normal)
	return true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() AABB {
	return t.bbox
}

// Normal returns the unit normal on the counter-clockwise side
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Area returns the triangle's surface area
func (t *Triangle) Area() float64 {
	return t.area
}

// SampleArea samples a point uniformly on the triangle
func (t *Triangle) SampleArea(u core.Vec2) (core.Vec3, core.Vec3) {
	su := math.Sqrt(u.X)
	b0 := 1 - su
	b1 := u.Y * su
	point := t.V0.Multiply(b0).Add(t.V1.Multiply(b1)).Add(t.V2.Multiply(1 - b0 - b1))
	return point, t.normal
}
