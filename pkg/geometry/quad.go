package geometry

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Quad represents a parallelogram defined by a corner and two edge vectors
type Quad struct {
	Corner core.Vec3 // One corner of the quad
	U      core.Vec3 // First edge vector
	V      core.Vec3 // Second edge vector
	Normal core.Vec3 // Unit normal (U × V)
	D      float64   // Plane equation constant: normal · p = D
	W      core.Vec3 // Cached n / (n · (U × V)) for planar coordinates
	area   float64
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()
	return &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		Normal: normal,
		D:      normal.Dot(corner),
		W:      cross.Multiply(1.0 / cross.Dot(cross)),
		area:   cross.Length(),
	}
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	denominator := ray.Direction.Dot(q.Normal)

	// Parallel to the plane
	if math.Abs(denominator) < 1e-12 {
		return false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return false
	}

	hitPoint := ray.At(t)
	planar := hitPoint.Subtract(q.Corner)
	alpha := q.W.Dot(planar.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(planar))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return false
	}

	isect.T = t
	isect.Point = hitPoint
	isect.UV = core.NewVec2(alpha, beta)
	isect.SetFaceNormal(ray, q.Normal)
	return true
}

// BoundingBox returns the bounding box, padded so axis-aligned quads are not flat
func (q *Quad) BoundingBox() AABB {
	box := NewAABBFromPoints(
		q.Corner,
		q.Corner.Add(q.U),
		q.Corner.Add(q.V),
		q.Corner.Add(q.U).Add(q.V),
	)
	return box.Expand(1e-4)
}

// Area returns |U × V|
func (q *Quad) Area() float64 {
	return q.area
}

// SampleArea samples a point uniformly on the quad
func (q *Quad) SampleArea(u core.Vec2) (core.Vec3, core.Vec3) {
	return q.Corner.Add(q.U.Multiply(u.X)).Add(q.V.Multiply(u.Y)), q.Normal
}
