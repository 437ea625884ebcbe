package geometry

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Disc represents a circular disc in 3D space
type Disc struct {
	Center core.Vec3 // Center of the disc
	Normal core.Vec3 // Unit normal on the disc's front side
	Radius float64
	Right  core.Vec3 // In-plane basis vector
	Up     core.Vec3 // In-plane basis vector, Normal × Right
}

// NewDisc creates a new disc facing along normal
func NewDisc(center, normal core.Vec3, radius float64) *Disc {
	n := normal.Normalize()

	right := core.NewVec3(1, 0, 0)
	if math.Abs(n.X) > 0.1 {
		right = core.NewVec3(0, 1, 0)
	}
	right = right.Cross(n).Normalize()

	return &Disc{
		Center: center,
		Normal: n,
		Radius: radius,
		Right:  right,
		Up:     n.Cross(right).Normalize(),
	}
}

// Hit tests if a ray intersects with the disc
func (d *Disc) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	denom := d.Normal.Dot(ray.Direction)
	if math.Abs(denom) < 1e-12 {
		return false
	}

	t := d.Normal.Dot(d.Center.Subtract(ray.Origin)) / denom
	if t < tMin || t > tMax {
		return false
	}

	hitPoint := ray.At(t)
	local := hitPoint.Subtract(d.Center)
	distSq := local.LengthSquared()
	if distSq > d.Radius*d.Radius {
		return false
	}

	isect.T = t
	isect.Point = hitPoint
	// Polar UV: u is the angle, v the relative radius
	phi := math.Atan2(local.Dot(d.Up), local.Dot(d.Right))
	if phi < 0 {
		phi += 2 * math.Pi
	}
	isect.UV = core.NewVec2(phi/(2*math.Pi), math.Sqrt(distSq)/d.Radius)
	isect.SetFaceNormal(ray, d.Normal)
	return true
}

// BoundingBox returns the box around the disc's circle, padded when the disc is axis-aligned
func (d *Disc) BoundingBox() AABB {
	// Half-extent along axis i is R * sqrt(1 - n_i²)
	extent := core.NewVec3(
		d.Radius*math.Sqrt(max(0, 1-d.Normal.X*d.Normal.X)),
		d.Radius*math.Sqrt(max(0, 1-d.Normal.Y*d.Normal.Y)),
		d.Radius*math.Sqrt(max(0, 1-d.Normal.Z*d.Normal.Z)),
	)
	return NewAABB(d.Center.Subtract(extent), d.Center.Add(extent)).Expand(1e-4)
}

// Area returns πR²
func (d *Disc) Area() float64 {
	return math.Pi * d.Radius * d.Radius
}

// SampleArea samples a point uniformly on the disc
func (d *Disc) SampleArea(u core.Vec2) (core.Vec3, core.Vec3) {
	r := math.Sqrt(u.X) * d.Radius
	theta := 2.0 * math.Pi * u.Y
	point := d.Center.Add(d.Right.Multiply(r * math.Cos(theta))).Add(d.Up.Multiply(r * math.Sin(theta)))
	return point, d.Normal
}
