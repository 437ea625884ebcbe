package geometry

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	// Quadratic equation coefficients: at² + bt + c = 0
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer root first
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return false
		}
	}

	isect.T = root
	isect.Point = ray.At(root)
	outwardNormal := isect.Point.Subtract(s.Center).Multiply(1.0 / s.Radius)
	isect.SetFaceNormal(ray, outwardNormal)

	// Spherical UV: u from azimuth, v from polar angle
	theta := math.Acos(-outwardNormal.Y)
	phi := math.Atan2(-outwardNormal.Z, outwardNormal.X) + math.Pi
	isect.UV = core.NewVec2(phi/(2*math.Pi), theta/math.Pi)
	return true
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() AABB {
	radius := core.NewSpectrum(s.Radius)
	return NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}

// Area returns the surface area
func (s *Sphere) Area() float64 {
	return 4.0 * math.Pi * s.Radius * s.Radius
}

// SampleArea samples a point uniformly on the sphere surface
func (s *Sphere) SampleArea(u core.Vec2) (core.Vec3, core.Vec3) {
	normal := core.SampleOnUnitSphere(u)
	return s.Center.Add(normal.Multiply(s.Radius)), normal
}
