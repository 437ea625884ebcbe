package core

// RayEpsilon is the minimum hit distance accepted by scene queries.
// It keeps secondary rays from re-hitting the surface they start on.
const RayEpsilon = 1e-4

// Ray represents a ray with an origin and direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay creates a new ray
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// RayFromTo creates a ray starting at from with a unit direction pointing at to.
// The distance to the target is from.Subtract(to).Length().
func RayFromTo(from, to Vec3) Ray {
	return Ray{Origin: from, Direction: to.Subtract(from).Normalize()}
}
