package geometry

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// Box represents a rectangular box made up of 6 outward-facing quads
type Box struct {
	Center   core.Vec3 // Center point of the box
	Size     core.Vec3 // Half-extents along each local axis
	Rotation core.Vec3 // Rotation angles in radians (X, Y, Z, applied in that order)
	faces    [6]*Quad
	bbox     AABB
}

// NewBox creates a new box; size holds half-extents so (1,1,1) is a 2x2x2 box
func NewBox(center, size, rotation core.Vec3) *Box {
	box := &Box{Center: center, Size: size, Rotation: rotation}
	box.generateFaces()
	return box
}

// NewAxisAlignedBox creates a new box without rotation
func NewAxisAlignedBox(center, size core.Vec3) *Box {
	return NewBox(center, size, core.Vec3{})
}

func (b *Box) generateFaces() {
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		corners[i] = rotateVertex(corners[i].MultiplyVec(b.Size), b.Rotation).Add(b.Center)
	}

	face := func(c, u, v int) *Quad {
		return NewQuad(corners[c], corners[u].Subtract(corners[c]), corners[v].Subtract(corners[c]))
	}
	b.faces = [6]*Quad{
		face(4, 5, 7), // Z+
		face(1, 0, 2), // Z-
		face(5, 1, 6), // X+
		face(0, 4, 3), // X-
		face(3, 7, 2), // Y+
		face(4, 0, 5), // Y-
	}

	b.bbox = NewAABBFromPoints(corners[:]...).Expand(1e-4)
}

// Hit tests if a ray intersects with any face of the box
func (b *Box) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	hit := false
	closest := tMax
	for _, face := range b.faces {
		if face.Hit(ray, tMin, closest, isect) {
			hit = true
			closest = isect.T
		}
	}
	return hit
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() AABB {
	return b.bbox
}

// Faces returns the six quads, each with its normal pointing out of the box
func (b *Box) Faces() [6]*Quad {
	return b.faces
}
