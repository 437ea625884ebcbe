package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// TriangleMesh represents a collection of triangles with an internal BVH
type TriangleMesh struct {
	triangles []*Triangle
	bvh       *BVH
	bbox      AABB
	cdf       []float64 // Running surface area, for area-weighted sampling
	area      float64
}

// TriangleMeshOptions contains optional transforms applied to the vertices
type TriangleMeshOptions struct {
	Rotation *core.Vec3 // Rotation in radians around X, Y, Z (applied in that order)
	Center   *core.Vec3 // Pivot for the rotation; the origin when nil
}

// NewTriangleMesh creates a mesh from vertices and face indices (each group of 3 indices forms a triangle)
func NewTriangleMesh(vertices []core.Vec3, faces []int, options *TriangleMeshOptions) (*TriangleMesh, error) {
	if len(faces) == 0 || len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a non-empty multiple of 3, got %d", len(faces))
	}

	working := vertices
	if options != nil && options.Rotation != nil {
		working = make([]core.Vec3, len(vertices))
		for i, vertex := range vertices {
			if options.Center != nil {
				vertex = vertex.Subtract(*options.Center)
			}
			vertex = rotateVertex(vertex, *options.Rotation)
			if options.Center != nil {
				vertex = vertex.Add(*options.Center)
			}
			working[i] = vertex
		}
	}

	mesh := &TriangleMesh{}
	shapes := make([]Shape, 0, len(faces)/3)
	for i := 0; i < len(faces); i += 3 {
		i0, i1, i2 := faces[i], faces[i+1], faces[i+2]
		for _, idx := range []int{i0, i1, i2} {
			if idx < 0 || idx >= len(working) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range [0, %d)", i/3, idx, len(working))
			}
		}

		tri := NewTriangle(working[i0], working[i1], working[i2])
		if tri.Area() == 0 {
			return nil, fmt.Errorf("face %d is degenerate", i/3)
		}
		mesh.triangles = append(mesh.triangles, tri)
		shapes = append(shapes, tri)
		mesh.area += tri.Area()
		mesh.cdf = append(mesh.cdf, mesh.area)
	}

	mesh.bvh = NewBVH(shapes)
	mesh.bbox = mesh.bvh.Root.BoundingBox
	return mesh, nil
}

// Hit tests if a ray intersects with any triangle in the mesh
func (tm *TriangleMesh) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	return tm.bvh.Hit(ray, tMin, tMax, isect)
}

// BoundingBox returns the axis-aligned bounding box for the entire mesh
func (tm *TriangleMesh) BoundingBox() AABB {
	return tm.bbox
}

// GetTriangleCount returns the number of triangles in this mesh
func (tm *TriangleMesh) GetTriangleCount() int {
	return len(tm.triangles)
}

// Area returns the total surface area
func (tm *TriangleMesh) Area() float64 {
	return tm.area
}

// SampleArea picks a triangle in proportion to its area, then a point uniformly on it
func (tm *TriangleMesh) SampleArea(u core.Vec2) (core.Vec3, core.Vec3) {
	target := u.X * tm.area
	i := sort.SearchFloat64s(tm.cdf, target)
	if i >= len(tm.triangles) {
		i = len(tm.triangles) - 1
	}

	// Reuse the offset inside the chosen bucket as a fresh uniform
	lo := 0.0
	if i > 0 {
		lo = tm.cdf[i-1]
	}
	remapped := (target - lo) / tm.triangles[i].Area()
	remapped = math.Min(math.Max(remapped, 0), 1)
	return tm.triangles[i].SampleArea(core.NewVec2(remapped, u.Y))
}

// rotateVertex applies rotation around X, Y, Z axes (in that order)
func rotateVertex(vertex, rotation core.Vec3) core.Vec3 {
	if rotation.X != 0 {
		cos, sin := math.Cos(rotation.X), math.Sin(rotation.X)
		vertex = core.NewVec3(vertex.X, vertex.Y*cos-vertex.Z*sin, vertex.Y*sin+vertex.Z*cos)
	}
	if rotation.Y != 0 {
		cos, sin := math.Cos(rotation.Y), math.Sin(rotation.Y)
		vertex = core.NewVec3(vertex.X*cos+vertex.Z*sin, vertex.Y, -vertex.X*sin+vertex.Z*cos)
	}
	if rotation.Z != 0 {
		cos, sin := math.Cos(rotation.Z), math.Sin(rotation.Z)
		vertex = core.NewVec3(vertex.X*cos-vertex.Y*sin, vertex.X*sin+vertex.Y*cos, vertex.Z)
	}
	return vertex
}
