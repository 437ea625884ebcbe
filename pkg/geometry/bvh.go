package geometry

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []Shape // Multiple shapes for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection
type BVH struct {
	Root   *BVHNode
	Center core.Vec3 // Finite scene center for infinite and directional lights
	Radius float64   // Bounding sphere radius for infinite and directional lights
}

// Leaf threshold: if we have this many or fewer shapes, store them in a leaf node
const leafThreshold = 4

// NewBVH constructs a BVH from a slice of shapes
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{Root: nil, Center: core.Vec3{}, Radius: 0}
	}

	// Copy so the caller's slice order is untouched
	shapesCopy := make([]Shape, len(shapes))
	copy(shapesCopy, shapes)

	root := buildBVH(shapesCopy)
	center := root.BoundingBox.Center()
	return &BVH{
		Root:   root,
		Center: center,
		Radius: root.BoundingBox.Max.Subtract(center).Length(),
	}
}

// buildBVH recursively builds the BVH with midpoint splits along the longest axis
func buildBVH(shapes []Shape) *BVHNode {
	boundingBox := shapes[0].BoundingBox()
	for _, shape := range shapes[1:] {
		boundingBox = boundingBox.Union(shape.BoundingBox())
	}

	if len(shapes) <= leafThreshold {
		return &BVHNode{BoundingBox: boundingBox, Shapes: shapes}
	}

	axis := boundingBox.LongestAxis()
	lo, hi := boundingBox.Min.Component(axis), boundingBox.Max.Component(axis)
	if hi <= lo {
		return &BVHNode{BoundingBox: boundingBox, Shapes: shapes}
	}
	splitPos := (lo + hi) * 0.5

	var leftShapes, rightShapes []Shape
	for _, shape := range shapes {
		if shape.BoundingBox().Center().Component(axis) < splitPos {
			leftShapes = append(leftShapes, shape)
		} else {
			rightShapes = append(rightShapes, shape)
		}
	}

	// Ensure we don't create empty partitions
	if len(leftShapes) == 0 || len(rightShapes) == 0 {
		return &BVHNode{BoundingBox: boundingBox, Shapes: shapes}
	}

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(leftShapes),
		Right:       buildBVH(rightShapes),
	}
}

// Hit finds the closest intersection in [tMin, tMax]
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	if bvh.Root == nil {
		return false
	}
	return bvh.hitNode(bvh.Root, ray, tMin, tMax, isect)
}

func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo) bool {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return false
	}

	hitAnything := false
	closestSoFar := tMax

	if node.Shapes != nil {
		for _, shape := range node.Shapes {
			if shape.Hit(ray, tMin, closestSoFar, isect) {
				hitAnything = true
				closestSoFar = isect.T
			}
		}
		return hitAnything
	}

	if node.Left != nil && bvh.hitNode(node.Left, ray, tMin, closestSoFar, isect) {
		hitAnything = true
		closestSoFar = isect.T
	}
	if node.Right != nil && bvh.hitNode(node.Right, ray, tMin, closestSoFar, isect) {
		hitAnything = true
	}
	return hitAnything
}

// HitAny reports whether anything intersects the ray in [tMin, tMax], stopping at the first hit
func (bvh *BVH) HitAny(ray core.Ray, tMin, tMax float64) bool {
	if bvh.Root == nil {
		return false
	}
	var scratch core.IntersectionInfo
	return bvh.hitAnyNode(bvh.Root, ray, tMin, tMax, &scratch)
}

func (bvh *BVH) hitAnyNode(node *BVHNode, ray core.Ray, tMin, tMax float64, scratch *core.IntersectionInfo) bool {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return false
	}
	if node.Shapes != nil {
		for _, shape := range node.Shapes {
			if shape.Hit(ray, tMin, tMax, scratch) {
				return true
			}
		}
		return false
	}
	return (node.Left != nil && bvh.hitAnyNode(node.Left, ray, tMin, tMax, scratch)) ||
		(node.Right != nil && bvh.hitAnyNode(node.Right, ray, tMin, tMax, scratch))
}

// NodeStack is reusable storage for iterative BVH traversal
type NodeStack []*BVHNode

// HitWithStack finds the closest intersection in [tMin, tMax] like Hit, walking the tree
// iteratively on stack instead of recursing. stack is left empty with its capacity kept.
func (bvh *BVH) HitWithStack(ray core.Ray, tMin, tMax float64, isect *core.IntersectionInfo, stack *NodeStack) bool {
	if bvh.Root == nil {
		return false
	}
	nodes := append((*stack)[:0], bvh.Root)
	hitAnything := false
	closestSoFar := tMax

	for len(nodes) > 0 {
		node := nodes[len(nodes)-1]
		nodes = nodes[:len(nodes)-1]
		if !node.BoundingBox.Hit(ray, tMin, closestSoFar) {
			continue
		}
		if node.Shapes != nil {
			for _, shape := range node.Shapes {
				if shape.Hit(ray, tMin, closestSoFar, isect) {
					hitAnything = true
					closestSoFar = isect.T
				}
			}
			continue
		}
		// Left is pushed last so it is visited first, as in Hit
		if node.Right != nil {
			nodes = append(nodes, node.Right)
		}
		if node.Left != nil {
			nodes = append(nodes, node.Left)
		}
	}

	*stack = nodes[:0]
	return hitAnything
}

// HitAnyWithStack is HitAny with caller-provided traversal stack and scratch record
func (bvh *BVH) HitAnyWithStack(ray core.Ray, tMin, tMax float64, scratch *core.IntersectionInfo, stack *NodeStack) bool {
	if bvh.Root == nil {
		return false
	}
	nodes := append((*stack)[:0], bvh.Root)
	defer func() { *stack = nodes[:0] }()

	for len(nodes) > 0 {
		node := nodes[len(nodes)-1]
		nodes = nodes[:len(nodes)-1]
		if !node.BoundingBox.Hit(ray, tMin, tMax) {
			continue
		}
		if node.Shapes != nil {
			for _, shape := range node.Shapes {
				if shape.Hit(ray, tMin, tMax, scratch) {
					return true
				}
			}
			continue
		}
		if node.Right != nil {
			nodes = append(nodes, node.Right)
		}
		if node.Left != nil {
			nodes = append(nodes, node.Left)
		}
	}
	return false
}

// BoundingBox returns the overall bounding box of the BVH
func (bvh *BVH) BoundingBox() AABB {
	if bvh.Root == nil {
		return AABB{}
	}
	return bvh.Root.BoundingBox
}
