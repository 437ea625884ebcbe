package scene

import (
	"fmt"
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/material"
)

// NewCornellScene creates a classic Cornell box scene with quad walls and area lighting
func NewCornellScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt:      core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 1.0,
		VFov:        40.0,
	}
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := NewScene(cameraConfig, SamplingConfig{
		SamplesPerPixel: 150,
		MinBounces:      4,
		MaxBounces:      40,
	})

	addCornellWalls(s)

	// Ceiling light facing down, just below the ceiling
	lightSize := 130.0
	lightOffset := (cornellSize - lightSize) / 2.0
	s.AddQuadLight(
		core.NewVec3(lightOffset, cornellSize-1, lightOffset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
		core.NewVec3(15.0, 15.0, 15.0),
	)

	s.AddPrimitive(geometry.NewSphere(core.NewVec3(185, 82.5, 169), 82.5), material.NewMirror(core.NewVec3(0.8, 0.8, 0.9)))
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(370, 90, 351), 90), material.NewDielectric(1.5))

	return s
}

const cornellSize = 555.0

// addCornellWalls adds the five walls of the standard 555 unit box, open towards the camera, and returns the white material
func addCornellWalls(s *Scene) core.Material {
	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	x := core.NewVec3(cornellSize, 0, 0)
	y := core.NewVec3(0, cornellSize, 0)
	z := core.NewVec3(0, 0, cornellSize)

	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, 0, 0), x, z), white)           // floor
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, cornellSize, 0), x, z), white) // ceiling
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, 0, cornellSize), x, y), white) // back
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, 0, 0), z, y), red)             // left
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(cornellSize, 0, 0), y, z), green) // right
	return white
}

// NewCornellBoxesScene creates the Cornell box with two rotated blocks, a pyramid mesh and a round ceiling light
func NewCornellBoxesScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(278, 278, -800),
		LookAt:      core.NewVec3(278, 278, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 1.0,
		VFov:        40.0,
	}
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := NewScene(cameraConfig, SamplingConfig{
		SamplesPerPixel: 150,
		MinBounces:      4,
		MaxBounces:      40,
	})
	white := addCornellWalls(s)

	s.AddDiscLight(core.NewVec3(278, cornellSize-1, 278), core.NewVec3(0, -1, 0), 70, core.NewVec3(16.5, 16.5, 16.5))

	tall := geometry.NewBox(core.NewVec3(366, 165, 383), core.NewVec3(82.5, 165, 82.5), core.NewVec3(0, 15*math.Pi/180, 0))
	short := geometry.NewBox(core.NewVec3(185, 82.5, 169), core.NewVec3(82.5, 82.5, 82.5), core.NewVec3(0, -18*math.Pi/180, 0))
	s.AddPrimitive(tall, white)
	s.AddPrimitive(short, white)

	// Open pyramid standing on the short block
	base := core.NewVec3(185, 165, 169)
	vertices := []core.Vec3{
		base.Add(core.NewVec3(-50, 0, -50)),
		base.Add(core.NewVec3(50, 0, -50)),
		base.Add(core.NewVec3(50, 0, 50)),
		base.Add(core.NewVec3(-50, 0, 50)),
		base.Add(core.NewVec3(0, 100, 0)),
	}
	faces := []int{3, 2, 4, 2, 1, 4, 1, 0, 4, 0, 3, 4}
	rotation := core.NewVec3(0, -18*math.Pi/180, 0)
	pyramid, err := geometry.NewTriangleMesh(vertices, faces, &geometry.TriangleMeshOptions{Rotation: &rotation, Center: &base})
	if err != nil {
		panic(fmt.Sprintf("cornell pyramid: %v", err))
	}
	s.AddPrimitive(pyramid, material.NewMirror(core.NewVec3(0.8, 0.85, 0.9)))

	return s
}
