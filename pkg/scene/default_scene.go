package scene

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/material"
)

// NewDefaultScene creates a default scene with spheres, ground, and camera
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:      core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        40.0,
		Aperture:    0.05,
	}
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := NewScene(cameraConfig, SamplingConfig{
		SamplesPerPixel: 200,
		MinBounces:      20, // Need a lot of bounces for glass
		MaxBounces:      50,
	})

	checkerGround := material.NewTexturedLambertian(material.NewCheckerboardTexture(
		2.0,
		core.NewVec3(0.48, 0.48, 0.0),
		core.NewVec3(0.3, 0.3, 0.1),
	))
	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	lambertianRed := material.NewLambertian(core.NewVec3(0.65, 0.25, 0.2))
	mirrorSilver := material.NewMirror(core.NewVec3(0.8, 0.8, 0.8))
	mirrorGold := material.NewMirror(core.NewVec3(0.8, 0.6, 0.2))
	glass := material.NewDielectric(1.5)

	s.AddPrimitive(geometry.NewSphere(core.NewVec3(0, 0.5, -1), 0.5), lambertianRed)
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(-1, 0.5, -1), 0.5), mirrorSilver)
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(1, 0.5, -1), 0.5), mirrorGold)
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(0.5, 0.25, -0.5), 0.25), glass)

	// Large but finite so the scene bounds stay meaningful
	s.AddPrimitive(NewGroundQuad(core.NewVec3(0, 0, 0), 10000.0), checkerGround)

	// Hollow glass bubble around a blue core; the inner shell has an inverted index
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.25), glass)
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.24), material.NewDielectric(1.0/1.5))
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.20), lambertianBlue)

	s.AddSphereLight(core.NewVec3(30, 30.5, 15), 10, core.NewVec3(15.0, 14.0, 13.0))
	s.AddGradientInfiniteLight(
		core.NewVec3(0.5, 0.7, 1.0), // blue sky
		core.NewVec3(1.0, 1.0, 1.0), // white ground
	)

	return s
}
