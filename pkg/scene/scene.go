package scene

import (
	"fmt"
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/lights"
)

// LightSelection names a strategy for choosing one light per shading point
type LightSelection string

const (
	LightSelectionUniform LightSelection = "uniform"
	LightSelectionPower   LightSelection = "power"
)

// Scene contains all the elements needed for rendering.
// It is read-only once Preprocess has returned.
type Scene struct {
	Camera         *geometry.Camera
	CameraConfig   geometry.CameraConfig
	Primitives     []*geometry.Primitive // Objects in the scene, emitters included
	Lights         []lights.Light        // Lights in the scene
	LightSampler   lights.LightSampler   // Built by Preprocess unless set explicitly
	LightSelection LightSelection        // Strategy used when LightSampler is nil
	SamplingConfig SamplingConfig
	BVH            *geometry.BVH // Acceleration structure for ray-object intersection

	infiniteLights []lights.Light
}

// SamplingConfig carries a scene's recommended render settings
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of camera rays per pixel
	MinBounces      int // Bounces before Russian roulette may end a path
	MaxBounces      int // Hard limit on path length
}

// NewScene creates an empty scene viewed through cameraConfig
func NewScene(cameraConfig geometry.CameraConfig, samplingConfig SamplingConfig) *Scene {
	camera := geometry.NewCamera(cameraConfig)
	samplingConfig.Width = camera.Width()
	samplingConfig.Height = camera.Height()
	return &Scene{
		Camera:         camera,
		CameraConfig:   cameraConfig,
		Primitives:     make([]*geometry.Primitive, 0),
		Lights:         make([]lights.Light, 0),
		LightSelection: LightSelectionUniform,
		SamplingConfig: samplingConfig,
	}
}

// Preprocess builds the BVH, hands the scene bounds to lights that need them and creates the light sampler
func (s *Scene) Preprocess() error {
	shapes := make([]geometry.Shape, len(s.Primitives))
	for i, primitive := range s.Primitives {
		shapes[i] = primitive
	}
	s.BVH = geometry.NewBVH(shapes)

	s.infiniteLights = s.infiniteLights[:0]
	for _, light := range s.Lights {
		if preprocessor, ok := light.(geometry.Preprocessor); ok {
			if err := preprocessor.Preprocess(s.BVH.Center, s.BVH.Radius); err != nil {
				return fmt.Errorf("preprocess %s light: %w", light.Type(), err)
			}
		}
		if light.Type() == lights.LightTypeInfinite {
			s.infiniteLights = append(s.infiniteLights, light)
		}
	}

	if s.LightSampler == nil {
		switch s.LightSelection {
		case LightSelectionUniform, "":
			s.LightSampler = lights.NewUniformLightSampler(s.Lights)
		case LightSelectionPower:
			s.LightSampler = lights.NewPowerLightSampler(s.Lights)
		default:
			return fmt.Errorf("unknown light selection %q", s.LightSelection)
		}
	}
	if s.LightSampler.Count() != len(s.Lights) {
		return fmt.Errorf("light sampler covers %d lights, scene has %d", s.LightSampler.Count(), len(s.Lights))
	}

	return nil
}

// Intersect finds the closest surface along ray beyond core.RayEpsilon.
// The BVH traversal stack lives in ws and is reused across calls.
func (s *Scene) Intersect(ray core.Ray, ws *core.Workspace, isect *core.IntersectionInfo) bool {
	return s.BVH.HitWithStack(ray, core.RayEpsilon, math.Inf(1), isect, core.Scratch[geometry.NodeStack](ws))
}

// Occluded implements lights.Occluder for a ray with a unit direction.
// Traversal stack and the discarded hit record come from ws.
func (s *Scene) Occluded(ray core.Ray, tMax float64, ws *core.Workspace) bool {
	scratch := core.Scratch[core.IntersectionInfo](ws)
	return s.BVH.HitAnyWithStack(ray, core.RayEpsilon, tMax-core.RayEpsilon, scratch, core.Scratch[geometry.NodeStack](ws))
}

// InfiniteLights returns the lights seen by rays that leave the scene
func (s *Scene) InfiniteLights() []lights.Light {
	return s.infiniteLights
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Primitives)
}

// AddPrimitive adds a surface with the given material and returns its primitive
func (s *Scene) AddPrimitive(shape geometry.Shape, material core.Material) *geometry.Primitive {
	primitive := geometry.NewPrimitive(shape, material)
	s.Primitives = append(s.Primitives, primitive)
	return primitive
}

// AddAreaLight turns shape into a non-reflective emitter
func (s *Scene) AddAreaLight(shape geometry.Shape, emission core.Vec3, twoSided bool) *lights.AreaLight {
	primitive := s.AddPrimitive(shape, nil)
	light := lights.NewAreaLight(primitive, emission, twoSided)
	s.Lights = append(s.Lights, light)
	return light
}

// AddSphereLight adds a spherical light to the scene
func (s *Scene) AddSphereLight(center core.Vec3, radius float64, emission core.Vec3) *lights.AreaLight {
	return s.AddAreaLight(geometry.NewSphere(center, radius), emission, false)
}

// AddQuadLight adds a rectangular area light to the scene, emitting on the U × V side
func (s *Scene) AddQuadLight(corner, u, v core.Vec3, emission core.Vec3) *lights.AreaLight {
	return s.AddAreaLight(geometry.NewQuad(corner, u, v), emission, false)
}

// AddDiscLight adds a round area light emitting on the side normal points to
func (s *Scene) AddDiscLight(center, normal core.Vec3, radius float64, emission core.Vec3) *lights.AreaLight {
	return s.AddAreaLight(geometry.NewDisc(center, normal, radius), emission, false)
}

// AddPointLight adds a point light to the scene
func (s *Scene) AddPointLight(position, intensity core.Vec3) {
	s.Lights = append(s.Lights, lights.NewPointLight(position, intensity))
}

// AddSpotLight adds a spot light at from aimed at to with the given cone half-angle and falloff band in degrees
func (s *Scene) AddSpotLight(from, to, intensity core.Vec3, coneAngleDegrees, coneDeltaDegrees float64) *lights.SpotLight {
	light := lights.NewSpotLight(from, to, intensity, coneAngleDegrees, coneDeltaDegrees)
	s.Lights = append(s.Lights, light)
	return light
}

// AddDirectionalLight adds a distant light travelling along direction
func (s *Scene) AddDirectionalLight(direction, radiance core.Vec3) {
	s.Lights = append(s.Lights, lights.NewDirectionalLight(direction, radiance))
}

// AddUniformInfiniteLight adds a uniform infinite light to the scene
func (s *Scene) AddUniformInfiniteLight(emission core.Vec3) {
	s.Lights = append(s.Lights, lights.NewUniformInfiniteLight(emission))
}

// AddGradientInfiniteLight adds a gradient infinite light to the scene
func (s *Scene) AddGradientInfiniteLight(topColor, bottomColor core.Vec3) {
	s.Lights = append(s.Lights, lights.NewGradientInfiniteLight(topColor, bottomColor))
}

// NewGroundQuad creates a large horizontal quad centered at center with its normal pointing up
func NewGroundQuad(center core.Vec3, size float64) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// (0,0,size) × (size,0,0) = (0,size²,0)
	return geometry.NewQuad(corner, core.NewVec3(0, 0, size), core.NewVec3(size, 0, 0))
}
