package integrator

import (
	"fmt"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// rouletteTolerance absorbs rounding when a unit-albedo BSDF keeps throughput at 1
const rouletteTolerance = 1e-9

// PathTracingIntegrator implements unidirectional path tracing with next event estimation
type PathTracingIntegrator struct {
	config Config
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config Config) (*PathTracingIntegrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid path tracing config: %w", err)
	}
	return &PathTracingIntegrator{config: config}, nil
}

// Config returns the bounce limits the integrator was built with
func (pt *PathTracingIntegrator) Config() Config {
	return pt.config
}

// Li estimates the radiance arriving along cameraRay.
// The path ends when the ray escapes, reaches a surface without material,
// draws a zero-density direction, is killed by Russian roulette or runs out of bounces.
func (pt *PathTracingIntegrator) Li(ctx *RenderingContext, sampler core.Sampler, sc *scene.Scene, cameraRay core.Ray) core.Vec3 {
	ws := ctx.Workspace
	result := core.Vec3{}
	contrib := core.NewSpectrum(1)
	ray := cameraRay

	// Emission reached through a diffuse or glossy bounce was already counted by light sampling
	fromCameraOrSpecular := true

	for bounce := 0; bounce < pt.config.MaxBounces; bounce++ {
		ws.Clear()

		var isect core.IntersectionInfo
		if !sc.Intersect(ray, ws, &isect) {
			if fromCameraOrSpecular {
				for _, light := range sc.InfiniteLights() {
					result = result.Add(contrib.MultiplyVec(light.Eval(ray)))
				}
			}
			break
		}

		if isect.AreaLight != nil && fromCameraOrSpecular {
			result = result.Add(contrib.MultiplyVec(isect.AreaLight.Eval(ray)))
		}

		if isect.Material == nil {
			break
		}
		bsdf := isect.Material.ComputeBsdf(ws, &isect)
		// A nil BSDF ends the path the same way a surface without material does; it does not panic
		if bsdf == nil {
			break
		}

		worldToLocal := core.CreateBsdfCoordTransform(isect.Normal)
		localToWorld := worldToLocal.Inverse()
		wo := worldToLocal.ApplyVector(ray.Direction.Negate().Normalize())
		shading := &ShadingPoint{
			Isect:        &isect,
			Bsdf:         bsdf,
			WorldToLocal: worldToLocal,
			LocalToWorld: localToWorld,
			Wo:           wo,
		}

		specular := bsdf.Type().Contains(core.BsdfSpecular)
		if !specular {
			direct := SampleOneLight(ws, sampler, sc, shading)
			result = result.Add(contrib.MultiplyVec(direct))
		}

		f, wi, pdf := bsdf.SampleAndEval(sampler.Get2D(), wo)
		if pdf == 0 {
			break
		}

		contrib = contrib.MultiplyVec(f).Multiply(core.AbsCosTheta(wi) / pdf)
		ray = core.NewRay(isect.Point, localToWorld.ApplyVector(wi))
		fromCameraOrSpecular = specular

		if bounce >= pt.config.MinBounces {
			killed, corrected := ApplyRussianRoulette(contrib, sampler.Get1D())
			if killed {
				break
			}
			contrib = corrected
		}
	}

	if !result.IsValidRadiance() {
		panic(fmt.Sprintf("integrator: invalid radiance %v for camera ray %v", result, cameraRay))
	}
	return result
}

// ApplyRussianRoulette keeps a path with probability max(throughput) and rescales survivors.
// It reports whether the path was killed and returns the corrected throughput otherwise.
// Throughput components outside [0, 1] are a broken BSDF contract and panic.
func ApplyRussianRoulette(throughput core.Vec3, u float64) (bool, core.Vec3) {
	if throughput.X < 0 || throughput.Y < 0 || throughput.Z < 0 {
		panic(fmt.Sprintf("integrator: negative throughput %v", throughput))
	}
	probHalt := throughput.MaxComponent()
	if !(probHalt <= 1+rouletteTolerance) {
		panic(fmt.Sprintf("integrator: russian roulette survival probability %f exceeds 1 (throughput %v)", probHalt, throughput))
	}
	if probHalt <= 0 || u > probHalt {
		return true, core.Vec3{}
	}
	return false, throughput.Multiply(1.0 / probHalt)
}
