package integrator

import (
	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/lights"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// ShadingPoint bundles what direct lighting needs to know about a surface hit
type ShadingPoint struct {
	Isect        *core.IntersectionInfo
	Bsdf         core.Bsdf
	WorldToLocal core.Matrix4
	LocalToWorld core.Matrix4
	Wo           core.Vec3 // Outgoing direction in the local frame
}

// SampleOneLight picks a single light with the scene's light sampler and
// returns its direct contribution divided by the selection probability
func SampleOneLight(ws *core.Workspace, sampler core.Sampler, sc *scene.Scene, sp *ShadingPoint) core.Vec3 {
	if sc.LightSampler == nil || sc.LightSampler.Count() == 0 {
		return core.Vec3{}
	}
	light, selectPdf, _ := sc.LightSampler.SampleLight(sampler.Get1D())
	if light == nil || selectPdf == 0 {
		return core.Vec3{}
	}
	return EstimateDirect(ws, sampler, sc, sp, light).Multiply(1.0 / selectPdf)
}

// EstimateDirect combines light sampling and BSDF sampling of one light with the power heuristic.
// Delta lights can only be reached by light sampling, so they take the full weight.
// Draws one 2D sample for the light and, for non-delta lights, one for the BSDF.
func EstimateDirect(ws *core.Workspace, sampler core.Sampler, sc *scene.Scene, sp *ShadingPoint, light lights.Light) core.Vec3 {
	isect := sp.Isect
	delta := light.Type().IsDelta()
	ld := core.Vec3{}

	// Light sampling
	ls := light.Sample(isect, sampler.Get2D())
	if ls.TestIllumination() {
		wi := sp.WorldToLocal.ApplyVector(ls.IncidentDirection())
		f := sp.Bsdf.Eval(sp.Wo, wi).Multiply(core.AbsCosTheta(wi))
		if !f.IsBlack() && ls.TestVisibility(sc, isect, ws) {
			weight := 1.0
			if !delta {
				weight = PowerHeuristic(1, ls.Pdf(), 1, sp.Bsdf.Pdf(sp.Wo, wi))
			}
			ld = ld.Add(f.MultiplyVec(ls.Radiance()).Multiply(weight / ls.Pdf()))
		}
	}

	if delta {
		return ld
	}

	// BSDF sampling
	f, wi, scatterPdf := sp.Bsdf.SampleAndEval(sampler.Get2D(), sp.Wo)
	if scatterPdf == 0 || f.IsBlack() {
		return ld
	}
	wiWorld := sp.LocalToWorld.ApplyVector(wi)
	lightPdf := light.PDF(isect, wiWorld)
	if lightPdf == 0 {
		return ld
	}

	ray := core.NewRay(isect.Point, wiWorld)
	var hit core.IntersectionInfo
	var li core.Vec3
	if sc.Intersect(ray, ws, &hit) {
		if hit.AreaLight == light {
			li = light.Eval(ray)
		}
	} else if light.Type() == lights.LightTypeInfinite {
		li = light.Eval(ray)
	}
	if li.IsBlack() {
		return ld
	}

	weight := PowerHeuristic(1, scatterPdf, 1, lightPdf)
	f = f.Multiply(core.AbsCosTheta(wi))
	return ld.Add(f.MultiplyVec(li).Multiply(weight / scatterPdf))
}

// PowerHeuristic returns the MIS weight of strategy f against strategy g with exponent 2
func PowerHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	if f == 0 && g == 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}
