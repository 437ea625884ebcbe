package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/material"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// sequenceSampler replays a fixed stream of values; Get2D consumes two and Get3D three
type sequenceSampler struct {
	values []float64
	index  int
}

func newSequenceSampler(values ...float64) *sequenceSampler {
	return &sequenceSampler{values: values}
}

func (s *sequenceSampler) next() float64 {
	if s.index >= len(s.values) {
		panic("sequenceSampler ran out of values")
	}
	v := s.values[s.index]
	s.index++
	return v
}

func (s *sequenceSampler) Get1D() float64 { return s.next() }
func (s *sequenceSampler) Get2D() core.Vec2 {
	return core.NewVec2(s.next(), s.next())
}
func (s *sequenceSampler) Get3D() core.Vec3 {
	return core.NewVec3(s.next(), s.next(), s.next())
}

func (s *sequenceSampler) remaining() int {
	return len(s.values) - s.index
}

// absorber is a material that never scatters
type absorber struct{}

func (absorber) ComputeBsdf(ws *core.Workspace, isect *core.IntersectionInfo) core.Bsdf {
	return nil
}

func newEmptyScene() *scene.Scene {
	return scene.NewScene(geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 5),
		LookAt:      core.Vec3{},
		Up:          core.NewVec3(0, 1, 0),
		Width:       8,
		AspectRatio: 1,
		VFov:        40,
	}, scene.SamplingConfig{SamplesPerPixel: 1, MinBounces: 1, MaxBounces: 4})
}

func newIntegrator(t *testing.T, minBounces, maxBounces int) *PathTracingIntegrator {
	t.Helper()
	pt, err := NewPathTracingIntegrator(Config{MinBounces: minBounces, MaxBounces: maxBounces})
	if err != nil {
		t.Fatalf("NewPathTracingIntegrator failed: %v", err)
	}
	return pt
}

func preprocess(t *testing.T, sc *scene.Scene) *scene.Scene {
	t.Helper()
	if err := sc.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	return sc
}

func vecClose(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance && math.Abs(a.Y-b.Y) <= tolerance && math.Abs(a.Z-b.Z) <= tolerance
}

func TestPathTracingEscapingRay(t *testing.T) {
	up := core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0))

	tests := []struct {
		name     string
		sky      bool
		expected core.Vec3
	}{
		{"WithInfiniteLight", true, core.NewVec3(0.3, 0.4, 0.5)},
		{"WithoutInfiniteLight", false, core.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newEmptyScene()
			sc.AddPrimitive(geometry.NewSphere(core.NewVec3(0, 0, -5), 1), material.NewLambertian(core.NewSpectrum(0.5)))
			sc.AddPointLight(core.NewVec3(0, 5, 0), core.NewSpectrum(1))
			if tt.sky {
				sc.AddUniformInfiniteLight(tt.expected)
			}
			preprocess(t, sc)

			sampler := newSequenceSampler()
			got := newIntegrator(t, 1, 4).Li(NewRenderingContext(), sampler, sc, up)
			if got != tt.expected {
				t.Errorf("Expected %v for an escaping camera ray, got %v", tt.expected, got)
			}
		})
	}
}

func TestPathTracingEmptyScene(t *testing.T) {
	rays := []core.Ray{
		core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)),
		core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)),
		core.NewRay(core.NewVec3(1, 2, 3), core.NewVec3(0.6, -0.8, 0)),
	}

	tests := []struct {
		name      string
		setup     func(sc *scene.Scene)
		selection scene.LightSelection
	}{
		{"NoLights", func(sc *scene.Scene) {}, scene.LightSelectionUniform},
		{"PointLightOnly", func(sc *scene.Scene) { sc.AddPointLight(core.NewVec3(0, 3, 0), core.NewSpectrum(5)) }, scene.LightSelectionUniform},
		{"UniformSky", func(sc *scene.Scene) { sc.AddUniformInfiniteLight(core.NewVec3(0.2, 0.4, 0.6)) }, scene.LightSelectionUniform},
		{"GradientSky", func(sc *scene.Scene) {
			sc.AddGradientInfiniteLight(core.NewVec3(0.5, 0.7, 1), core.NewSpectrum(1))
		}, scene.LightSelectionUniform},
		{"TwoSkiesPowerSelection", func(sc *scene.Scene) {
			sc.AddUniformInfiniteLight(core.NewSpectrum(0.25))
			sc.AddGradientInfiniteLight(core.NewSpectrum(0.5), core.NewSpectrum(0.1))
		}, scene.LightSelectionPower},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newEmptyScene()
			sc.LightSelection = tt.selection
			tt.setup(sc)
			preprocess(t, sc)
			if sc.GetPrimitiveCount() != 0 {
				t.Fatalf("Expected no primitives, got %d", sc.GetPrimitiveCount())
			}

			pt := newIntegrator(t, 0, 5)
			for _, ray := range rays {
				expected := core.Vec3{}
				for _, light := range sc.InfiniteLights() {
					expected = expected.Add(light.Eval(ray))
				}
				// Every camera ray escapes at once, so no sample is drawn
				sampler := newSequenceSampler()
				if got := pt.Li(NewRenderingContext(), sampler, sc, ray); got != expected {
					t.Errorf("Ray %v: expected %v, got %v", ray.Direction, expected, got)
				}
			}
			if len(sc.InfiniteLights()) > 0 && sc.InfiniteLights()[0].Eval(rays[0]).IsBlack() {
				t.Error("Expected a visible sky")
			}
		})
	}
}

func TestPathTracingDirectEmitterHit(t *testing.T) {
	sc := newEmptyScene()
	// (2,0,0) × (0,2,0) faces +Z, toward the camera ray
	emitter := sc.AddQuadLight(core.NewVec3(-1, -1, -2), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), core.NewSpectrum(5))
	preprocess(t, sc)
	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))

	tests := []struct {
		name       string
		maxBounces int
		expected   core.Vec3
	}{
		{"NoBounces", 0, core.Vec3{}},
		{"OneBounce", 1, emitter.Eval(ray)},
		{"ManyBounces", 8, emitter.Eval(ray)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The emitter has no material, so the path ends without drawing samples
			sampler := newSequenceSampler()
			got := newIntegrator(t, 0, tt.maxBounces).Li(NewRenderingContext(), sampler, sc, ray)
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPathTracingNonScatteringSurface(t *testing.T) {
	sc := newEmptyScene()
	sc.AddPrimitive(geometry.NewSphere(core.NewVec3(0, 0, -3), 1), absorber{})
	sc.AddUniformInfiniteLight(core.NewSpectrum(1))
	preprocess(t, sc)

	sampler := newSequenceSampler()
	got := newIntegrator(t, 0, 4).Li(NewRenderingContext(), sampler, sc, core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)))
	if !got.IsBlack() {
		t.Errorf("Expected black from a surface without a BSDF, got %v", got)
	}
}

// newMirrorUnderLight builds a mirror floor at y=0 and a downward-facing light covering x∈[-1,1], z∈[1,3] at y=2
func newMirrorUnderLight(albedo float64, emission core.Vec3) *scene.Scene {
	sc := newEmptyScene()
	sc.AddPrimitive(scene.NewGroundQuad(core.Vec3{}, 10), material.NewMirror(core.NewSpectrum(albedo)))
	sc.AddQuadLight(core.NewVec3(-1, 2, 1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2), emission)
	return sc
}

func TestPathTracingRussianRouletteThroughMirror(t *testing.T) {
	emission := core.NewSpectrum(4)
	sc := preprocess(t, newMirrorUnderLight(0.1, emission))
	// Hits the mirror at the origin and reflects toward (0,2,2)
	ray := core.NewRay(core.NewVec3(0, 1, -1), core.NewVec3(0, -1, 1).Normalize())

	tests := []struct {
		name     string
		roulette float64
		expected core.Vec3
	}{
		{"Killed", 0.5, core.Vec3{}},
		{"Survives", 0.05, emission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Mirror sample, then the roulette draw; the mirror skips light sampling
			sampler := newSequenceSampler(0.3, 0.3, tt.roulette)
			got := newIntegrator(t, 0, 4).Li(NewRenderingContext(), sampler, sc, ray)
			if !vecClose(got, tt.expected, 1e-9) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
			if sampler.remaining() != 0 {
				t.Errorf("Expected every scripted value to be used, %d left", sampler.remaining())
			}
		})
	}
}

func TestPathTracingSpecularToSky(t *testing.T) {
	sc := newEmptyScene()
	sc.AddPrimitive(scene.NewGroundQuad(core.Vec3{}, 10), material.NewMirror(core.NewSpectrum(0.5)))
	sc.AddUniformInfiniteLight(core.NewSpectrum(2))
	preprocess(t, sc)

	sampler := newSequenceSampler(0.5, 0.5)
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(1, -1, 0).Normalize())
	got := newIntegrator(t, 2, 2).Li(NewRenderingContext(), sampler, sc, ray)
	if !vecClose(got, core.NewSpectrum(1), 1e-9) {
		t.Errorf("Expected mirrored sky radiance 1, got %v", got)
	}
}

func TestPathTracingPointLightDirect(t *testing.T) {
	sc := newEmptyScene()
	sc.AddPrimitive(scene.NewGroundQuad(core.Vec3{}, 4), material.NewLambertian(core.NewSpectrum(0.5)))
	sc.AddPointLight(core.NewVec3(0, 2, 0), core.NewSpectrum(4))
	preprocess(t, sc)

	// Light selection, light sample, continuation; delta lights skip the BSDF strategy
	sampler := newSequenceSampler(0.5, 0.5, 0.5, 0.5, 0.5)
	got := newIntegrator(t, 1, 1).Li(NewRenderingContext(), sampler, sc, core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)))

	// albedo/π × cos 1 × I/d²
	expected := core.NewSpectrum(0.5 / math.Pi)
	if !vecClose(got, expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if sampler.remaining() != 0 {
		t.Errorf("Expected every scripted value to be used, %d left", sampler.remaining())
	}
}

// newFloorUnderLight builds a diffuse floor at y=0 below a unit ceiling light at y=1
func newFloorUnderLight() *scene.Scene {
	sc := newEmptyScene()
	sc.AddPrimitive(scene.NewGroundQuad(core.Vec3{}, 4), material.NewLambertian(core.NewSpectrum(0.5)))
	// (1,0,0) × (0,0,1) faces down
	sc.AddQuadLight(core.NewVec3(-0.5, 1, -0.5), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), core.NewSpectrum(3))
	return sc
}

func TestPathTracingEmitterNotCountedTwice(t *testing.T) {
	sc := preprocess(t, newFloorUnderLight())
	ray := core.NewRay(core.NewVec3(0.3, 0.5, 0.2), core.NewVec3(0, -1, 0))
	// Light selection, light sample, BSDF strategy, then a continuation straight up into the light
	draws := []float64{0.5, 0.5, 0.5, 0.1, 0.1, 0, 0}

	oneBounce := newIntegrator(t, 1, 1).Li(NewRenderingContext(), newSequenceSampler(draws...), sc, ray)
	twoBounces := newIntegrator(t, 1, 2).Li(NewRenderingContext(), newSequenceSampler(draws...), sc, ray)

	ctx := NewRenderingContext()
	var isect core.IntersectionInfo
	if !sc.Intersect(ray, ctx.Workspace, &isect) {
		t.Fatal("Expected to hit the floor")
	}
	bsdf := isect.Material.ComputeBsdf(ctx.Workspace, &isect)
	worldToLocal := core.CreateBsdfCoordTransform(isect.Normal)
	sp := &ShadingPoint{
		Isect:        &isect,
		Bsdf:         bsdf,
		WorldToLocal: worldToLocal,
		LocalToWorld: worldToLocal.Inverse(),
		Wo:           worldToLocal.ApplyVector(ray.Direction.Negate()),
	}
	direct := EstimateDirect(ctx.Workspace, newSequenceSampler(draws[1:5]...), sc, sp, sc.Lights[0])

	if direct.IsBlack() {
		t.Fatal("Expected the light to illuminate the floor")
	}
	if !vecClose(oneBounce, direct, 1e-12) {
		t.Errorf("Expected one-bounce radiance %v to equal the direct estimate %v", oneBounce, direct)
	}
	if !vecClose(twoBounces, oneBounce, 1e-12) {
		t.Errorf("Expected the light hit by the continuation ray to add nothing: %v vs %v", twoBounces, oneBounce)
	}
}

func TestPathTracingFurnace(t *testing.T) {
	albedo := core.NewSpectrum(0.8)
	sc := preprocess(t, scene.NewFurnaceScene(albedo, core.NewSpectrum(1)))
	pt := newIntegrator(t, 3, 8)
	ctx := NewRenderingContext()
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	eye := core.NewVec3(0, 0, 4)
	random := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		// Aim at a point inside the silhouette of the unit sphere
		target := core.NewVec3(random.Float64()*1.4-0.7, random.Float64()*1.4-0.7, 0)
		ray := core.NewRay(eye, target.Subtract(eye).Normalize())
		got := pt.Li(ctx, sampler, sc, ray)
		if !vecClose(got, albedo, 1e-9) {
			t.Fatalf("Expected %v for ray %d toward %v, got %v", albedo, i, target, got)
		}
	}

	background := pt.Li(ctx, sampler, sc, core.NewRay(eye, core.NewVec3(0, 1, 0)))
	if background != core.NewSpectrum(1) {
		t.Errorf("Expected background radiance 1, got %v", background)
	}
}

func TestPathTracingBuiltInScenesStayValid(t *testing.T) {
	for _, id := range []string{"cornell", "default", "spheregrid"} {
		t.Run(id, func(t *testing.T) {
			sc, err := scene.NewBuiltInScene(id, geometry.CameraConfig{Width: 8})
			if err != nil {
				t.Fatalf("NewBuiltInScene failed: %v", err)
			}
			preprocess(t, sc)
			cfg := sc.SamplingConfig
			pt := newIntegrator(t, cfg.MinBounces, cfg.MaxBounces)
			ctx := NewRenderingContext()
			sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

			lit := 0
			for j := 0; j < sc.Camera.Height(); j++ {
				for i := 0; i < sc.Camera.Width(); i++ {
					got := pt.Li(ctx, sampler, sc, sc.Camera.GetRay(i, j, sampler))
					if !got.IsValidRadiance() {
						t.Fatalf("Invalid radiance %v at pixel (%d,%d)", got, i, j)
					}
					if !got.IsBlack() {
						lit++
					}
				}
			}
			if lit == 0 {
				t.Error("Expected at least one lit pixel")
			}
		})
	}
}

func TestApplyRussianRoulette(t *testing.T) {
	tests := []struct {
		name       string
		throughput core.Vec3
		u          float64
		killed     bool
		expected   core.Vec3
	}{
		{"Survives", core.NewVec3(0.5, 0.2, 0.1), 0.4, false, core.NewVec3(1, 0.4, 0.2)},
		{"Killed", core.NewVec3(0.5, 0.2, 0.1), 0.6, true, core.Vec3{}},
		{"ZeroThroughput", core.Vec3{}, 0, true, core.Vec3{}},
		{"UnitThroughput", core.NewSpectrum(1), 0.999, false, core.NewSpectrum(1)},
		{"RoundedAboveOne", core.NewSpectrum(1 + 1e-12), 0.5, false, core.NewSpectrum(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			killed, got := ApplyRussianRoulette(tt.throughput, tt.u)
			if killed != tt.killed {
				t.Fatalf("Expected killed=%v, got %v", tt.killed, killed)
			}
			if !vecClose(got, tt.expected, 1e-12) {
				t.Errorf("Expected throughput %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestApplyRussianRouletteUnbiased(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	throughput := core.NewVec3(0.25, 0.1, 0.05)
	const trials = 200000

	sum := core.Vec3{}
	for i := 0; i < trials; i++ {
		if killed, corrected := ApplyRussianRoulette(throughput, random.Float64()); !killed {
			sum = sum.Add(corrected)
		}
	}
	mean := sum.Multiply(1.0 / trials)
	if !vecClose(mean, throughput, 0.005) {
		t.Errorf("Expected mean surviving throughput %v, got %v", throughput, mean)
	}
}

func TestApplyRussianRoulettePanics(t *testing.T) {
	tests := []struct {
		name       string
		throughput core.Vec3
	}{
		{"AboveOne", core.NewVec3(1.1, 0, 0)},
		{"Negative", core.NewVec3(0.5, -0.1, 0)},
		{"NaN", core.NewVec3(math.NaN(), 0.5, 0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for throughput %v", tt.throughput)
				}
			}()
			ApplyRussianRoulette(tt.throughput, 0.5)
		})
	}
}
