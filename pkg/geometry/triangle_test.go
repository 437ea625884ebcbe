package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

func TestTriangleHit(t *testing.T) {
	// Triangle in the XY plane, counter-clockwise seen from +Z
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))

	tests := []struct {
		name      string
		ray       core.Ray
		shouldHit bool
		expectedT float64
		frontFace bool
	}{
		{"Center from front", core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1)), true, 1.0, true},
		{"Center from back", core.NewRay(core.NewVec3(0.25, 0.25, -2), core.NewVec3(0, 0, 1)), true, 2.0, false},
		{"Edge", core.NewRay(core.NewVec3(0.5, 0, -1), core.NewVec3(0, 0, 1)), true, 1.0, false},
		{"Outside", core.NewRay(core.NewVec3(1, 1, -1), core.NewVec3(0, 0, 1)), false, 0, false},
		{"Parallel", core.NewRay(core.NewVec3(0.25, 0.25, 0), core.NewVec3(1, 0, 0)), false, 0, false},
		{"Behind origin", core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, 1)), false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var isect core.IntersectionInfo
			hit := triangle.Hit(tt.ray, 0.001, 10, &isect)
			if hit != tt.shouldHit {
				t.Fatalf("Expected hit=%v, got %v", tt.shouldHit, hit)
			}
			if !hit {
				return
			}
			if math.Abs(isect.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got %f", tt.expectedT, isect.T)
			}
			if isect.FrontFace != tt.frontFace {
				t.Errorf("Expected frontFace=%v, got %v", tt.frontFace, isect.FrontFace)
			}
		})
	}
}

func TestTriangleBarycentricUV(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))
	var isect core.IntersectionInfo
	if !triangle.Hit(core.NewRay(core.NewVec3(0.2, 0.3, 1), core.NewVec3(0, 0, -1)), 0.001, 10, &isect) {
		t.Fatal("Expected hit")
	}
	if math.Abs(isect.UV.X-0.2) > 1e-9 || math.Abs(isect.UV.Y-0.3) > 1e-9 {
		t.Errorf("Expected UV (0.2, 0.3), got %v", isect.UV)
	}
}

func TestTriangleAreaSampling(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0))
	if math.Abs(triangle.Area()-2) > 1e-12 {
		t.Errorf("Expected area 2, got %f", triangle.Area())
	}

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	below := 0
	const samples = 20000
	for i := 0; i < samples; i++ {
		point, normal := triangle.SampleArea(sampler.Get2D())
		if point.Z != 0 || point.X < -1e-12 || point.Y < -1e-12 || point.X+point.Y > 2+1e-12 {
			t.Fatalf("Sample %v is outside the triangle", point)
		}
		if normal != core.NewVec3(0, 0, 1) {
			t.Fatalf("Expected normal +Z, got %v", normal)
		}
		if point.X+point.Y < 1 {
			below++
		}
	}

	// The inner triangle x+y<1 covers a quarter of the area
	fraction := float64(below) / samples
	if math.Abs(fraction-0.25) > 0.02 {
		t.Errorf("Expected a quarter of the samples near the corner, got %f", fraction)
	}
}

func TestTriangleBoundingBox(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(-1, 0, 2), core.NewVec3(3, 1, 2), core.NewVec3(0, 4, 2))
	box := triangle.BoundingBox()
	if box.Min.X > -1 || box.Min.Y > 0 || box.Min.Z >= 2 {
		t.Errorf("Bounding box min %v does not contain the triangle", box.Min)
	}
	if box.Max.X < 3 || box.Max.Y < 4 || box.Max.Z <= 2 {
		t.Errorf("Bounding box max %v does not contain the triangle", box.Max)
	}
}
