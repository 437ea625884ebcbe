package renderer

import (
	"image"
	"sync/atomic"
	"testing"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// constantIntegrator returns a fixed radiance and counts its calls
type constantIntegrator struct {
	radiance core.Vec3
	calls    atomic.Int64
}

func (c *constantIntegrator) Li(ctx *integrator.RenderingContext, sampler core.Sampler, sc *scene.Scene, cameraRay core.Ray) core.Vec3 {
	c.calls.Add(1)
	return c.radiance
}

func newTestScene(t *testing.T, width int) *scene.Scene {
	t.Helper()
	sc := scene.NewFurnaceScene(core.NewSpectrum(0.8), core.NewSpectrum(1), geometry.CameraConfig{Width: width})
	if err := sc.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	return sc
}

func TestNewTileGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		tileSize      int
		expectedTiles int
	}{
		{"ExactFit", 64, 32, 16, 8},
		{"PartialEdges", 50, 30, 16, 8},
		{"SingleTile", 10, 10, 64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := NewTileGrid(tt.width, tt.height, tt.tileSize, 100)
			if len(tiles) != tt.expectedTiles {
				t.Fatalf("Expected %d tiles, got %d", tt.expectedTiles, len(tiles))
			}

			covered := make([][]int, tt.height)
			for y := range covered {
				covered[y] = make([]int, tt.width)
			}
			for i, tile := range tiles {
				if tile.ID != i || tile.Seed != 100+int64(i) {
					t.Errorf("Tile %d has ID %d and seed %d", i, tile.ID, tile.Seed)
				}
				for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
					for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
						covered[y][x]++
					}
				}
			}
			for y := range covered {
				for x := range covered[y] {
					if covered[y][x] != 1 {
						t.Fatalf("Pixel (%d,%d) covered %d times", x, y, covered[y][x])
					}
				}
			}
		})
	}
}

func TestTileSamplerReplays(t *testing.T) {
	tile := NewTileGrid(8, 8, 8, 7)[0]
	a, b := tile.NewSampler(), tile.NewSampler()
	for i := 0; i < 10; i++ {
		if a.Get1D() != b.Get1D() {
			t.Fatal("Expected identical streams from the same tile")
		}
	}
}

func TestRenderTileBounds(t *testing.T) {
	sc := newTestScene(t, 8)
	mock := &constantIntegrator{radiance: core.NewVec3(0.2, 0.4, 0.6)}
	tr := NewTileRenderer(sc, mock)

	pixelStats := make([][]PixelStats, sc.Camera.Height())
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, sc.Camera.Width())
	}
	bounds := image.Rect(2, 1, 5, 3)

	stats := tr.RenderTileBounds(integrator.NewRenderingContext(), bounds, pixelStats, core.NewSeededSampler(1), 3)

	if mock.calls.Load() != 18 {
		t.Errorf("Expected 18 integrator calls, got %d", mock.calls.Load())
	}
	if stats.TotalPixels != 6 || stats.TotalSamples != 18 || stats.AverageSamples != 3 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	for y := range pixelStats {
		for x := range pixelStats[y] {
			inside := image.Pt(x, y).In(bounds)
			count := pixelStats[y][x].SampleCount
			if inside && count != 3 {
				t.Errorf("Pixel (%d,%d) inside the tile has %d samples", x, y, count)
			}
			if !inside && count != 0 {
				t.Errorf("Pixel (%d,%d) outside the tile was written", x, y)
			}
		}
	}
}
