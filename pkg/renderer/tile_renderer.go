package renderer

import (
	"image"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	Seed   int64           // Seed of the tile's own sampler

	sampler core.Sampler
}

// NewTileGrid creates a grid of tiles covering the entire image in row-major order
func NewTileGrid(width, height, tileSize int, seed int64) []*Tile {
	var tiles []*Tile
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			id := len(tiles)
			tiles = append(tiles, &Tile{
				ID:     id,
				Bounds: image.Rect(x0, y0, min(x0+tileSize, width), min(y0+tileSize, height)),
				Seed:   seed + int64(id),
			})
		}
	}
	return tiles
}

// NewSampler returns a fresh sampler for the tile; the same tile always replays the same stream
func (t *Tile) NewSampler() core.Sampler {
	return core.NewSeededSampler(t.Seed)
}

// Sampler returns the tile's sampler, created on first use. Successive passes over the
// tile continue the same stream, so a tile must not be rendered by two workers at once.
func (t *Tile) Sampler() core.Sampler {
	if t.sampler == nil {
		t.sampler = t.NewSampler()
	}
	return t.sampler
}

// TileRenderer renders pixels of a scene with an integrator
type TileRenderer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
}

// NewTileRenderer creates a new tile renderer with the given scene and integrator
func NewTileRenderer(sc *scene.Scene, integratorInst integrator.Integrator) *TileRenderer {
	return &TileRenderer{
		scene:      sc,
		integrator: integratorInst,
	}
}

// RenderTileBounds takes samplesPerPixel camera samples for every pixel within bounds.
// Only the pixelStats entries inside bounds are written.
func (tr *TileRenderer) RenderTileBounds(ctx *integrator.RenderingContext, bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, samplesPerPixel int) RenderStats {
	camera := tr.scene.Camera
	stats := RenderStats{
		TotalPixels:   bounds.Dx() * bounds.Dy(),
		MinSamples:    samplesPerPixel,
		TilesRendered: 1,
	}

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			ps := &pixelStats[j][i]
			for s := 0; s < samplesPerPixel; s++ {
				ray := camera.GetRay(i, j, sampler)
				ps.AddSample(tr.integrator.Li(ctx, sampler, tr.scene, ray))
			}
			stats.TotalSamples += samplesPerPixel
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesPerPixel)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}
