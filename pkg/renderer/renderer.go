package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains configuration for a render
type Config struct {
	TileSize        int     // Size of each square tile in pixels
	SamplesPerPixel int     // Camera samples per pixel (0 = use the scene's setting)
	NumWorkers      int     // Number of parallel workers (0 = use CPU count)
	Seed            int64   // Base seed; tile i samples with Seed+i
	Gamma           float64 // Output gamma
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:        32,
		SamplesPerPixel: 0,
		NumWorkers:      0,
		Seed:            42,
		Gamma:           2.2,
	}
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	}
	if c.SamplesPerPixel < 0 {
		return fmt.Errorf("samples per pixel must be non-negative, got %d", c.SamplesPerPixel)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("worker count must be non-negative, got %d", c.NumWorkers)
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %f", c.Gamma)
	}
	return nil
}

// Renderer renders a preprocessed scene into an 8-bit image
type Renderer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	config     Config
	logger     core.Logger
}

// NewRenderer creates a renderer; the scene must already be preprocessed
func NewRenderer(sc *scene.Scene, integratorInst integrator.Integrator, config Config, logger core.Logger) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render config: %w", err)
	}
	if sc.BVH == nil || sc.LightSampler == nil {
		return nil, errors.New("scene must be preprocessed before rendering")
	}
	if config.SamplesPerPixel == 0 {
		config.SamplesPerPixel = max(sc.SamplingConfig.SamplesPerPixel, 1)
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &Renderer{scene: sc, integrator: integratorInst, config: config, logger: logger}, nil
}

// Config returns the effective render configuration
func (r *Renderer) Config() Config {
	return r.config
}

// Render splits the image into tiles and renders them on the worker pool.
// The result does not depend on the number of workers or on scheduling.
func (r *Renderer) Render(ctx context.Context) (*image.RGBA, RenderStats, error) {
	width, height := r.scene.Camera.Width(), r.scene.Camera.Height()
	tiles := NewTileGrid(width, height, r.config.TileSize, r.config.Seed)
	pixelStats := newPixelStats(width, height)

	pool := NewWorkerPool(r.scene, r.integrator, r.config.NumWorkers, len(tiles))
	r.logger.Printf("Rendering %dx%d at %d spp: %d tiles on %d workers\n",
		width, height, r.config.SamplesPerPixel, len(tiles), pool.GetNumWorkers())

	start := time.Now()
	pool.Start()
	defer pool.Stop()

	stats, err := renderTiles(ctx, pool, tiles, r.config.SamplesPerPixel, pixelStats, nil)
	if err != nil {
		return nil, stats, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, Vec3ToColor(pixelStats[y][x].GetColor(), r.config.Gamma))
		}
	}

	r.logger.Printf("Render completed in %v (%.1f samples per pixel)\n", time.Since(start), stats.AverageSamples)
	return img, stats, nil
}

func newPixelStats(width, height int) [][]PixelStats {
	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}
	return pixelStats
}

// renderTiles adds samplesPerPixel samples to every tile on a started pool and waits for them.
// onTile, when set, runs on the calling goroutine after each finished tile.
// Once ctx is cancelled no tile starts, and the returned error wraps ctx.Err().
func renderTiles(ctx context.Context, pool *WorkerPool, tiles []*Tile, samplesPerPixel int, pixelStats [][]PixelStats, onTile func(*Tile)) (RenderStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	submitted := 0
	for _, tile := range tiles {
		if ctx.Err() != nil {
			break
		}
		pool.SubmitTask(TileTask{Ctx: ctx, Tile: tile, SamplesPerPixel: samplesPerPixel, PixelStats: pixelStats})
		submitted++
	}

	var stats RenderStats
	var renderErr error
	for i := 0; i < submitted; i++ {
		result, ok := <-pool.Results()
		if !ok {
			return stats, errors.New("worker pool closed unexpectedly")
		}
		switch {
		case result.Error != nil:
			if renderErr == nil {
				renderErr = result.Error
			}
			cancel()
		case result.Skipped:
		default:
			stats.merge(result.Stats)
			if onTile != nil {
				onTile(tiles[result.TileID])
			}
		}
	}

	if renderErr != nil {
		return stats, fmt.Errorf("render failed: %w", renderErr)
	}
	if stats.TilesRendered < len(tiles) {
		return stats, fmt.Errorf("render cancelled after %d of %d tiles: %w", stats.TilesRendered, len(tiles), ctx.Err())
	}
	return stats, nil
}

// SavePNG writes img to path, creating parent directories as needed
func SavePNG(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return file.Close()
}
