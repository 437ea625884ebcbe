package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int     // Size of each square tile in pixels
	InitialSamples     int     // Samples per pixel after the first pass
	MaxSamplesPerPixel int     // Samples per pixel after the last pass (0 = use the scene's setting)
	MaxPasses          int     // Maximum number of passes
	NumWorkers         int     // Number of parallel workers (0 = use CPU count)
	Seed               int64   // Base seed; tile i samples with Seed+i
	Gamma              float64 // Output gamma
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           32,
		InitialSamples:     1,
		MaxSamplesPerPixel: 0,
		MaxPasses:          7, // 1, 2, 4, 8, 16, 32, then the rest
		NumWorkers:         0,
		Seed:               42,
		Gamma:              2.2,
	}
}

// Validate reports the first invalid setting
func (c ProgressiveConfig) Validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	}
	if c.InitialSamples <= 0 {
		return fmt.Errorf("initial samples must be positive, got %d", c.InitialSamples)
	}
	if c.MaxSamplesPerPixel < 0 {
		return fmt.Errorf("max samples per pixel must be non-negative, got %d", c.MaxSamplesPerPixel)
	}
	if c.MaxPasses <= 0 {
		return fmt.Errorf("max passes must be positive, got %d", c.MaxPasses)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("worker count must be non-negative, got %d", c.NumWorkers)
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %f", c.Gamma)
	}
	return nil
}

// ProgressiveRenderer refines an image over several passes, each adding samples to every pixel.
// A ProgressiveRenderer renders once.
type ProgressiveRenderer struct {
	scene         *scene.Scene
	integrator    integrator.Integrator
	width, height int
	config        ProgressiveConfig
	tiles         []*Tile
	pixelStats    [][]PixelStats // Shared pixel statistics array (global image coordinates)
	samplesTaken  int            // Samples per pixel after the last finished pass
	logger        core.Logger
}

// NewProgressiveRenderer creates a progressive renderer; the scene must already be preprocessed
func NewProgressiveRenderer(sc *scene.Scene, integratorInst integrator.Integrator, config ProgressiveConfig, logger core.Logger) (*ProgressiveRenderer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid progressive config: %w", err)
	}
	if sc.BVH == nil || sc.LightSampler == nil {
		return nil, errors.New("scene must be preprocessed before rendering")
	}
	if config.MaxSamplesPerPixel == 0 {
		config.MaxSamplesPerPixel = max(sc.SamplingConfig.SamplesPerPixel, 1)
	}
	config.InitialSamples = min(config.InitialSamples, config.MaxSamplesPerPixel)
	if logger == nil {
		logger = NewDefaultLogger()
	}

	width, height := sc.Camera.Width(), sc.Camera.Height()
	return &ProgressiveRenderer{
		scene:      sc,
		integrator: integratorInst,
		width:      width,
		height:     height,
		config:     config,
		tiles:      NewTileGrid(width, height, config.TileSize, config.Seed),
		pixelStats: newPixelStats(width, height),
		logger:     logger,
	}, nil
}

// Config returns the effective progressive configuration
func (pr *ProgressiveRenderer) Config() ProgressiveConfig {
	return pr.config
}

// getSamplesForPass returns the samples per pixel the image holds after passNumber.
// The count doubles from InitialSamples and the last pass tops up to MaxSamplesPerPixel.
func (pr *ProgressiveRenderer) getSamplesForPass(passNumber int) int {
	if passNumber >= pr.config.MaxPasses {
		return pr.config.MaxSamplesPerPixel
	}
	target := pr.config.InitialSamples
	for pass := 1; pass < passNumber && target < pr.config.MaxSamplesPerPixel; pass++ {
		target *= 2
	}
	return min(target, pr.config.MaxSamplesPerPixel)
}

// renderPass brings every pixel up to the pass's sample target on a started pool
func (pr *ProgressiveRenderer) renderPass(ctx context.Context, pool *WorkerPool, passNumber int, tileCallback func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	targetSamples := pr.getSamplesForPass(passNumber)
	pr.logger.Printf("Pass %d: Target %d samples per pixel (using %d workers)...\n",
		passNumber, targetSamples, pool.GetNumWorkers())

	if added := targetSamples - pr.samplesTaken; added > 0 {
		tileNumber := 0
		var onTile func(*Tile)
		if tileCallback != nil {
			onTile = func(tile *Tile) {
				tileNumber++
				tileCallback(TileCompletionResult{
					TileX:       tile.Bounds.Min.X / pr.config.TileSize,
					TileY:       tile.Bounds.Min.Y / pr.config.TileSize,
					TileImage:   pr.extractTileImage(tile),
					PassNumber:  passNumber,
					TileNumber:  tileNumber,
					TotalTiles:  len(pr.tiles),
					TotalPasses: pr.config.MaxPasses,
				})
			}
		}
		if _, err := renderTiles(ctx, pool, pr.tiles, added, pr.pixelStats, onTile); err != nil {
			return nil, RenderStats{}, err
		}
		pr.samplesTaken = targetSamples
	}

	img, stats := pr.assembleCurrentImage()
	return img, stats, nil
}

// extractTileImage extracts a tile image from the shared pixel stats array
func (pr *ProgressiveRenderer) extractTileImage(tile *Tile) *image.RGBA {
	bounds := tile.Bounds
	tileImage := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			tileImage.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, Vec3ToColor(pr.pixelStats[y][x].GetColor(), pr.config.Gamma))
		}
	}
	return tileImage
}

// assembleCurrentImage creates an image from the current pixel stats and measures them in one sweep
func (pr *ProgressiveRenderer) assembleCurrentImage() (*image.RGBA, RenderStats) {
	img := image.NewRGBA(image.Rect(0, 0, pr.width, pr.height))
	stats := RenderStats{
		TotalPixels:   pr.width * pr.height,
		MinSamples:    pr.config.MaxSamplesPerPixel,
		TilesRendered: len(pr.tiles),
	}

	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			pixel := &pr.pixelStats[y][x]
			img.SetRGBA(x, y, Vec3ToColor(pixel.GetColor(), pr.config.Gamma))

			stats.TotalSamples += pixel.SampleCount
			stats.MinSamples = min(stats.MinSamples, pixel.SampleCount)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
		}
	}
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return img, stats
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // Image data for just this tile
	PassNumber int         // Which pass this tile was rendered in

	// Progress information
	TileNumber  int // Current tile number in this pass (1-based)
	TotalTiles  int // Total number of tiles in the image
	TotalPasses int // Total number of passes planned
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive renders on a background goroutine and returns channels for its events.
// The pass channel closes after the last pass; a failure or cancellation is delivered on the
// error channel before it closes. Tile events are dropped when the caller falls behind.
// If options.TileUpdates is false, the tile channel is closed immediately.
func (pr *ProgressiveRenderer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)

		pool := NewWorkerPool(pr.scene, pr.integrator, pr.config.NumWorkers, len(pr.tiles))
		pool.Start()
		defer pool.Stop()

		pr.logger.Printf("Starting progressive rendering of %dx%d with up to %d passes...\n", pr.width, pr.height, pr.config.MaxPasses)

		var tileCallback func(TileCompletionResult)
		if options.TileUpdates {
			tileCallback = func(result TileCompletionResult) {
				select {
				case tileChan <- result:
				default:
				}
			}
		}

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			if err := ctx.Err(); err != nil {
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- fmt.Errorf("render cancelled before pass %d: %w", pass, err)
				return
			}

			startTime := time.Now()
			img, stats, err := pr.renderPass(ctx, pool, pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}
			pr.logger.Printf("Pass %d completed in %v (%.1f samples/pixel)\n", pass, time.Since(startTime), stats.AverageSamples)

			isLast := pass == pr.config.MaxPasses || pr.samplesTaken >= pr.config.MaxSamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Image: img, Stats: stats, IsLast: isLast}:
			case <-ctx.Done():
				errChan <- fmt.Errorf("render cancelled after pass %d: %w", pass, ctx.Err())
				return
			}

			if isLast {
				break
			}
		}
	}()

	return passChan, tileChan, errChan
}
