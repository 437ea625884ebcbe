package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/loaders"
	"github.com/usami-ray/go-pathtracer/pkg/renderer"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	sceneID    string
	configPath string
	width      int
	spp        int
	passes     int
	minBounce  int
	maxBounce  int
	workers    int
	tileSize   int
	seed       int64
	gamma      float64
	output     string
	help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, renderer.NewDefaultLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (options, *flag.FlagSet, error) {
	var opts options
	defaults := renderer.DefaultConfig()

	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.sceneID, "scene", "default", "Built-in scene ID")
	fs.StringVar(&opts.configPath, "config", "", "JSON scene file (overrides -scene)")
	fs.IntVar(&opts.width, "width", 0, "Image width in pixels (0 = scene default)")
	fs.IntVar(&opts.spp, "spp", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.passes, "passes", 1, "Progressive passes, doubling the samples each pass (1 = single pass)")
	fs.IntVar(&opts.minBounce, "min-bounce", -1, "Bounces before Russian roulette (-1 = scene default)")
	fs.IntVar(&opts.maxBounce, "max-bounce", -1, "Maximum path length (-1 = scene default)")
	fs.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	fs.IntVar(&opts.tileSize, "tile", defaults.TileSize, "Tile size in pixels")
	fs.Int64Var(&opts.seed, "seed", defaults.Seed, "Base random seed")
	fs.Float64Var(&opts.gamma, "gamma", defaults.Gamma, "Output gamma")
	fs.StringVar(&opts.output, "output", "", "Output PNG path (default output/<scene>/render_<timestamp>.png)")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	err := fs.Parse(args)
	return opts, fs, err
}

func printHelp(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Path Tracer")
	fmt.Fprintln(out, "Usage: pathtracer [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Available scenes:")
	for _, info := range scene.ListBuiltInScenes() {
		fmt.Fprintf(out, "  %-10s - %s\n", info.ID, info.Description)
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger core.Logger) error {
	opts, fs, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.help {
		printHelp(out, fs)
		return nil
	}

	sc, name, err := createScene(opts, logger)
	if err != nil {
		return err
	}

	integratorConfig := integratorConfigFor(sc, opts)
	pt, err := integrator.NewPathTracingIntegrator(integratorConfig)
	if err != nil {
		return err
	}
	if err := sc.Preprocess(); err != nil {
		return fmt.Errorf("preprocess scene: %w", err)
	}
	logger.Printf("Scene %s: %d primitives, %d lights (%s selection), bounces %d-%d\n",
		name, sc.GetPrimitiveCount(), len(sc.Lights), sc.LightSelection, integratorConfig.MinBounces, integratorConfig.MaxBounces)

	var img *image.RGBA
	var stats renderer.RenderStats
	if opts.passes > 1 {
		img, stats, err = renderProgressive(ctx, sc, pt, opts, logger)
	} else {
		img, stats, err = renderSinglePass(ctx, sc, pt, opts, logger)
	}
	if err != nil {
		return err
	}
	logger.Printf("Samples per pixel: %.1f (range %d - %d), average luminance %.3f\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, renderer.CalculateAverageLuminance(img))

	output := opts.output
	if output == "" {
		timestamp := time.Now().Format("20060102_150405")
		output = filepath.Join("output", name, fmt.Sprintf("render_%s.png", timestamp))
	}
	if err := renderer.SavePNG(img, output); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", output)
	return nil
}

func renderSinglePass(ctx context.Context, sc *scene.Scene, pt integrator.Integrator, opts options, logger core.Logger) (*image.RGBA, renderer.RenderStats, error) {
	config := renderer.Config{
		TileSize:        opts.tileSize,
		SamplesPerPixel: opts.spp,
		NumWorkers:      opts.workers,
		Seed:            opts.seed,
		Gamma:           opts.gamma,
	}
	r, err := renderer.NewRenderer(sc, pt, config, logger)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}
	return r.Render(ctx)
}

// renderProgressive runs the passes in turn and keeps the image of the last one
func renderProgressive(ctx context.Context, sc *scene.Scene, pt integrator.Integrator, opts options, logger core.Logger) (*image.RGBA, renderer.RenderStats, error) {
	config := renderer.ProgressiveConfig{
		TileSize:           opts.tileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: opts.spp,
		MaxPasses:          opts.passes,
		NumWorkers:         opts.workers,
		Seed:               opts.seed,
		Gamma:              opts.gamma,
	}
	pr, err := renderer.NewProgressiveRenderer(sc, pt, config, logger)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}

	passChan, _, errChan := pr.RenderProgressive(ctx, renderer.RenderOptions{})
	var last renderer.PassResult
	for pass := range passChan {
		last = pass
	}
	if err := <-errChan; err != nil {
		return nil, last.Stats, err
	}
	return last.Image, last.Stats, nil
}

// createScene loads the JSON scene when one is given, otherwise the named built-in scene
func createScene(opts options, logger core.Logger) (*scene.Scene, string, error) {
	if opts.configPath != "" {
		sc, err := loaders.LoadScene(opts.configPath, logger)
		if err != nil {
			return nil, "", err
		}
		if opts.width > 0 {
			sc.Camera = geometry.NewCamera(geometry.MergeCameraConfig(sc.CameraConfig, geometry.CameraConfig{Width: opts.width}))
			sc.CameraConfig = sc.Camera.Config()
			sc.SamplingConfig.Width = sc.Camera.Width()
			sc.SamplingConfig.Height = sc.Camera.Height()
		}
		name := filepath.Base(opts.configPath)
		return sc, name[:len(name)-len(filepath.Ext(name))], nil
	}

	sc, err := scene.NewBuiltInScene(opts.sceneID, geometry.CameraConfig{Width: opts.width})
	if err != nil {
		return nil, "", err
	}
	return sc, opts.sceneID, nil
}

// integratorConfigFor starts from the scene's bounce limits and applies command line overrides
func integratorConfigFor(sc *scene.Scene, opts options) integrator.Config {
	config := integrator.Config{
		MinBounces: sc.SamplingConfig.MinBounces,
		MaxBounces: sc.SamplingConfig.MaxBounces,
	}
	if config.MaxBounces <= 0 {
		config = integrator.DefaultConfig()
	}
	if opts.minBounce >= 0 {
		config.MinBounces = opts.minBounce
	}
	if opts.maxBounce >= 0 {
		config.MaxBounces = opts.maxBounce
	}
	return config
}
