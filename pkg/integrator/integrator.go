package integrator

import (
	"fmt"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Li returns one radiance estimate along cameraRay.
	// ctx and sampler are owned by the calling goroutine; the scene is read-only.
	Li(ctx *RenderingContext, sampler core.Sampler, sc *scene.Scene, cameraRay core.Ray) core.Vec3
}

// RenderingContext holds the per-goroutine mutable state an integrator needs
type RenderingContext struct {
	Workspace *core.Workspace
}

// NewRenderingContext creates a context with an empty workspace
func NewRenderingContext() *RenderingContext {
	return &RenderingContext{Workspace: core.NewWorkspace()}
}

// Config holds the bounce limits of a path tracer
type Config struct {
	MinBounces int // Bounces exempt from Russian roulette
	MaxBounces int // Hard limit on path length
}

// DefaultConfig returns the default bounce limits
func DefaultConfig() Config {
	return Config{MinBounces: 3, MaxBounces: 16}
}

// Validate checks that 0 <= MinBounces <= MaxBounces
func (c Config) Validate() error {
	if c.MinBounces < 0 {
		return fmt.Errorf("min bounces must be non-negative, got %d", c.MinBounces)
	}
	if c.MaxBounces < c.MinBounces {
		return fmt.Errorf("max bounces (%d) must not be less than min bounces (%d)", c.MaxBounces, c.MinBounces)
	}
	return nil
}
