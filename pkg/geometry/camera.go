package geometry

import (
	"math"

	"github.com/usami-ray/go-pathtracer/pkg/core"
)

// CameraConfig describes a thin-lens perspective camera
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // Up direction
	Width         int       // Image width in pixels
	AspectRatio   float64   // Width / height
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter; 0 disables depth of field
	FocusDistance float64   // Distance to the focal plane; 0 focuses on LookAt
}

// Camera generates primary rays for pixel coordinates
type Camera struct {
	config       CameraConfig
	height       int
	pixel00      core.Vec3 // Center of the top-left pixel
	pixelDeltaU  core.Vec3
	pixelDeltaV  core.Vec3
	u, v, w      core.Vec3 // Camera basis; w points backwards
	lensRadius   float64
	defocusDiskU core.Vec3
	defocusDiskV core.Vec3
}

// NewCamera creates a new camera from config
func NewCamera(config CameraConfig) *Camera {
	height := max(int(float64(config.Width)/config.AspectRatio), 1)

	focusDistance := config.FocusDistance
	if focusDistance <= 0 {
		focusDistance = config.Center.Subtract(config.LookAt).Length()
	}

	theta := config.VFov * math.Pi / 180
	viewportHeight := 2 * math.Tan(theta/2) * focusDistance
	viewportWidth := viewportHeight * float64(config.Width) / float64(height)

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	viewportU := u.Multiply(viewportWidth)
	viewportV := v.Multiply(-viewportHeight)
	pixelDeltaU := viewportU.Multiply(1.0 / float64(config.Width))
	pixelDeltaV := viewportV.Multiply(1.0 / float64(height))

	upperLeft := config.Center.
		Subtract(w.Multiply(focusDistance)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))

	lensRadius := config.Aperture / 2
	return &Camera{
		config:       config,
		height:       height,
		pixel00:      upperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5)),
		pixelDeltaU:  pixelDeltaU,
		pixelDeltaV:  pixelDeltaV,
		u:            u,
		v:            v,
		w:            w,
		lensRadius:   lensRadius,
		defocusDiskU: u.Multiply(lensRadius),
		defocusDiskV: v.Multiply(lensRadius),
	}
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.config.Width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.height }

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig { return c.config }

// Forward returns the viewing direction
func (c *Camera) Forward() core.Vec3 { return c.w.Negate() }

// GetRay returns a ray through a jittered point in pixel (i, j), where (0, 0) is the top-left pixel
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	target := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + jitter.X - 0.5)).
		Add(c.pixelDeltaV.Multiply(float64(j) + jitter.Y - 0.5))

	origin := c.config.Center
	if c.lensRadius > 0 {
		p := sampleUnitDisk(sampler.Get2D())
		origin = origin.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
	}
	return core.RayFromTo(origin, target)
}

// sampleUnitDisk maps a square sample to the unit disk with Shirley's concentric mapping
func sampleUnitDisk(u core.Vec2) core.Vec2 {
	ox, oy := 2*u.X-1, 2*u.Y-1
	if ox == 0 && oy == 0 {
		return core.Vec2{}
	}
	var r, theta float64
	if math.Abs(ox) > math.Abs(oy) {
		r, theta = ox, (math.Pi/4)*(oy/ox)
	} else {
		r, theta = oy, math.Pi/2-(math.Pi/4)*(ox/oy)
	}
	return core.NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.Center != (core.Vec3{}) {
		result.Center = override.Center
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.Up != (core.Vec3{}) {
		result.Up = override.Up
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.Aperture != 0 {
		result.Aperture = override.Aperture
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}
	return result
}
