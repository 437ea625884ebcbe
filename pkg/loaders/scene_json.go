package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/material"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// Defaults applied to fields a scene file leaves out
const (
	DefaultWidth           = 400
	DefaultAspectRatio     = 16.0 / 9.0
	DefaultVFov            = 40.0
	DefaultSamplesPerPixel = 16
	DefaultMinBounces      = 3
	DefaultMaxBounces      = 16
)

// ErrUnknownMaterial is returned when a surface names a material the file does not define
var ErrUnknownMaterial = errors.New("unknown material")

// Vec3Cfg is a JSON triple [x, y, z]
type Vec3Cfg [3]float64

// Vec3 converts the triple to a core vector
func (v Vec3Cfg) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

type CameraCfg struct {
	Center        Vec3Cfg `json:"center"`
	LookAt        Vec3Cfg `json:"lookAt"`
	Up            Vec3Cfg `json:"up,omitempty"`
	Width         int     `json:"width,omitempty"`
	AspectRatio   float64 `json:"aspectRatio,omitempty"`
	VFov          float64 `json:"vfov,omitempty"`
	Aperture      float64 `json:"aperture,omitempty"`
	FocusDistance float64 `json:"focusDistance,omitempty"`
}

type SamplingCfg struct {
	SamplesPerPixel int  `json:"spp,omitempty"`
	MinBounces      *int `json:"minBounces,omitempty"`
	MaxBounces      int  `json:"maxBounces,omitempty"`
}

type TextureCfg struct {
	Type     string  `json:"type"` // "checker" or "image"
	Scale    float64 `json:"scale,omitempty"`
	Even     Vec3Cfg `json:"even,omitempty"`
	Odd      Vec3Cfg `json:"odd,omitempty"`
	Path     string  `json:"path,omitempty"` // Relative to the scene file
	Bilinear bool    `json:"bilinear,omitempty"`
}

type MaterialCfg struct {
	Type    string      `json:"type"` // "lambertian", "mirror" or "dielectric"
	Albedo  Vec3Cfg     `json:"albedo,omitempty"`
	Texture *TextureCfg `json:"texture,omitempty"`
	IOR     float64     `json:"ior,omitempty"`
}

type SphereCfg struct {
	Center   Vec3Cfg `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

type QuadCfg struct {
	Corner   Vec3Cfg `json:"corner"`
	U        Vec3Cfg `json:"u"`
	V        Vec3Cfg `json:"v"`
	Material string  `json:"material"`
}

type DiscCfg struct {
	Center   Vec3Cfg `json:"center"`
	Normal   Vec3Cfg `json:"normal"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// BoxCfg is a box given by its center, half-extents and a rotation in degrees around X, Y, Z
type BoxCfg struct {
	Center   Vec3Cfg `json:"center"`
	Size     Vec3Cfg `json:"size"`
	Rotation Vec3Cfg `json:"rotation,omitempty"`
	Material string  `json:"material"`
}

// MeshCfg is an indexed triangle mesh; counter-clockwise faces point outward
type MeshCfg struct {
	Vertices []Vec3Cfg `json:"vertices"`
	Faces    []int     `json:"faces"`
	Rotation *Vec3Cfg  `json:"rotation,omitempty"` // Degrees around X, Y, Z
	Pivot    *Vec3Cfg  `json:"pivot,omitempty"`
	Material string    `json:"material"`
}

// LightCfg describes any light; which fields apply depends on Type:
// "point" (position, color), "directional" (direction, color), "uniform" (color),
// "gradient" (top, bottom), "sphere" (center, radius, color), "quad" (corner, u, v, color, twoSided),
// "disc" (center, normal, radius, color, twoSided),
// "spot" (position, target, coneAngle and coneDelta in degrees, color).
type LightCfg struct {
	Type      string  `json:"type"`
	Position  Vec3Cfg `json:"position,omitempty"`
	Direction Vec3Cfg `json:"direction,omitempty"`
	Color     Vec3Cfg `json:"color,omitempty"`
	Top       Vec3Cfg `json:"top,omitempty"`
	Bottom    Vec3Cfg `json:"bottom,omitempty"`
	Center    Vec3Cfg `json:"center,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
	Corner    Vec3Cfg `json:"corner,omitempty"`
	U         Vec3Cfg `json:"u,omitempty"`
	V         Vec3Cfg `json:"v,omitempty"`
	Normal    Vec3Cfg `json:"normal,omitempty"`
	TwoSided  bool    `json:"twoSided,omitempty"`
	Target    Vec3Cfg `json:"target,omitempty"`
	ConeAngle float64 `json:"coneAngle,omitempty"` // Cone half-angle
	ConeDelta float64 `json:"coneDelta,omitempty"` // Width of the falloff band at the cone edge
}

// SceneFile is the JSON scene description
type SceneFile struct {
	Camera         CameraCfg              `json:"camera"`
	Sampling       SamplingCfg            `json:"sampling"`
	LightSelection string                 `json:"lightSelection,omitempty"`
	Materials      map[string]MaterialCfg `json:"materials"`
	Spheres        []SphereCfg            `json:"spheres,omitempty"`
	Quads          []QuadCfg              `json:"quads,omitempty"`
	Discs          []DiscCfg              `json:"discs,omitempty"`
	Boxes          []BoxCfg               `json:"boxes,omitempty"`
	Meshes         []MeshCfg              `json:"meshes,omitempty"`
	Lights         []LightCfg             `json:"lights"`
}

// LoadScene reads a JSON scene file and builds the scene it describes.
// The returned scene still needs Preprocess.
func LoadScene(path string, logger core.Logger) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	var file SceneFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scene file %s: %w", path, err)
	}
	sc, err := file.Build(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", path, err)
	}
	if logger != nil {
		logger.Printf("Loaded scene %s: %dx%d, %d materials, %d primitives, %d lights, %d spp\n",
			path, sc.SamplingConfig.Width, sc.SamplingConfig.Height, len(file.Materials),
			sc.GetPrimitiveCount(), len(sc.Lights), sc.SamplingConfig.SamplesPerPixel)
	}
	return sc, nil
}

// Build validates the description and constructs the scene; baseDir resolves texture paths
func (f SceneFile) Build(baseDir string) (*scene.Scene, error) {
	cameraConfig := f.Camera.Build()
	samplingConfig, err := f.Sampling.Build()
	if err != nil {
		return nil, err
	}
	if len(f.Lights) == 0 {
		return nil, fmt.Errorf("scene has no lights")
	}

	materials := make(map[string]core.Material, len(f.Materials))
	// Sorted for stable error messages
	names := make([]string, 0, len(f.Materials))
	for name := range f.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m, err := f.Materials[name].Build(baseDir)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		materials[name] = m
	}
	lookup := func(name string) (core.Material, error) {
		m, ok := materials[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownMaterial, name)
		}
		return m, nil
	}

	sc := scene.NewScene(cameraConfig, samplingConfig)
	if f.LightSelection != "" {
		sc.LightSelection = scene.LightSelection(f.LightSelection)
	}

	for i, s := range f.Spheres {
		if s.Radius <= 0 {
			return nil, fmt.Errorf("sphere %d: radius must be > 0, got %g", i, s.Radius)
		}
		m, err := lookup(s.Material)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		sc.AddPrimitive(geometry.NewSphere(s.Center.Vec3(), s.Radius), m)
	}
	for i, q := range f.Quads {
		if q.U.Vec3().Cross(q.V.Vec3()).LengthSquared() == 0 {
			return nil, fmt.Errorf("quad %d: edges must not be parallel", i)
		}
		m, err := lookup(q.Material)
		if err != nil {
			return nil, fmt.Errorf("quad %d: %w", i, err)
		}
		sc.AddPrimitive(geometry.NewQuad(q.Corner.Vec3(), q.U.Vec3(), q.V.Vec3()), m)
	}
	for i, d := range f.Discs {
		if d.Radius <= 0 || d.Normal.Vec3().IsBlack() {
			return nil, fmt.Errorf("disc %d: needs radius > 0 and a normal", i)
		}
		m, err := lookup(d.Material)
		if err != nil {
			return nil, fmt.Errorf("disc %d: %w", i, err)
		}
		sc.AddPrimitive(geometry.NewDisc(d.Center.Vec3(), d.Normal.Vec3(), d.Radius), m)
	}
	for i, b := range f.Boxes {
		if b.Size[0] <= 0 || b.Size[1] <= 0 || b.Size[2] <= 0 {
			return nil, fmt.Errorf("box %d: size must be positive, got %v", i, b.Size)
		}
		m, err := lookup(b.Material)
		if err != nil {
			return nil, fmt.Errorf("box %d: %w", i, err)
		}
		sc.AddPrimitive(geometry.NewBox(b.Center.Vec3(), b.Size.Vec3(), degreesToRadians(b.Rotation)), m)
	}
	for i, mc := range f.Meshes {
		mesh, err := mc.Build()
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		m, err := lookup(mc.Material)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		sc.AddPrimitive(mesh, m)
	}
	for i, l := range f.Lights {
		if err := l.addTo(sc); err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
	}
	return sc, nil
}

// Build creates the mesh with its optional rotation applied
func (m MeshCfg) Build() (*geometry.TriangleMesh, error) {
	vertices := make([]core.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		vertices[i] = v.Vec3()
	}
	var options *geometry.TriangleMeshOptions
	if m.Rotation != nil {
		rotation := degreesToRadians(*m.Rotation)
		options = &geometry.TriangleMeshOptions{Rotation: &rotation}
		if m.Pivot != nil {
			pivot := m.Pivot.Vec3()
			options.Center = &pivot
		}
	}
	return geometry.NewTriangleMesh(vertices, m.Faces, options)
}

func degreesToRadians(v Vec3Cfg) core.Vec3 {
	return v.Vec3().Multiply(math.Pi / 180)
}

// Build fills defaults; a zero Up means +Y
func (c CameraCfg) Build() geometry.CameraConfig {
	cfg := geometry.CameraConfig{
		Center:        c.Center.Vec3(),
		LookAt:        c.LookAt.Vec3(),
		Up:            c.Up.Vec3(),
		Width:         c.Width,
		AspectRatio:   c.AspectRatio,
		VFov:          c.VFov,
		Aperture:      c.Aperture,
		FocusDistance: c.FocusDistance,
	}
	if cfg.Up.IsBlack() {
		cfg.Up = core.NewVec3(0, 1, 0)
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.AspectRatio <= 0 {
		cfg.AspectRatio = DefaultAspectRatio
	}
	if cfg.VFov <= 0 {
		cfg.VFov = DefaultVFov
	}
	return cfg
}

// Build fills defaults and checks the bounce limits
func (s SamplingCfg) Build() (scene.SamplingConfig, error) {
	cfg := scene.SamplingConfig{
		SamplesPerPixel: s.SamplesPerPixel,
		MinBounces:      DefaultMinBounces,
		MaxBounces:      s.MaxBounces,
	}
	if cfg.SamplesPerPixel <= 0 {
		cfg.SamplesPerPixel = DefaultSamplesPerPixel
	}
	if cfg.MaxBounces <= 0 {
		cfg.MaxBounces = DefaultMaxBounces
	}
	if s.MinBounces != nil {
		cfg.MinBounces = *s.MinBounces
	}
	if cfg.MinBounces < 0 || cfg.MinBounces > cfg.MaxBounces {
		return cfg, fmt.Errorf("sampling: need 0 <= minBounces <= maxBounces, got %d and %d", cfg.MinBounces, cfg.MaxBounces)
	}
	return cfg, nil
}

// Build validates the material and creates it
func (m MaterialCfg) Build(baseDir string) (core.Material, error) {
	switch m.Type {
	case "lambertian":
		if m.Texture != nil {
			texture, err := m.Texture.Build(baseDir)
			if err != nil {
				return nil, err
			}
			return material.NewTexturedLambertian(texture), nil
		}
		if err := checkAlbedo(m.Albedo); err != nil {
			return nil, err
		}
		return material.NewLambertian(m.Albedo.Vec3()), nil
	case "mirror":
		if err := checkAlbedo(m.Albedo); err != nil {
			return nil, err
		}
		return material.NewMirror(m.Albedo.Vec3()), nil
	case "dielectric":
		if m.IOR <= 0 {
			return nil, fmt.Errorf("dielectric needs ior > 0, got %g", m.IOR)
		}
		return material.NewDielectric(m.IOR), nil
	default:
		return nil, fmt.Errorf("unknown material type %q", m.Type)
	}
}

// Build creates the texture, loading image files relative to baseDir
func (t TextureCfg) Build(baseDir string) (material.ColorSource, error) {
	switch t.Type {
	case "checker":
		if err := checkAlbedo(t.Even); err != nil {
			return nil, fmt.Errorf("checker even: %w", err)
		}
		if err := checkAlbedo(t.Odd); err != nil {
			return nil, fmt.Errorf("checker odd: %w", err)
		}
		return material.NewCheckerboardTexture(t.Scale, t.Even.Vec3(), t.Odd.Vec3()), nil
	case "image":
		if t.Path == "" {
			return nil, fmt.Errorf("image texture needs a path")
		}
		path := t.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return LoadImageTexture(path, t.Bilinear)
	default:
		return nil, fmt.Errorf("unknown texture type %q", t.Type)
	}
}

// checkAlbedo keeps reflectance physically plausible so path throughput never grows
func checkAlbedo(albedo Vec3Cfg) error {
	for _, c := range albedo {
		if c < 0 || c > 1 {
			return fmt.Errorf("albedo components must lie in [0, 1], got %v", albedo)
		}
	}
	return nil
}

func checkEmission(color Vec3Cfg) error {
	for _, c := range color {
		if c < 0 {
			return fmt.Errorf("light color must be non-negative, got %v", color)
		}
	}
	return nil
}

func (l LightCfg) addTo(sc *scene.Scene) error {
	if err := checkEmission(l.Color); err != nil {
		return err
	}
	switch l.Type {
	case "point":
		sc.AddPointLight(l.Position.Vec3(), l.Color.Vec3())
	case "directional":
		if l.Direction.Vec3().IsBlack() {
			return fmt.Errorf("directional light needs a direction")
		}
		sc.AddDirectionalLight(l.Direction.Vec3(), l.Color.Vec3())
	case "uniform":
		sc.AddUniformInfiniteLight(l.Color.Vec3())
	case "gradient":
		if err := checkEmission(l.Top); err != nil {
			return err
		}
		if err := checkEmission(l.Bottom); err != nil {
			return err
		}
		sc.AddGradientInfiniteLight(l.Top.Vec3(), l.Bottom.Vec3())
	case "sphere":
		if l.Radius <= 0 {
			return fmt.Errorf("sphere light radius must be > 0, got %g", l.Radius)
		}
		sc.AddSphereLight(l.Center.Vec3(), l.Radius, l.Color.Vec3())
	case "quad":
		if l.U.Vec3().Cross(l.V.Vec3()).LengthSquared() == 0 {
			return fmt.Errorf("quad light edges must not be parallel")
		}
		sc.AddAreaLight(geometry.NewQuad(l.Corner.Vec3(), l.U.Vec3(), l.V.Vec3()), l.Color.Vec3(), l.TwoSided)
	case "disc":
		if l.Radius <= 0 || l.Normal.Vec3().IsBlack() {
			return fmt.Errorf("disc light needs radius > 0 and a normal")
		}
		sc.AddAreaLight(geometry.NewDisc(l.Center.Vec3(), l.Normal.Vec3(), l.Radius), l.Color.Vec3(), l.TwoSided)
	case "spot":
		if l.Target.Vec3().Subtract(l.Position.Vec3()).LengthSquared() == 0 {
			return fmt.Errorf("spot light target must differ from its position")
		}
		if l.ConeAngle <= 0 || l.ConeAngle > 180 || l.ConeDelta < 0 || l.ConeDelta > l.ConeAngle {
			return fmt.Errorf("spot light needs 0 < coneAngle <= 180 and 0 <= coneDelta <= coneAngle, got %g and %g", l.ConeAngle, l.ConeDelta)
		}
		sc.AddSpotLight(l.Position.Vec3(), l.Target.Vec3(), l.Color.Vec3(), l.ConeAngle, l.ConeDelta)
	default:
		return fmt.Errorf("unknown light type %q", l.Type)
	}
	return nil
}
