package loaders

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/lights"
	"github.com/usami-ray/go-pathtracer/pkg/material"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, format)
}

const fullSceneJSON = `{
  "camera": {"center": [0, 1, 5], "lookAt": [0, 0, 0], "width": 64, "aspectRatio": 2, "vfov": 30},
  "sampling": {"spp": 8, "minBounces": 0, "maxBounces": 5},
  "lightSelection": "power",
  "materials": {
    "white": {"type": "lambertian", "albedo": [0.8, 0.8, 0.8]},
    "floor": {"type": "lambertian", "texture": {"type": "checker", "scale": 0.5, "even": [0.9, 0.9, 0.9], "odd": [0.1, 0.1, 0.1]}},
    "photo": {"type": "lambertian", "texture": {"type": "image", "path": "test.png", "bilinear": true}},
    "chrome": {"type": "mirror", "albedo": [0.9, 0.9, 0.9]},
    "glass": {"type": "dielectric", "ior": 1.5}
  },
  "spheres": [
    {"center": [0, 0.5, 0], "radius": 0.5, "material": "white"},
    {"center": [1, 0.5, 0], "radius": 0.5, "material": "chrome"},
    {"center": [-1, 0.5, 0], "radius": 0.5, "material": "glass"}
  ],
  "quads": [
    {"corner": [-5, 0, -5], "u": [0, 0, 10], "v": [10, 0, 0], "material": "floor"},
    {"corner": [-1, 0, -2], "u": [2, 0, 0], "v": [0, 2, 0], "material": "photo"}
  ],
  "lights": [
    {"type": "point", "position": [0, 4, 0], "color": [10, 10, 10]},
    {"type": "directional", "direction": [0, -1, -1], "color": [1, 1, 1]},
    {"type": "uniform", "color": [0.1, 0.1, 0.1]},
    {"type": "gradient", "top": [0.5, 0.7, 1], "bottom": [1, 1, 1]},
    {"type": "sphere", "center": [0, 3, 0], "radius": 0.25, "color": [8, 8, 8]},
    {"type": "quad", "corner": [-0.5, 2.5, -0.5], "u": [1, 0, 0], "v": [0, 0, 1], "color": [4, 4, 4], "twoSided": true}
  ]
}`

func writeScene(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	return path
}

func TestLoadScene(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir)
	logger := &recordingLogger{}

	sc, err := LoadScene(writeScene(t, dir, fullSceneJSON), logger)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}

	if sc.Camera.Width() != 64 || sc.Camera.Height() != 32 {
		t.Errorf("Expected 64x32 camera, got %dx%d", sc.Camera.Width(), sc.Camera.Height())
	}
	cfg := sc.SamplingConfig
	if cfg.SamplesPerPixel != 8 || cfg.MinBounces != 0 || cfg.MaxBounces != 5 {
		t.Errorf("Unexpected sampling config %+v", cfg)
	}
	if sc.LightSelection != scene.LightSelectionPower {
		t.Errorf("Expected power light selection, got %q", sc.LightSelection)
	}
	// 3 spheres, 2 quads and the two area light surfaces
	if sc.GetPrimitiveCount() != 7 {
		t.Errorf("Expected 7 primitives, got %d", sc.GetPrimitiveCount())
	}

	expectedTypes := []lights.LightType{
		lights.LightTypeDeltaPoint,
		lights.LightTypeDeltaDirection,
		lights.LightTypeInfinite,
		lights.LightTypeInfinite,
		lights.LightTypeArea,
		lights.LightTypeArea,
	}
	if len(sc.Lights) != len(expectedTypes) {
		t.Fatalf("Expected %d lights, got %d", len(expectedTypes), len(sc.Lights))
	}
	for i, want := range expectedTypes {
		if got := sc.Lights[i].Type(); got != want {
			t.Errorf("Light %d: expected %s, got %s", i, want, got)
		}
	}
	if quad, ok := sc.Lights[5].(*lights.AreaLight); !ok || !quad.TwoSided {
		t.Error("Expected a two-sided quad light")
	}

	if _, ok := sc.Primitives[1].Material.(*material.Mirror); !ok {
		t.Errorf("Expected mirror on the second sphere, got %T", sc.Primitives[1].Material)
	}
	photo, ok := sc.Primitives[4].Material.(*material.Lambertian)
	if !ok {
		t.Fatalf("Expected lambertian on the photo quad, got %T", sc.Primitives[4].Material)
	}
	if texture, ok := photo.Albedo.(*material.ImageTexture); !ok || !texture.Bilinear {
		t.Errorf("Expected a bilinear image texture, got %T", photo.Albedo)
	}

	if err := sc.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if len(logger.lines) != 1 {
		t.Errorf("Expected one log line, got %d", len(logger.lines))
	}
}

func TestLoadSceneDefaults(t *testing.T) {
	content := `{
	  "camera": {"center": [0, 0, 3], "lookAt": [0, 0, 0]},
	  "materials": {"grey": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}},
	  "spheres": [{"center": [0, 0, 0], "radius": 1, "material": "grey"}],
	  "lights": [{"type": "uniform", "color": [1, 1, 1]}]
	}`
	sc, err := LoadScene(writeScene(t, t.TempDir(), content), nil)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}

	camera := sc.Camera.Config()
	if camera.Width != DefaultWidth || camera.AspectRatio != DefaultAspectRatio || camera.VFov != DefaultVFov {
		t.Errorf("Expected default camera, got %+v", camera)
	}
	if camera.Up != core.NewVec3(0, 1, 0) {
		t.Errorf("Expected default up vector, got %v", camera.Up)
	}
	cfg := sc.SamplingConfig
	if cfg.SamplesPerPixel != DefaultSamplesPerPixel || cfg.MinBounces != DefaultMinBounces || cfg.MaxBounces != DefaultMaxBounces {
		t.Errorf("Expected default sampling, got %+v", cfg)
	}
	if sc.LightSelection != scene.LightSelectionUniform {
		t.Errorf("Expected uniform light selection, got %q", sc.LightSelection)
	}
}

func TestLoadSceneErrors(t *testing.T) {
	base := func(materials, surfaces, lightList string) string {
		return `{"camera": {"center": [0, 0, 3], "lookAt": [0, 0, 0]},
		  "materials": {` + materials + `},` + surfaces + `
		  "lights": [` + lightList + `]}`
	}
	grey := `"grey": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}`
	sphere := `"spheres": [{"center": [0, 0, 0], "radius": 1, "material": "grey"}],`
	sky := `{"type": "uniform", "color": [1, 1, 1]}`

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"MalformedJSON", `{"camera": `, "parse scene file"},
		{"NoLights", base(grey, sphere, ""), "no lights"},
		{"UnknownMaterial", base(grey, `"spheres": [{"center": [0, 0, 0], "radius": 1, "material": "gold"}],`, sky), "unknown material"},
		{"AlbedoAboveOne", base(`"hot": {"type": "lambertian", "albedo": [1.2, 0.5, 0.5]}`, "", sky), "albedo"},
		{"NegativeAlbedo", base(`"dark": {"type": "mirror", "albedo": [-0.1, 0.5, 0.5]}`, "", sky), "albedo"},
		{"CheckerAboveOne", base(`"c": {"type": "lambertian", "texture": {"type": "checker", "even": [2, 2, 2], "odd": [0, 0, 0]}}`, "", sky), "checker even"},
		{"MissingImage", base(`"img": {"type": "lambertian", "texture": {"type": "image", "path": "missing.png"}}`, "", sky), "failed to open image"},
		{"UnknownTexture", base(`"n": {"type": "lambertian", "texture": {"type": "noise"}}`, "", sky), "unknown texture type"},
		{"UnknownMaterialType", base(`"m": {"type": "metal"}`, "", sky), "unknown material type"},
		{"BadIOR", base(`"g": {"type": "dielectric"}`, "", sky), "ior"},
		{"ZeroRadius", base(grey, `"spheres": [{"center": [0, 0, 0], "radius": 0, "material": "grey"}],`, sky), "radius"},
		{"DegenerateQuad", base(grey, `"quads": [{"corner": [0, 0, 0], "u": [1, 0, 0], "v": [2, 0, 0], "material": "grey"}],`, sky), "parallel"},
		{"UnknownLight", base(grey, sphere, `{"type": "laser"}`), "unknown light type"},
		{"SpotTargetAtPosition", base(grey, sphere, `{"type": "spot", "position": [0, 2, 0], "target": [0, 2, 0], "coneAngle": 30, "color": [1, 1, 1]}`), "target"},
		{"SpotDeltaTooWide", base(grey, sphere, `{"type": "spot", "position": [0, 2, 0], "target": [0, 0, 0], "coneAngle": 30, "coneDelta": 40, "color": [1, 1, 1]}`), "coneDelta"},
		{"NegativeEmission", base(grey, sphere, `{"type": "point", "color": [-1, 0, 0]}`), "non-negative"},
		{"DirectionlessSun", base(grey, sphere, `{"type": "directional", "color": [1, 1, 1]}`), "direction"},
		{"FlatBox", base(grey, `"boxes": [{"center": [0, 0, 0], "size": [1, 0, 1], "material": "grey"}],`, sky), "size must be positive"},
		{"DiscWithoutNormal", base(grey, `"discs": [{"center": [0, 0, 0], "radius": 1, "material": "grey"}],`, sky), "normal"},
		{"MeshBadIndex", base(grey, `"meshes": [{"vertices": [[0, 0, 0], [1, 0, 0], [0, 1, 0]], "faces": [0, 1, 5], "material": "grey"}],`, sky), "out of range"},
		{"DiscLightWithoutRadius", base(grey, sphere, `{"type": "disc", "normal": [0, -1, 0], "color": [1, 1, 1]}`), "radius"},
		{"BounceOrder", `{"camera": {"center": [0, 0, 3]}, "sampling": {"minBounces": 9, "maxBounces": 4}, "lights": [` + sky + `]}`, "minBounces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScene(writeScene(t, t.TempDir(), tt.content), nil)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}

func TestLoadSceneUnknownMaterialIsWrapped(t *testing.T) {
	content := `{"camera": {"center": [0, 0, 3]},
	  "quads": [{"corner": [0, 0, 0], "u": [1, 0, 0], "v": [0, 1, 0], "material": "missing"}],
	  "lights": [{"type": "uniform", "color": [1, 1, 1]}]}`
	_, err := LoadScene(writeScene(t, t.TempDir(), content), nil)
	if !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("Expected ErrUnknownMaterial, got %v", err)
	}
}

func TestLoadSceneMissingFile(t *testing.T) {
	_, err := LoadScene(filepath.Join(t.TempDir(), "absent.json"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}

func TestLoadSceneShapes(t *testing.T) {
	content := `{
	  "camera": {"center": [0, 2, 6], "lookAt": [0, 0, 0], "width": 16},
	  "materials": {"grey": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}},
	  "discs": [{"center": [0, 0, 0], "normal": [0, 1, 0], "radius": 3, "material": "grey"}],
	  "boxes": [{"center": [0, 1, 0], "size": [0.5, 1, 0.5], "rotation": [0, 45, 0], "material": "grey"}],
	  "meshes": [{
	    "vertices": [[2, 0, 0], [3, 0, 0], [2, 1, 0]],
	    "faces": [0, 1, 2],
	    "rotation": [0, 90, 0],
	    "pivot": [2, 0, 0],
	    "material": "grey"
	  }],
	  "lights": [{"type": "disc", "center": [0, 4, 0], "normal": [0, -1, 0], "radius": 0.5, "color": [5, 5, 5]}]
	}`
	sc, err := LoadScene(writeScene(t, t.TempDir(), content), nil)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	if sc.GetPrimitiveCount() != 4 {
		t.Fatalf("Expected 4 primitives, got %d", sc.GetPrimitiveCount())
	}
	if _, ok := sc.Primitives[0].Shape.(*geometry.Disc); !ok {
		t.Errorf("Expected a disc first, got %T", sc.Primitives[0].Shape)
	}
	box, ok := sc.Primitives[1].Shape.(*geometry.Box)
	if !ok {
		t.Fatalf("Expected a box second, got %T", sc.Primitives[1].Shape)
	}
	if math.Abs(box.Rotation.Y-math.Pi/4) > 1e-12 {
		t.Errorf("Expected rotation in radians, got %v", box.Rotation)
	}
	if _, ok := sc.Primitives[2].Shape.(*geometry.TriangleMesh); !ok {
		t.Errorf("Expected a mesh third, got %T", sc.Primitives[2].Shape)
	}
	if len(sc.Lights) != 1 || sc.Lights[0].Type() != lights.LightTypeArea {
		t.Fatalf("Expected one area light, got %d", len(sc.Lights))
	}

	if err := sc.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	ws := core.NewWorkspace()

	// The quarter turn stands the mesh triangle in the plane x=2, facing +X
	var isect core.IntersectionInfo
	ray := core.NewRay(core.NewVec3(5, 0.2, -0.2), core.NewVec3(-1, 0, 0))
	if !sc.Intersect(ray, ws, &isect) {
		t.Fatal("Expected to hit the rotated mesh")
	}
	if math.Abs(isect.Point.X-2) > 1e-9 || !isect.FrontFace {
		t.Errorf("Expected front-face hit at x=2, got %v front=%v", isect.Point, isect.FrontFace)
	}

	up := core.NewRay(core.NewVec3(2.5, 0.5, 2.5), core.NewVec3(0, 1, 0))
	if sc.Intersect(up, ws, &isect) {
		t.Errorf("Expected the ray beside the light to escape, hit %v", isect.Point)
	}
	up = core.NewRay(core.NewVec3(0, 2.5, 0), core.NewVec3(0, 1, 0))
	if !sc.Intersect(up, ws, &isect) || isect.AreaLight == nil {
		t.Fatal("Expected to hit the disc light")
	}
}

func TestLoadSceneSpotLight(t *testing.T) {
	content := `{
	  "camera": {"center": [0, 2, 6], "lookAt": [0, 0, 0], "width": 16},
	  "materials": {"grey": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}},
	  "spheres": [{"center": [0, 0, 0], "radius": 1, "material": "grey"}],
	  "lights": [{"type": "spot", "position": [0, 4, 0], "target": [0, 0, 0], "coneAngle": 20, "coneDelta": 5, "color": [16, 16, 16]}]
	}`
	sc, err := LoadScene(writeScene(t, t.TempDir(), content), nil)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	spot, ok := sc.Lights[0].(*lights.SpotLight)
	if !ok {
		t.Fatalf("Expected a spot light, got %T", sc.Lights[0])
	}
	if spot.Direction != core.NewVec3(0, -1, 0) {
		t.Errorf("Expected the spot light to point down, got %v", spot.Direction)
	}

	// The sphere top is 3 units below the light, on the cone axis
	top := &core.IntersectionInfo{Point: core.NewVec3(0, 1, 0), Normal: core.NewVec3(0, 1, 0), FrontFace: true}
	if got := spot.Sample(top, core.Vec2{}).Radiance(); math.Abs(got.X-16.0/9) > 1e-12 {
		t.Errorf("Expected radiance 16/9 on the axis, got %v", got)
	}
}
