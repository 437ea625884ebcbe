package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

type silentLogger struct{}

func (silentLogger) Printf(format string, args ...interface{}) {}

func TestParseFlagsDefaults(t *testing.T) {
	opts, _, err := parseFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if opts.sceneID != "default" || opts.minBounce != -1 || opts.maxBounce != -1 || opts.seed != 42 {
		t.Errorf("Unexpected defaults %+v", opts)
	}
}

func TestCreateScene(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "room.json")
	content := `{"camera": {"center": [0, 0, 3], "lookAt": [0, 0, 0], "width": 40},
	  "materials": {"grey": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}},
	  "spheres": [{"center": [0, 0, 0], "radius": 1, "material": "grey"}],
	  "lights": [{"type": "uniform", "color": [1, 1, 1]}]}`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}

	tests := []struct {
		name          string
		opts          options
		expectedName  string
		expectedWidth int
		expectError   bool
	}{
		{"DefaultScene", options{sceneID: "default"}, "default", 400, false},
		{"CornellScene", options{sceneID: "cornell", width: 64}, "cornell", 64, false},
		{"SphereGridScene", options{sceneID: "spheregrid"}, "spheregrid", 0, false},
		{"FurnaceScene", options{sceneID: "furnace", width: 20}, "furnace", 20, false},
		{"JSONScene", options{sceneID: "default", configPath: configPath}, "room", 40, false},
		{"JSONSceneWidthOverride", options{configPath: configPath, width: 16}, "room", 16, false},
		{"UnknownScene", options{sceneID: "nonexistent"}, "", 0, true},
		{"EmptySceneName", options{sceneID: ""}, "", 0, true},
		{"MissingJSON", options{configPath: filepath.Join(dir, "missing.json")}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, name, err := createScene(tt.opts, silentLogger{})
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %+v", tt.opts)
				}
				if sc != nil {
					t.Errorf("Expected nil scene on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if name != tt.expectedName {
				t.Errorf("Expected name %q, got %q", tt.expectedName, name)
			}
			if tt.expectedWidth > 0 && sc.Camera.Width() != tt.expectedWidth {
				t.Errorf("Expected width %d, got %d", tt.expectedWidth, sc.Camera.Width())
			}
			if sc.SamplingConfig.Width != sc.Camera.Width() || sc.SamplingConfig.Height != sc.Camera.Height() {
				t.Errorf("Sampling size %dx%d does not match camera %dx%d",
					sc.SamplingConfig.Width, sc.SamplingConfig.Height, sc.Camera.Width(), sc.Camera.Height())
			}
		})
	}
}

func TestIntegratorConfigFor(t *testing.T) {
	sc := scene.NewCornellScene()

	tests := []struct {
		name        string
		min, max    int
		expectedMin int
		expectedMax int
	}{
		{"SceneDefaults", -1, -1, sc.SamplingConfig.MinBounces, sc.SamplingConfig.MaxBounces},
		{"OverrideMax", -1, 60, sc.SamplingConfig.MinBounces, 60},
		{"OverrideBoth", 0, 2, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := integratorConfigFor(sc, options{minBounce: tt.min, maxBounce: tt.max})
			if config.MinBounces != tt.expectedMin || config.MaxBounces != tt.expectedMax {
				t.Errorf("Expected bounces %d-%d, got %d-%d", tt.expectedMin, tt.expectedMax, config.MinBounces, config.MaxBounces)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-help"}, &out, silentLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"Usage", "-spp", "cornell", "furnace"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected help to mention %q", want)
		}
	}
}

func TestRunRejectsBadBounces(t *testing.T) {
	err := run(context.Background(), []string{"-scene", "furnace", "-min-bounce", "5", "-max-bounce", "2"}, &bytes.Buffer{}, silentLogger{})
	if err == nil {
		t.Error("Expected error when min bounces exceed max bounces")
	}
}

func TestRunWritesImage(t *testing.T) {
	output := filepath.Join(t.TempDir(), "furnace.png")
	args := []string{"-scene", "furnace", "-width", "8", "-spp", "2", "-workers", "2", "-output", output}
	if err := run(context.Background(), args, &bytes.Buffer{}, silentLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	info, err := os.Stat(output)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected a non-empty PNG")
	}
}

func TestRunProgressiveWritesImage(t *testing.T) {
	output := filepath.Join(t.TempDir(), "furnace.png")
	args := []string{"-scene", "furnace", "-width", "8", "-spp", "4", "-passes", "3", "-output", output}
	if err := run(context.Background(), args, &bytes.Buffer{}, silentLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		t.Fatalf("Expected a non-empty PNG, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, passes := range []string{"1", "3"} {
		output := filepath.Join(t.TempDir(), "furnace.png")
		args := []string{"-scene", "furnace", "-width", "8", "-spp", "2", "-passes", passes, "-output", output}
		if err := run(ctx, args, &bytes.Buffer{}, silentLogger{}); !errors.Is(err, context.Canceled) {
			t.Errorf("Passes %s: expected context.Canceled, got %v", passes, err)
		}
		if _, err := os.Stat(output); !os.IsNotExist(err) {
			t.Errorf("Passes %s: expected no output file after cancellation", passes)
		}
	}
}
