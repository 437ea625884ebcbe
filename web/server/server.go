package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/renderer"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// Server handles web requests for the path tracer
type Server struct {
	port   int
	logger core.Logger
}

// NewServer creates a new web server; logger receives server-side messages and may be nil
func NewServer(port int, logger core.Logger) *Server {
	return &Server{port: port, logger: logger}
}

// RenderRequest represents a render or inspect request from the client
type RenderRequest struct {
	Scene           string `json:"scene"`           // Built-in scene ID
	Width           int    `json:"width"`           // Image width; height follows the scene's aspect ratio
	SamplesPerPixel int    `json:"samplesPerPixel"` // 0 = scene default
	MinBounces      int    `json:"minBounces"`      // -1 = scene default
	MaxBounces      int    `json:"maxBounces"`      // -1 = scene default
	Seed            int64  `json:"seed"`
	LightSelection  string `json:"lightSelection"` // "uniform", "power" or empty for the scene's choice
	MaxPasses       int    `json:"maxPasses"`      // Progressive passes; samples double each pass
	TileUpdates     bool   `json:"tileUpdates"`    // Stream a tile event for every finished tile
}

// Parameter limits shared by parsing and the scene listing
const (
	minWidth   = 8
	maxWidth   = 2000
	maxSamples = 10000
	maxBounces = 1000
	maxPasses  = 20
)

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logf("Starting web server on http://localhost%s\n", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errChan; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SceneDefaults describes a built-in scene and its recommended settings
type SceneDefaults struct {
	scene.SceneInfo
	Width           int `json:"width"`
	Height          int `json:"height"`
	SamplesPerPixel int `json:"samplesPerPixel"`
	MinBounces      int `json:"minBounces"`
	MaxBounces      int `json:"maxBounces"`
}

// handleScenes lists the built-in scenes with their defaults and the request limits
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	var scenes []SceneDefaults
	for _, info := range scene.ListBuiltInScenes() {
		sc, err := scene.NewBuiltInScene(info.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		cfg := sc.SamplingConfig
		scenes = append(scenes, SceneDefaults{
			SceneInfo:       info,
			Width:           cfg.Width,
			Height:          cfg.Height,
			SamplesPerPixel: cfg.SamplesPerPixel,
			MinBounces:      cfg.MinBounces,
			MaxBounces:      cfg.MaxBounces,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenes": scenes,
		"limits": map[string]interface{}{
			"width":           map[string]int{"min": minWidth, "max": maxWidth},
			"samplesPerPixel": map[string]int{"min": 0, "max": maxSamples},
			"bounces":         map[string]int{"min": -1, "max": maxBounces},
			"passes":          map[string]int{"min": 1, "max": maxPasses},
		},
	})
}

// parseRenderRequest parses request parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{
		Scene:          query.Get("scene"),
		LightSelection: query.Get("lightSelection"),
	}
	if req.Scene == "" {
		req.Scene = "cornell"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 200, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.SamplesPerPixel, err = parseIntParam(query, "spp", 0, 0, maxSamples); err != nil {
		return nil, err
	}
	if req.MinBounces, err = parseIntParam(query, "minBounces", -1, -1, maxBounces); err != nil {
		return nil, err
	}
	if req.MaxBounces, err = parseIntParam(query, "maxBounces", -1, -1, maxBounces); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "passes", renderer.DefaultProgressiveConfig().MaxPasses, 1, maxPasses); err != nil {
		return nil, err
	}
	if tiles := query.Get("tiles"); tiles != "" {
		if req.TileUpdates, err = strconv.ParseBool(tiles); err != nil {
			return nil, fmt.Errorf("invalid tiles: %s", tiles)
		}
	}
	seed, err := parseIntParam(query, "seed", 42, 0, 1<<30)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene builds the requested scene with the request's overrides applied, not yet preprocessed
func createScene(req *RenderRequest) (*scene.Scene, integrator.Config, error) {
	sc, err := scene.NewBuiltInScene(req.Scene, geometry.CameraConfig{Width: req.Width})
	if err != nil {
		return nil, integrator.Config{}, err
	}
	if req.LightSelection != "" {
		sc.LightSelection = scene.LightSelection(req.LightSelection)
	}

	config := integrator.Config{MinBounces: sc.SamplingConfig.MinBounces, MaxBounces: sc.SamplingConfig.MaxBounces}
	if req.MinBounces >= 0 {
		config.MinBounces = req.MinBounces
	}
	if req.MaxBounces >= 0 {
		config.MaxBounces = req.MaxBounces
	}
	if err := config.Validate(); err != nil {
		return nil, config, err
	}
	return sc, config, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
