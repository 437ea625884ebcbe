package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/renderer"
)

// RenderImage is the payload of pass and complete SSE events
type RenderImage struct {
	Pass      int            `json:"pass"`
	ImageData string         `json:"imageData"` // Base64 encoded PNG
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Stats     RenderStatsDTO `json:"stats"`
	ElapsedMs int64          `json:"elapsedMs"`
}

// RenderStatsDTO represents render statistics on the wire
type RenderStatsDTO struct {
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int     `json:"totalSamples"`
	AverageSamples   float64 `json:"averageSamples"`
	TilesRendered    int     `json:"tilesRendered"`
	AverageLuminance float64 `json:"averageLuminance"`
}

// TileUpdate is the payload of a tile SSE event
type TileUpdate struct {
	TileX      int    `json:"tileX"`
	TileY      int    `json:"tileY"`
	Pass       int    `json:"pass"`
	TileNumber int    `json:"tileNumber"`
	TotalTiles int    `json:"totalTiles"`
	ImageData  string `json:"imageData"` // Base64 encoded PNG of the tile
}

// handleRender renders a scene progressively and streams console messages, tile updates and
// one image per pass via SSE. The last pass is sent as a complete event.
// Closing the connection cancels the render.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)

	req, err := parseRenderRequest(r)
	if err != nil {
		writeSSEEvent(w, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan, s.logger)

	progressive, err := s.setupRenderer(req, webLogger)
	if err != nil {
		writeSSEEvent(w, "error", err.Error())
		return
	}

	start := time.Now()
	passChan, tileChan, errChan := progressive.RenderProgressive(r.Context(), renderer.RenderOptions{TileUpdates: req.TileUpdates})

	// Only this goroutine writes to the response
	for passChan != nil || tileChan != nil {
		select {
		case msg := <-consoleChan:
			writeConsoleEvent(w, msg)
		case tile, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			writeTileEvent(w, tile)
		case pass, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			writePassEvent(w, pass, start)
		}
	}
	for drained := false; !drained; {
		select {
		case msg := <-consoleChan:
			writeConsoleEvent(w, msg)
		default:
			drained = true
		}
	}

	if err := <-errChan; err != nil {
		s.logf("Render failed: %v\n", err)
		writeSSEEvent(w, "error", fmt.Sprintf("Render error: %v", err))
	}
}

// setupRenderer builds and preprocesses the scene, then creates the path tracer and progressive renderer for it
func (s *Server) setupRenderer(req *RenderRequest, logger core.Logger) (*renderer.ProgressiveRenderer, error) {
	sc, integratorConfig, err := createScene(req)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", req.Scene, err)
	}
	if err := sc.Preprocess(); err != nil {
		return nil, fmt.Errorf("preprocess scene: %w", err)
	}
	pt, err := integrator.NewPathTracingIntegrator(integratorConfig)
	if err != nil {
		return nil, err
	}

	config := renderer.DefaultProgressiveConfig()
	config.MaxSamplesPerPixel = req.SamplesPerPixel
	config.MaxPasses = req.MaxPasses
	config.Seed = req.Seed
	return renderer.NewProgressiveRenderer(sc, pt, config, logger)
}

// writePassEvent sends the image of a finished pass; the last pass is the complete event
func writePassEvent(w http.ResponseWriter, pass renderer.PassResult, start time.Time) {
	imageData, err := imageToBase64PNG(pass.Image)
	if err != nil {
		writeSSEEvent(w, "error", fmt.Sprintf("failed to encode image: %v", err))
		return
	}
	bounds := pass.Image.Bounds()
	payload, err := json.Marshal(RenderImage{
		Pass:      pass.PassNumber,
		ImageData: imageData,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Stats: RenderStatsDTO{
			TotalPixels:      pass.Stats.TotalPixels,
			TotalSamples:     pass.Stats.TotalSamples,
			AverageSamples:   pass.Stats.AverageSamples,
			TilesRendered:    pass.Stats.TilesRendered,
			AverageLuminance: renderer.CalculateAverageLuminance(pass.Image),
		},
		ElapsedMs: time.Since(start).Milliseconds(),
	})
	if err != nil {
		writeSSEEvent(w, "error", err.Error())
		return
	}

	event := "pass"
	if pass.IsLast {
		event = "complete"
	}
	writeSSEEvent(w, event, string(payload))
}

func writeTileEvent(w http.ResponseWriter, tile renderer.TileCompletionResult) {
	imageData, err := imageToBase64PNG(tile.TileImage)
	if err != nil {
		return
	}
	payload, err := json.Marshal(TileUpdate{
		TileX:      tile.TileX,
		TileY:      tile.TileY,
		Pass:       tile.PassNumber,
		TileNumber: tile.TileNumber,
		TotalTiles: tile.TotalTiles,
		ImageData:  imageData,
	})
	if err != nil {
		return
	}
	writeSSEEvent(w, "tile", string(payload))
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func writeConsoleEvent(w http.ResponseWriter, msg ConsoleMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	writeSSEEvent(w, "console", string(data))
}

// writeSSEEvent writes one event and flushes it to the client
func writeSSEEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
