package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/usami-ray/go-pathtracer/pkg/integrator"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Ctx             context.Context // Tiles picked up after cancellation are skipped
	Tile            *Tile
	SamplesPerPixel int
	PixelStats      [][]PixelStats // Shared pixel stats array to write to
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TileID  int
	Stats   RenderStats
	Skipped bool // The render was cancelled before the tile started
	Error   error
}

// WorkerPool manages parallel tile rendering
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	wg          sync.WaitGroup
}

// Worker renders tiles with its own rendering context
type Worker struct {
	ID          int
	renderer    *TileRenderer
	context     *integrator.RenderingContext
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// NewWorkerPool creates a worker pool; numWorkers <= 0 uses one worker per CPU.
// queueSize bounds the number of pending tasks and results.
func NewWorkerPool(sc *scene.Scene, integratorInst integrator.Integrator, numWorkers, queueSize int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, queueSize),
		resultQueue: make(chan TileResult, queueSize),
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			renderer:    NewTileRenderer(sc, integratorInst),
			context:     integrator.NewRenderingContext(),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop closes the task queue, waits for the workers and closes the result queue
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// Results returns the channel completed tiles are delivered on
func (wp *WorkerPool) Results() <-chan TileResult {
	return wp.resultQueue
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return len(wp.workers)
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.render(task)
	}
}

// render turns a broken integrator contract on one tile into an error instead of crashing the process
func (w *Worker) render(task TileTask) (result TileResult) {
	result.TileID = task.Tile.ID
	if task.Ctx != nil && task.Ctx.Err() != nil {
		result.Skipped = true
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("worker %d, tile %d: %v", w.ID, task.Tile.ID, r)
		}
	}()

	// Tiles have non-overlapping bounds, so writing the shared array is safe
	result.Stats = w.renderer.RenderTileBounds(w.context, task.Tile.Bounds, task.PixelStats, task.Tile.Sampler(), task.SamplesPerPixel)
	return result
}
