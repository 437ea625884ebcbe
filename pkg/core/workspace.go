package core

// arenaChunkSize is the number of slots allocated at once per type
const arenaChunkSize = 32

// Workspace is a scratch arena for allocations that live for a single bounce.
// Slots handed out by Alloc stay valid until the next Clear; memory is reused
// afterwards instead of being returned to the garbage collector.
// A Workspace must only be used by one goroutine at a time.
type Workspace struct {
	arenas  map[any]resetter
	scratch map[any]any
	allocs  int
}

// NewWorkspace creates an empty workspace
func NewWorkspace() *Workspace {
	return &Workspace{arenas: make(map[any]resetter)}
}

// Clear releases every slot allocated since the previous Clear
func (ws *Workspace) Clear() {
	for _, a := range ws.arenas {
		a.reset()
	}
	ws.allocs = 0
}

// Allocations returns the number of live slots
func (ws *Workspace) Allocations() int {
	return ws.allocs
}

// Alloc returns a zeroed *T owned by the workspace
func Alloc[T any](ws *Workspace) *T {
	if ws.arenas == nil {
		ws.arenas = make(map[any]resetter)
	}
	key := arenaKey[T]{}
	a, ok := ws.arenas[key].(*arena[T])
	if !ok {
		a = &arena[T]{}
		ws.arenas[key] = a
	}
	ws.allocs++
	return a.alloc()
}

// Scratch returns the workspace's single *T, creating it on first use.
// Unlike Alloc slots it survives Clear and keeps its contents, so it suits
// buffers such as traversal stacks that callers reset themselves.
// A nil workspace yields a fresh value.
func Scratch[T any](ws *Workspace) *T {
	if ws == nil {
		return new(T)
	}
	if ws.scratch == nil {
		ws.scratch = make(map[any]any)
	}
	key := arenaKey[T]{}
	if v, ok := ws.scratch[key].(*T); ok {
		return v
	}
	v := new(T)
	ws.scratch[key] = v
	return v
}

type resetter interface {
	reset()
}

// arenaKey gives each element type its own map entry
type arenaKey[T any] struct{}

type arena[T any] struct {
	chunks [][]T
	chunk  int // index of the chunk currently being filled
	next   int // next free slot in that chunk
}

func (a *arena[T]) alloc() *T {
	if a.chunk == len(a.chunks) {
		a.chunks = append(a.chunks, make([]T, arenaChunkSize))
	}
	slot := &a.chunks[a.chunk][a.next]
	var zero T
	*slot = zero

	a.next++
	if a.next == arenaChunkSize {
		a.chunk++
		a.next = 0
	}
	return slot
}

func (a *arena[T]) reset() {
	a.chunk = 0
	a.next = 0
}
