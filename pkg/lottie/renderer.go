package lottie

import "sync"

// rendererEntry is the worker's per-registration record: the owned state and
// the last request the façade forwarded for it.
type rendererEntry struct {
	state   *SharedState
	request FrameRequest
}

// frameRendererShared is the single-goroutine core of a FrameRenderer. All
// of its methods run on the renderer's task queue, so no field needs a lock.
type frameRendererShared struct {
	queue   *taskQueue
	entries []rendererEntry
	queued  bool
}

func (r *frameRendererShared) append(state *SharedState) {
	request := state.FrameForPaint().Request
	r.entries = append(r.entries, rendererEntry{state: state, request: request})
	r.queueGenerateFrames()
}

func (r *frameRendererShared) frameShown() {
	r.queueGenerateFrames()
}

func (r *frameRendererShared) updateFrameRequest(state *SharedState, request FrameRequest) {
	i := r.find(state)
	if i < 0 {
		panic("lottie: UpdateFrameRequest for an unregistered state")
	}
	r.entries[i].request = request
}

func (r *frameRendererShared) remove(state *SharedState) {
	i := r.find(state)
	if i < 0 {
		panic("lottie: Remove for an unregistered state")
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
}

func (r *frameRendererShared) find(state *SharedState) int {
	for i := range r.entries {
		if r.entries[i].state == state {
			return i
		}
	}
	return -1
}

// generateFrames advances every registered animation one step, then fans the
// collected owner notifications out to their dispatchers, one CheckStep per
// surviving owner per pass. While any entry reports progress the pass
// re-enqueues itself; otherwise the worker goes idle until the façade wakes
// it again.
func (r *frameRendererShared) generateFrames() {
	var owners map[*OwnerRef]struct{}
	rendered := false
	for i := range r.entries {
		result := r.entries[i].state.RenderNextFrame(r.entries[i].request)
		if result.Rendered {
			rendered = true
		}
		if result.Notify != nil && result.Notify.get() != nil {
			if owners == nil {
				owners = make(map[*OwnerRef]struct{})
			}
			owners[result.Notify] = struct{}{}
		}
	}
	if !rendered {
		return
	}
	// One dispatch per surviving owner; the cell is re-checked inside the
	// closure since the owner may shut down before it runs. Dispatchers may
	// be func values, so they cannot key a map themselves.
	for ref := range owners {
		ref := ref
		if cell := ref.get(); cell != nil {
			cell.dispatcher.Dispatch(func() {
				if cell := ref.get(); cell != nil {
					cell.stepper.CheckStep()
				}
			})
		}
	}
	r.queueGenerateFrames()
}

func (r *frameRendererShared) queueGenerateFrames() {
	if r.queued {
		return
	}
	r.queued = true
	r.queue.post(func() {
		r.queued = false
		r.generateFrames()
	})
}

// FrameRenderer multiplexes many animations onto one cooperative background
// worker. Its methods are the thread-safe façade over that worker: each call
// posts onto the worker's queue, so calls for the same state are observed in
// call order, from any goroutine.
type FrameRenderer struct {
	queue  *taskQueue
	shared *frameRendererShared
}

// NewFrameRenderer starts an independent renderer with its own worker.
func NewFrameRenderer() *FrameRenderer {
	queue := newTaskQueue()
	return &FrameRenderer{
		queue:  queue,
		shared: &frameRendererShared{queue: queue},
	}
}

var (
	sharedRendererMu sync.Mutex
	sharedRenderer   *FrameRenderer
)

// SharedFrameRenderer returns the process-wide renderer used by players that
// were not given their own, starting it on first use.
func SharedFrameRenderer() *FrameRenderer {
	sharedRendererMu.Lock()
	defer sharedRendererMu.Unlock()
	if sharedRenderer == nil {
		sharedRenderer = NewFrameRenderer()
	}
	return sharedRenderer
}

// Append registers a started state and schedules a generation pass. The
// renderer owns the state until Remove.
func (r *FrameRenderer) Append(state *SharedState) {
	r.queue.post(func() { r.shared.append(state) })
}

// UpdateFrameRequest replaces the request used by the next generation pass.
// It does not trigger an immediate re-render.
func (r *FrameRenderer) UpdateFrameRequest(state *SharedState, request FrameRequest) {
	r.queue.post(func() { r.shared.updateFrameRequest(state, request) })
}

// FrameShown hints that the consumer freed a slot and schedules a pass.
func (r *FrameRenderer) FrameShown() {
	r.queue.post(func() { r.shared.frameShown() })
}

// Remove deregisters a state. Removal is asynchronous: it takes effect when
// processed on the worker, and no generation pass touches the state after
// that. Callers reacting to in-flight work must go through a liveness-checked
// OwnerRef instead of assuming synchronous removal.
func (r *FrameRenderer) Remove(state *SharedState) {
	r.queue.post(func() { r.shared.remove(state) })
}

// Stop drains the queue and stops the worker. Only independent renderers
// should be stopped; the shared instance lives for the process.
func (r *FrameRenderer) Stop() {
	r.queue.close()
}
