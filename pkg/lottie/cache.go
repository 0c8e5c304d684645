package lottie

import (
	"image"
	"sync"

	"github.com/go-drift/lottie/pkg/graphics"
)

// Cache supplies and records rendered frames so that an animation can be
// replayed without re-rasterizing. Storage format and persistence are the
// implementation's concern; this package only renders through it.
//
// A cache is keyed by one FrameRequest: when the request passed to
// RenderFrame or AppendFrame differs from the one the cache was initialized
// with, the cache is expected to miss (and may discard stale entries).
type Cache interface {
	// OriginalSize returns the natural size recorded at Init.
	OriginalSize() graphics.Size
	// FrameRate returns the frame rate recorded at Init.
	FrameRate() int
	// FramesCount returns the total frame count recorded at Init.
	FramesCount() int
	// FramesReady returns how many frames are currently stored.
	FramesReady() int
	// TakeFirstFrame returns a cover frame the caller may own and mutate,
	// or nil when the cache holds nothing yet.
	TakeFirstFrame() *image.RGBA
	// Init prepares an empty cache for the given animation properties.
	Init(size graphics.Size, frameRate, framesCount int, request FrameRequest)
	// RenderFrame copies the cached frame at index into the buffer and
	// returns true, or returns false on a miss.
	RenderFrame(into *image.RGBA, request FrameRequest, index int) bool
	// AppendFrame records a freshly rendered frame at index.
	AppendFrame(frame *image.RGBA, request FrameRequest, index int)
}

// MemoryCache is an in-process Cache keeping decoded frames as plain image
// buffers. It trades memory for decode work and is mainly useful for short
// sticker-sized animations and for tests; persistent formats live outside
// this package.
type MemoryCache struct {
	mu          sync.Mutex
	size        graphics.Size
	frameRate   int
	framesCount int
	request     FrameRequest
	frames      map[int]*image.RGBA
	first       *image.RGBA
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{frames: make(map[int]*image.RGBA)}
}

// OriginalSize returns the natural size recorded at Init.
func (c *MemoryCache) OriginalSize() graphics.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// FrameRate returns the frame rate recorded at Init.
func (c *MemoryCache) FrameRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameRate
}

// FramesCount returns the total frame count recorded at Init.
func (c *MemoryCache) FramesCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framesCount
}

// FramesReady returns how many frames are stored.
func (c *MemoryCache) FramesReady() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// TakeFirstFrame returns a copy of the stored cover frame, or nil. The copy
// is the caller's to mutate.
func (c *MemoryCache) TakeFirstFrame() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.first == nil {
		return nil
	}
	cover := image.NewRGBA(c.first.Rect)
	copy(cover.Pix, c.first.Pix)
	return cover
}

// Init prepares the cache for an animation, discarding previous content.
func (c *MemoryCache) Init(size graphics.Size, frameRate, framesCount int, request FrameRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = size
	c.frameRate = frameRate
	c.framesCount = framesCount
	c.request = request
	c.frames = make(map[int]*image.RGBA)
	c.first = nil
}

// RenderFrame copies the cached frame at index into the buffer.
func (c *MemoryCache) RenderFrame(into *image.RGBA, request FrameRequest, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.request.Equal(request) {
		return false
	}
	cached, ok := c.frames[index]
	if !ok || !cached.Rect.Eq(into.Rect) {
		return false
	}
	copy(into.Pix, cached.Pix)
	return true
}

// AppendFrame records a copy of the frame at index.
func (c *MemoryCache) AppendFrame(frame *image.RGBA, request FrameRequest, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.request.Equal(request) {
		// Request changed mid-flight: stored frames no longer match
		// what playback will ask for.
		c.request = request
		c.frames = make(map[int]*image.RGBA)
	}
	stored := image.NewRGBA(frame.Rect)
	copy(stored.Pix, frame.Pix)
	c.frames[index] = stored
	if index == 0 && c.first == nil {
		c.first = stored
	}
}
