package lottie

import (
	"image"

	"github.com/go-drift/lottie/pkg/graphics"
)

// Decoder is the rasterization collaborator: an opaque engine that renders
// animation frames synchronously into caller-provided buffers. It is used by
// exactly one goroutine at a time and may keep internal scratch state.
//
// Decode failures are the decoder's own concern: RenderFrameSync either
// succeeds or the decoder reports itself unplayable through its properties
// (zero size, rate or count), which makes the owning state inert.
type Decoder interface {
	// NativeSize returns the animation's natural pixel size.
	NativeSize() graphics.Size
	// FrameRate returns the animation's frame rate in frames per second.
	FrameRate() float64
	// FramesCount returns the total number of frames in one cycle.
	FramesCount() int
	// RenderFrameSync renders the frame at index into the buffer, scaled to
	// the buffer's bounds. The buffer is cleared by the caller beforehand.
	RenderFrameSync(index int, into *image.RGBA)
}

// DecoderFactory creates a Decoder from raw animation content (uncompressed
// Lottie JSON). It is called once during setup and again if a cache-backed
// state has to re-open its decoder after dropping it.
type DecoderFactory func(content []byte) (Decoder, error)
