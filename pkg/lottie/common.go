// Package lottie implements real-time decoding and presentation of vector
// animations (Lottie JSON and gzip-compressed TGS content) shared across many
// concurrently playing animations.
//
// # Architecture
//
// The package is split along a producer/consumer boundary:
//
//   - [SharedState]: the per-animation frame ring. A single background
//     producer renders upcoming frames into a fixed ring of four slots while
//     a single consumer (the UI) paints the presented slot. The two sides
//     synchronize through one atomic counter — no locks.
//
//   - [FrameRenderer]: one cooperative worker goroutine that multiplexes all
//     registered SharedStates, advancing each in round robin and batching
//     owner notifications per pass.
//
//   - [Player]: the timeline object a UI holds. It parses content, registers
//     the state with a renderer, arms a wake timer from
//     [SharedState.NextFrameDisplayTime] and drives the consumer side of the
//     ring on each step.
//
// The vector rasterizer itself is not part of this package: it is plugged in
// through the [Decoder] interface, optionally backed by a [Cache] of
// previously rendered frames.
//
// # Timing
//
// All timestamps are integer milliseconds ([Time]). A frame scheduled at
// index i is displayed at startedAt + delay + 1000*(skippedFrames+i)/frameRate,
// recomputed from that formula on every render so no rounding drift
// accumulates across cycles.
package lottie

import (
	"errors"
	"math"

	"github.com/go-drift/lottie/pkg/graphics"
)

// Time is a wall-clock timestamp or interval in milliseconds.
type Time int64

// TimeUnknown marks an unset timestamp.
const TimeUnknown = Time(math.MinInt64)

// FrameDisplayTimeAlreadyDone is returned by NextFrameDisplayTime when the
// pending frame was already handed to the consumer but not yet shown.
const FrameDisplayTimeAlreadyDone = TimeUnknown + 1

// Content and source limits. Sources outside these bounds are not played.
const (
	// MaxFileSize is the maximum accepted content size, before and after
	// gzip decompression.
	MaxFileSize = 1024 * 1024

	maxSize        = 3096
	maxFrameRate   = 120
	maxFramesCount = 600
)

// Errors surfaced by content parsing and playback setup.
var (
	// ErrParseFailed indicates content that could not be read as an animation.
	ErrParseFailed = errors.New("lottie: parse failed")
	// ErrNotSupported indicates a parsed animation that cannot be played,
	// such as one with zero size or a frame rate outside supported limits.
	ErrNotSupported = errors.New("lottie: not supported")
)

// Information describes a playable animation.
type Information struct {
	FrameRate   int
	FramesCount int
	Size        graphics.Size
}

// FrameRequest describes how a frame should look when presented: the target
// box to fit into and an optional recolor. Requests are compared only by
// effect, via Equal.
type FrameRequest struct {
	// Box is the target size the frame is scaled to fit, preserving aspect
	// ratio. An empty Box requests the natural decoded size.
	Box graphics.Size

	// Colored, when non-nil, tints the frame with the given color.
	Colored *graphics.Color

	// Strict marks requests that must win over non-strict ones when the
	// consumer races a default request against an explicit one.
	Strict bool
}

// NonStrictRequest returns an empty request that yields to any strict one.
func NonStrictRequest() FrameRequest {
	return FrameRequest{Strict: false}
}

// Empty reports whether the request asks for the natural decoded size.
func (r FrameRequest) Empty() bool {
	return r.Box.Empty()
}

// Size resolves the effective frame size for an animation of the given
// natural size.
func (r FrameRequest) Size(original graphics.Size) graphics.Size {
	if r.Box.Empty() {
		return original
	}
	return original.ScaledToFit(r.Box)
}

// Equal compares two requests by effect: target box and recolor.
func (r FrameRequest) Equal(other FrameRequest) bool {
	if r.Box != other.Box {
		return false
	}
	if (r.Colored == nil) != (other.Colored == nil) {
		return false
	}
	return r.Colored == nil || *r.Colored == *other.Colored
}

// DisplayFrameRequest asks the consumer to paint a freshly displayed frame.
type DisplayFrameRequest struct {
	// Position is the frame's position on the animation's own timeline.
	Position Time
}

// Update carries a playback event to the owner's listeners. Exactly one
// field is set.
type Update struct {
	// Information is set once, when parsing completed.
	Information *Information
	// DisplayFrame is set whenever a new frame became the paint target.
	DisplayFrame *DisplayFrameRequest
}

// PlaybackOptions control timeline policy.
type PlaybackOptions struct {
	// Loop restarts the animation after its last frame was displayed.
	Loop bool
}
