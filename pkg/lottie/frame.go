package lottie

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/go-drift/lottie/pkg/graphics"
)

// Frame is one reusable slot in a SharedState's ring: the decoded image plus
// its render and display bookkeeping.
//
// A Frame is written exclusively by the background producer and read
// exclusively by the consumer; the owning SharedState's counter orders every
// access, so no field here needs its own synchronization.
type Frame struct {
	// Original is the decoded frame at its rendered size.
	Original *image.RGBA
	// Prepared caches the last resize/recolor derived from Original.
	Prepared *image.RGBA

	// Index is the frame's position in the cycle, in [0, framesCount).
	Index int
	// Position is the frame's timestamp on the animation's own timeline.
	Position Time
	// Display is the scheduled wall-clock display time.
	Display Time
	// Displayed is when the consumer showed the frame, TimeUnknown while the
	// frame is rendered but not yet shown.
	Displayed Time

	// Request is the request Original was rendered for.
	Request FrameRequest
}

// goodStorageForFrame reports whether storage can be reused for a frame of
// the given size without reallocating.
func goodStorageForFrame(storage *image.RGBA, size graphics.Size) bool {
	return storage != nil &&
		storage.Rect.Min == image.Point{} &&
		storage.Rect.Dx() == size.Width &&
		storage.Rect.Dy() == size.Height
}

// newFrameStorage allocates a frame buffer of the given size.
func newFrameStorage(size graphics.Size) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
}

// clearFrameStorage resets a buffer to fully transparent.
func clearFrameStorage(storage *image.RGBA) {
	for i := range storage.Pix {
		storage.Pix[i] = 0
	}
}

// GoodForRequest reports whether the original decoded image can be presented
// for the request unmodified: either the request asks for the natural size,
// or it matches the decoded size on at least one axis and no recolor is set.
func GoodForRequest(img *image.RGBA, request FrameRequest) bool {
	if request.Box.Empty() {
		return true
	} else if request.Colored != nil {
		return false
	}
	return request.Box.Width == img.Rect.Dx() || request.Box.Height == img.Rect.Dy()
}

// prepareByRequest derives the presented image from original for a request
// with a non-empty box, reusing storage when it already has the right size.
func prepareByRequest(original *image.RGBA, request FrameRequest, storage *image.RGBA) *image.RGBA {
	if request.Box.Empty() {
		panic("lottie: prepareByRequest with an empty box")
	}
	size := request.Size(graphics.SizeOf(original.Rect.Dx(), original.Rect.Dy()))
	if !goodStorageForFrame(storage, size) {
		storage = newFrameStorage(size)
	}
	clearFrameStorage(storage)
	xdraw.CatmullRom.Scale(storage, storage.Rect, original, original.Rect, xdraw.Src, nil)
	if request.Colored != nil {
		prepareColored(*request.Colored, storage)
	}
	return storage
}

// prepareColored tints a premultiplied frame in place: the tint is blended
// over every pixel weighted by the tint's alpha, scaled by the pixel's own
// alpha so transparency is preserved.
func prepareColored(tint graphics.Color, img *image.RGBA) {
	tr, tg, tb, ta := tint.Components()
	if ta == 0 {
		return
	}
	keep := uint32(255 - ta)
	add := uint32(ta)
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		alpha := uint32(pix[i+3])
		pix[i+0] = uint8((uint32(pix[i+0])*keep + uint32(tr)*alpha/255*add) / 255)
		pix[i+1] = uint8((uint32(pix[i+1])*keep + uint32(tg)*alpha/255*add) / 255)
		pix[i+2] = uint8((uint32(pix[i+2])*keep + uint32(tb)*alpha/255*add) / 255)
	}
}

// PrepareFrameByRequest returns the image to present for the frame's current
// request: Original itself when it satisfies the request, otherwise a derived
// image cached in Prepared. With useExistingPrepared set, an existing
// Prepared buffer is trusted to match the unchanged request and returned
// without recomputation.
func PrepareFrameByRequest(frame *Frame, useExistingPrepared bool) *image.RGBA {
	if frame.Original == nil {
		panic("lottie: PrepareFrameByRequest on a frame without an image")
	}
	if GoodForRequest(frame.Original, frame.Request) {
		return frame.Original
	} else if frame.Prepared == nil || !useExistingPrepared {
		frame.Prepared = prepareByRequest(frame.Original, frame.Request, frame.Prepared)
	}
	return frame.Prepared
}
