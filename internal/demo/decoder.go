// Package demo provides a procedural stand-in for a real Lottie rasterizer:
// a Decoder that reads only the animation's header metadata and renders
// placeholder art with the animation's true size, frame rate and frame
// count. It lets the playback pipeline run end to end where no rasterization
// engine is linked in (the previewer, examples and heavier tests).
package demo

import (
	"encoding/json"
	"image"
	"math"

	"github.com/go-drift/lottie/pkg/graphics"
	"github.com/go-drift/lottie/pkg/lottie"
)

// metadata is the subset of the Lottie document header the decoder reads.
type metadata struct {
	Width     float64 `json:"w"`
	Height    float64 `json:"h"`
	FrameRate float64 `json:"fr"`
	InPoint   float64 `json:"ip"`
	OutPoint  float64 `json:"op"`
}

// Decoder renders an orbiting dot whose hue advances through the cycle.
type Decoder struct {
	size        graphics.Size
	frameRate   float64
	framesCount int
}

// NewDecoder returns a decoder with explicit properties, useful in tests.
func NewDecoder(size graphics.Size, frameRate float64, framesCount int) *Decoder {
	return &Decoder{size: size, frameRate: frameRate, framesCount: framesCount}
}

// Factory is a lottie.DecoderFactory reading the content's header metadata.
func Factory(content []byte) (lottie.Decoder, error) {
	var meta metadata
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, err
	}
	return &Decoder{
		size:        graphics.SizeOf(int(meta.Width), int(meta.Height)),
		frameRate:   meta.FrameRate,
		framesCount: int(meta.OutPoint - meta.InPoint),
	}, nil
}

// NativeSize returns the animation's natural pixel size.
func (d *Decoder) NativeSize() graphics.Size { return d.size }

// FrameRate returns the animation's frame rate.
func (d *Decoder) FrameRate() float64 { return d.frameRate }

// FramesCount returns the number of frames in one cycle.
func (d *Decoder) FramesCount() int { return d.framesCount }

// RenderFrameSync draws the placeholder frame at index, scaled to the
// buffer's bounds.
func (d *Decoder) RenderFrameSync(index int, into *image.RGBA) {
	width := into.Rect.Dx()
	height := into.Rect.Dy()
	if width == 0 || height == 0 || d.framesCount == 0 {
		return
	}
	progress := float64(index) / float64(d.framesCount)
	angle := progress * 2 * math.Pi

	cx := float64(width)/2 + math.Cos(angle)*float64(width)/3
	cy := float64(height)/2 + math.Sin(angle)*float64(height)/3
	radius := math.Max(2, float64(min(width, height))/6)

	r, g, b := hueToRGB(progress)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			offset := into.PixOffset(x, y)
			into.Pix[offset+0] = r
			into.Pix[offset+1] = g
			into.Pix[offset+2] = b
			into.Pix[offset+3] = 0xFF
		}
	}
}

// hueToRGB converts a hue in [0, 1) to a saturated RGB triple.
func hueToRGB(h float64) (r, g, b uint8) {
	sector := h * 6
	channel := func(shift float64) uint8 {
		v := math.Abs(math.Mod(sector+shift, 6) - 3)
		v = math.Min(math.Max(v-1, 0), 1)
		return uint8(v * 255)
	}
	return channel(0), channel(4), channel(2)
}
