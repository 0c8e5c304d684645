// Package graphics provides the pixel geometry and color types shared by the
// animation pipeline: integer sizes for frame buffers and an ARGB color used
// by recolor requests.
package graphics

// Size represents width and height dimensions in whole pixels.
type Size struct {
	Width  int
	Height int
}

// SizeOf constructs a Size from width and height.
func SizeOf(width, height int) Size {
	return Size{Width: width, Height: height}
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// ScaledToFit returns s scaled to the largest size that fits inside box while
// preserving the aspect ratio. An empty receiver or box yields an empty Size.
func (s Size) ScaledToFit(box Size) Size {
	if s.Empty() || box.Empty() {
		return Size{}
	}
	width := box.Height * s.Width / s.Height
	if width <= box.Width {
		return Size{Width: width, Height: box.Height}
	}
	return Size{Width: box.Width, Height: box.Width * s.Height / s.Width}
}
