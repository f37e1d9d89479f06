package fractal

import (
	"fmt"
	"image"
)

// Frame is the full W x H grid of escape-time counts, row-major.
type Frame struct {
	size    Size
	maxIter uint16
	counts  []uint16
}

// NewFrame allocates a zeroed frame.
func NewFrame(size Size, maxIter uint16) (*Frame, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.Width, size.Height)
	}
	return &Frame{
		size:    size,
		maxIter: maxIter,
		counts:  make([]uint16, size.Pixels()),
	}, nil
}

// Size returns the pixel grid of the frame.
func (f *Frame) Size() Size {
	return f.size
}

// MaxIterations returns the iteration cap the counts were computed with.
func (f *Frame) MaxIterations() uint16 {
	return f.maxIter
}

// Counts returns the underlying row-major counts.
func (f *Frame) Counts() []uint16 {
	return f.counts
}

// At returns the count at pixel (x, y), or 0 outside the frame.
func (f *Frame) At(x, y int) uint16 {
	if x < 0 || x >= f.size.Width || y < 0 || y >= f.size.Height {
		return 0
	}
	return f.counts[y*f.size.Width+x]
}

// WriteTile copies t's counts into place at t.Rows.Start*Width.
func (f *Frame) WriteTile(t Tile) error {
	off := t.PixelOffset(f.size.Width)
	if t.Rows.Start < 0 || t.Rows.End > f.size.Height || len(t.Counts) != t.Rows.Len()*f.size.Width {
		return fmt.Errorf("%w: rows [%d, %d) with %d counts in %dx%d",
			ErrTileBounds, t.Rows.Start, t.Rows.End, len(t.Counts), f.size.Width, f.size.Height)
	}
	copy(f.counts[off:], t.Counts)
	return nil
}

// Image colours the frame with p. A nil palette selects HSVPalette.
func (f *Frame) Image(p Palette) *image.RGBA {
	c := NewCanvas(f.size)
	c.PaintCounts(RowRange{Start: 0, End: f.size.Height}, f.counts, f.maxIter, p)
	return c.ToImage()
}
