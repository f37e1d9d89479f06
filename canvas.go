package fractal

import (
	"image"
	"image/color"
)

// Canvas is an RGBA pixel buffer the size of the pixel grid. The interactive
// controller composites coloured tiles into it and hands changed rows to the
// surface.
type Canvas struct {
	width  int
	height int
	data   []uint8 // RGBA, 4 bytes per pixel
}

// NewCanvas creates a black, opaque canvas.
func NewCanvas(size Size) *Canvas {
	c := &Canvas{
		width:  size.Width,
		height: size.Height,
		data:   make([]uint8, size.Pixels()*4),
	}
	c.Clear(Black)
	return c
}

// Width returns the width of the canvas.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the height of the canvas.
func (c *Canvas) Height() int {
	return c.height
}

// Data returns the raw pixel data.
func (c *Canvas) Data() []uint8 {
	return c.data
}

// Rows returns the pixel bytes of rows r, clipped to the canvas.
// The slice aliases the canvas.
func (c *Canvas) Rows(r RowRange) []uint8 {
	start := max(r.Start, 0)
	end := min(r.End, c.height)
	if start >= end {
		return nil
	}
	stride := c.width * 4
	return c.data[start*stride : end*stride]
}

// SetPixel sets a single pixel. Out-of-range coordinates are ignored.
func (c *Canvas) SetPixel(x, y int, col color.RGBA) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	i := (y*c.width + x) * 4
	c.data[i+0] = col.R
	c.data[i+1] = col.G
	c.data[i+2] = col.B
	c.data[i+3] = col.A
}

// Pixel returns the colour of a single pixel, or transparent black outside.
func (c *Canvas) Pixel(x, y int) color.RGBA {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return color.RGBA{}
	}
	i := (y*c.width + x) * 4
	return color.RGBA{R: c.data[i+0], G: c.data[i+1], B: c.data[i+2], A: c.data[i+3]}
}

// Clear fills the canvas with one colour.
func (c *Canvas) Clear(col color.RGBA) {
	for i := 0; i < len(c.data); i += 4 {
		c.data[i+0] = col.R
		c.data[i+1] = col.G
		c.data[i+2] = col.B
		c.data[i+3] = col.A
	}
}

// PaintCounts colours counts (row-major, starting at rows.Start) into the
// canvas. Counts beyond the canvas are dropped. A nil palette selects
// HSVPalette.
func (c *Canvas) PaintCounts(rows RowRange, counts []uint16, maxIter uint16, p Palette) {
	if p == nil {
		p = HSVPalette{}
	}
	base := rows.Start * c.width
	limit := c.width * c.height
	for i, n := range counts {
		pix := base + i
		if pix < 0 {
			continue
		}
		if pix >= limit {
			break
		}
		col := p.Color(n, maxIter)
		j := pix * 4
		c.data[j+0] = col.R
		c.data[j+1] = col.G
		c.data[j+2] = col.B
		c.data[j+3] = col.A
	}
}

// ToImage copies the canvas into an image.RGBA.
func (c *Canvas) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	copy(img.Pix, c.data)
	return img
}

// View returns an image.RGBA that shares the canvas memory. Drawing on the
// view draws on the canvas.
func (c *Canvas) View() *image.RGBA {
	return &image.RGBA{
		Pix:    c.data,
		Stride: c.width * 4,
		Rect:   image.Rect(0, 0, c.width, c.height),
	}
}
