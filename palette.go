package fractal

import (
	"image/color"
	"math"
)

// Palette maps an escape-time count to a colour.
type Palette interface {
	Color(count, maxIter uint16) color.RGBA
}

// PaletteFunc adapts a function to the Palette interface.
type PaletteFunc func(count, maxIter uint16) color.RGBA

// Color calls f(count, maxIter).
func (f PaletteFunc) Color(count, maxIter uint16) color.RGBA {
	return f(count, maxIter)
}

// Black is the colour of points that never escaped.
var Black = color.RGBA{A: 0xff}

// HSVPalette is the default hue ramp. Points that reached maxIter are black;
// any other count c gets hue ((c<<2) / 1000) * 360 degrees at full saturation
// and value. The shift is done in 16 bits, so large counts wrap around.
type HSVPalette struct{}

// Color implements Palette.
func (HSVPalette) Color(count, maxIter uint16) color.RGBA {
	if count == maxIter {
		return Black
	}
	shifted := count << 2
	return HSV(float64(shifted)/1000*360, 1, 1)
}

// GrayPalette maps counts linearly onto grey levels, black at maxIter.
type GrayPalette struct{}

// Color implements Palette.
func (GrayPalette) Color(count, maxIter uint16) color.RGBA {
	if count >= maxIter || maxIter == 0 {
		return Black
	}
	y := uint8(255 - uint32(count)*255/uint32(maxIter))
	return color.RGBA{R: y, G: y, B: y, A: 0xff}
}

// HSV converts a colour from HSV to opaque RGBA.
// h is hue in degrees (wrapped into [0, 360)), s and v are in [0, 1].
// Channels are truncated, not rounded.
func HSV(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 60

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 1:
		r, g, b = c, x, 0
	case h < 2:
		r, g, b = x, c, 0
	case h < 3:
		r, g, b = 0, c, x
	case h < 4:
		r, g, b = 0, x, c
	case h < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: channel(r + m),
		G: channel(g + m),
		B: channel(b + m),
		A: 0xff,
	}
}

// channel scales a [0, 1] component to a byte, clamping out-of-range input.
func channel(x float64) uint8 {
	x *= 255
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}
