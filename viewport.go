package fractal

import "math"

// maxShrinkRatio bounds how much of a span a single zoom step may remove from
// each side. Two sides at 48% leave 4% of the span, so a range never inverts.
const maxShrinkRatio = 0.48

// Range is a half-open interval [Start, End) on one axis of the complex plane.
type Range struct {
	Start float64
	End   float64
}

// NewRange returns the range [start, end).
// It fails with ErrInvalidRange unless start < end and both the bounds and
// the span are finite. NaN bounds fail too.
func NewRange(start, end float64) (Range, error) {
	r := Range{Start: start, End: end}
	if !r.valid() {
		return Range{}, &RangeError{Start: start, End: end}
	}
	return r, nil
}

func (r Range) valid() bool {
	return r.Start < r.End && !math.IsInf(r.Start, 0) && !math.IsInf(r.End, 0) &&
		!math.IsInf(r.End-r.Start, 0)
}

// Size returns End - Start.
func (r Range) Size() float64 {
	return r.End - r.Start
}

// Shift moves both bounds by d.
func (r Range) Shift(d float64) Range {
	return Range{Start: r.Start + d, End: r.End + d}
}

// Shrink moves both bounds inward by amount. A positive amount is clamped to
// 48% of the current span per side; a negative amount widens the range.
func (r Range) Shrink(amount float64) Range {
	if limit := r.Size() * maxShrinkRatio; amount > limit {
		amount = limit
	}
	return Range{Start: r.Start + amount, End: r.End - amount}
}

// Viewport is the rectangle of the complex plane mapped onto the pixel grid.
// Both axes satisfy Start < End with finite bounds and span.
type Viewport struct {
	Re Range
	Im Range
}

// NewViewport validates and returns the viewport [reMin, reMax) x [imMin, imMax).
func NewViewport(reMin, reMax, imMin, imMax float64) (Viewport, error) {
	return Viewport{
		Re: Range{Start: reMin, End: reMax},
		Im: Range{Start: imMin, End: imMax},
	}.validate()
}

func (v Viewport) validate() (Viewport, error) {
	if !v.Re.valid() {
		return Viewport{}, &RangeError{Axis: AxisReal, Start: v.Re.Start, End: v.Re.End}
	}
	if !v.Im.valid() {
		return Viewport{}, &RangeError{Axis: AxisImaginary, Start: v.Im.Start, End: v.Im.End}
	}
	return v, nil
}

// Origin returns the coordinate of the top-left pixel: lowest real part,
// highest imaginary part.
func (v Viewport) Origin() complex128 {
	return complex(v.Re.Start, v.Im.End)
}

// Center returns the midpoint of the viewport.
func (v Viewport) Center() complex128 {
	return complex((v.Re.Start+v.Re.End)/2, (v.Im.Start+v.Im.End)/2)
}

// Pan shifts the viewport by a pixel delta. Pixel rows grow downward while the
// imaginary axis grows upward, so the vertical sign is flipped.
func (v Viewport) Pan(dx, dy float64, step Step) (Viewport, error) {
	return Viewport{
		Re: v.Re.Shift(-step.Re * dx),
		Im: v.Im.Shift(step.Im * dy),
	}.validate()
}

// Zoom shrinks (wheel > 0) or widens (wheel < 0) the viewport around its
// center. The per-side shrink is step*shrinkRate*wheel on each axis, with the
// real axis scaled by the grid's aspect ratio so both axes keep their
// proportion. Each side is clamped as described on Range.Shrink.
func (v Viewport) Zoom(wheel, shrinkRate float64, step Step, size Size) (Viewport, error) {
	modifier := shrinkRate * wheel
	aspect := float64(size.Width) / float64(size.Height)
	return Viewport{
		Re: v.Re.Shrink(step.Re * modifier * aspect),
		Im: v.Im.Shrink(step.Im * modifier),
	}.validate()
}

// Landmarks are well-known Mandelbrot regions.
var Landmarks = map[string]Viewport{
	"full":             {Re: Range{-2.0, 0.5}, Im: Range{-1.0, 1.0}},
	"seahorse-valley":  {Re: Range{-0.8, -0.7}, Im: Range{0.05, 0.15}},
	"elephant-valley":  {Re: Range{-1.85, -1.75}, Im: Range{-0.10, -0.02}},
	"spiral-minibrot":  {Re: Range{-0.7435, -0.7420}, Im: Range{0.1310, 0.1325}},
	"triple-spiral":    {Re: Range{-0.7480, -0.7450}, Im: Range{0.0950, 0.0980}},
	"dragon-valley":    {Re: Range{-0.7400, -0.7350}, Im: Range{0.1800, 0.1850}},
	"mini-spiral-brot": {Re: Range{-1.7390, -1.7375}, Im: Range{-0.0235, -0.0220}},
}
