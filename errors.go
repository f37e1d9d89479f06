package fractal

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fractal package.
var (
	// ErrInvalidRange is returned when a range start is not strictly below its end.
	ErrInvalidRange = errors.New("fractal: invalid range")

	// ErrInvalidSize is returned when a pixel grid has a non-positive dimension.
	ErrInvalidSize = errors.New("fractal: invalid pixel size")

	// ErrUnknownKind is returned for a fractal kind outside {Mandelbrot, Julia}.
	ErrUnknownKind = errors.New("fractal: unknown fractal kind")

	// ErrUnsupportedFormat is returned when an output image format is not supported.
	ErrUnsupportedFormat = errors.New("fractal: unsupported image format")

	// ErrTileBounds is returned when a tile does not fit the frame it is written to.
	ErrTileBounds = errors.New("fractal: tile outside frame")
)

// Axis names one of the two viewport axes.
type Axis int

const (
	// AxisReal is the real (horizontal) axis.
	AxisReal Axis = iota

	// AxisImaginary is the imaginary (vertical) axis.
	AxisImaginary
)

// String returns "real" or "imaginary".
func (a Axis) String() string {
	if a == AxisImaginary {
		return "imaginary"
	}
	return "real"
}

// RangeError reports which axis of a viewport failed validation.
// It matches ErrInvalidRange with errors.Is.
type RangeError struct {
	Axis  Axis
	Start float64
	End   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("fractal: invalid %s range [%g, %g)", e.Axis, e.Start, e.End)
}

// Unwrap returns ErrInvalidRange.
func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// SurfaceError wraps a failure reported by the presentation backend.
// It is fatal to Controller.Run.
type SurfaceError struct {
	Op  string
	Err error
}

func (e *SurfaceError) Error() string {
	return "fractal: surface " + e.Op + ": " + e.Err.Error()
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}
