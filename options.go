package fractal

import (
	"image"
	"log/slog"
	"time"
)

// Controller defaults.
const (
	// DefaultTickInterval is the controller's frame period.
	DefaultTickInterval = time.Second / 60

	// DefaultShrinkRate is the number of pixel steps each side moves per
	// wheel unit.
	DefaultShrinkRate = 10.0

	// DefaultSplit is the number of tiles per generation.
	DefaultSplit = 16
)

// Overlay draws a heads-up display over the presented image.
// Draw returns the bounds it painted so those rows can be refreshed.
type Overlay interface {
	Draw(dst *image.RGBA, lines []string) image.Rectangle
}

// ControllerMetrics receives controller events. Implementations must be safe
// for concurrent use.
type ControllerMetrics interface {
	GenerationStarted(tiles int)
	GenerationDone(elapsed time.Duration)
	TileDiscarded()
	RowsPresented(rows int)
}

// ControllerOption configures a Controller during creation.
//
// Example:
//
//	ctl, err := fractal.NewController(pool, params, vp, surface, input,
//		fractal.WithSplit(32),
//		fractal.WithShrinkRate(20),
//	)
type ControllerOption func(*controllerOptions)

// controllerOptions holds optional configuration for Controller creation.
type controllerOptions struct {
	tick       time.Duration
	shrinkRate float64
	split      int
	palette    Palette
	overlay    Overlay
	metrics    ControllerMetrics
	logger     *slog.Logger
	staleTiles bool
}

// defaultControllerOptions returns the default controller options.
func defaultControllerOptions() controllerOptions {
	return controllerOptions{
		tick:       DefaultTickInterval,
		shrinkRate: DefaultShrinkRate,
		split:      DefaultSplit,
		palette:    HSVPalette{},
	}
}

// WithTickInterval sets the period of Run's loop. Non-positive values are
// ignored.
func WithTickInterval(d time.Duration) ControllerOption {
	return func(o *controllerOptions) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithShrinkRate sets how far each side of the viewport moves, in pixel
// steps, per unit of wheel delta.
func WithShrinkRate(rate float64) ControllerOption {
	return func(o *controllerOptions) {
		o.shrinkRate = rate
	}
}

// WithSplit sets the number of tiles per generation. It is clamped to
// [1, height] when the grid is partitioned.
func WithSplit(split int) ControllerOption {
	return func(o *controllerOptions) {
		o.split = split
	}
}

// WithPalette sets the colour mapping. A nil palette keeps HSVPalette.
func WithPalette(p Palette) ControllerOption {
	return func(o *controllerOptions) {
		if p != nil {
			o.palette = p
		}
	}
}

// WithOverlay enables a heads-up display drawn on every presented frame.
func WithOverlay(ov Overlay) ControllerOption {
	return func(o *controllerOptions) {
		o.overlay = ov
	}
}

// WithControllerMetrics installs a metrics sink.
func WithControllerMetrics(m ControllerMetrics) ControllerOption {
	return func(o *controllerOptions) {
		o.metrics = m
	}
}

// WithControllerLogger sets the controller's logger. By default the package
// logger from SetLogger is used.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(o *controllerOptions) {
		o.logger = l
	}
}

// WithStaleTiles makes the controller draw tiles from superseded generations
// instead of discarding them. Stale tiles briefly show the previous viewport
// in rows the current generation has not reached yet.
func WithStaleTiles(draw bool) ControllerOption {
	return func(o *controllerOptions) {
		o.staleTiles = draw
	}
}
