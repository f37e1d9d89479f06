// Package overlay draws the heads-up status box shown over the fractal.
//
// Labels are measured with HarfBuzz shaping from go-text/typesetting and
// rasterised with golang.org/x/image/font, both reading the embedded Go
// Regular font.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/fractal/internal/cache"
)

// Defaults for a HUD.
const (
	DefaultSize    = 14.0
	DefaultMargin  = 8
	DefaultPadding = 6

	// widthCacheSize bounds the memo of shaped label widths.
	widthCacheSize = 256
)

// Option configures a HUD during creation.
type Option func(*options)

type options struct {
	size       float64
	margin     int
	padding    int
	background color.Color
	foreground color.Color
}

func defaultOptions() options {
	return options{
		size:       DefaultSize,
		margin:     DefaultMargin,
		padding:    DefaultPadding,
		background: color.RGBA{A: 0xa0},
		foreground: color.White,
	}
}

// WithSize sets the font size in pixels. Non-positive values are ignored.
func WithSize(px float64) Option {
	return func(o *options) {
		if px > 0 {
			o.size = px
		}
	}
}

// WithMargin sets the distance between the box and the top-left corner.
func WithMargin(px int) Option {
	return func(o *options) {
		o.margin = max(px, 0)
	}
}

// WithColors sets the box and text colours.
func WithColors(background, foreground color.Color) Option {
	return func(o *options) {
		if background != nil {
			o.background = background
		}
		if foreground != nil {
			o.foreground = foreground
		}
	}
}

// HUD draws lines of text in a translucent box at the top-left of an image.
// It is safe for concurrent use.
type HUD struct {
	opts options

	mu     sync.Mutex
	face   font.Face
	shape  *gtfont.Face
	shaper shaping.HarfbuzzShaper
	widths *cache.Cache[string, int]
	height fixed.Int26_6
	ascent fixed.Int26_6
}

// New returns a HUD using the embedded Go Regular font.
func New(opts ...Option) (*HUD, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    o.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("overlay: create face: %w", err)
	}
	shape, err := gtfont.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		_ = face.Close()
		return nil, fmt.Errorf("overlay: parse shaping font: %w", err)
	}

	m := face.Metrics()
	return &HUD{
		opts:   o,
		face:   face,
		shape:  shape,
		widths: cache.New[string, int](widthCacheSize),
		height: m.Height,
		ascent: m.Ascent,
	}, nil
}

// Close releases the rasterising face.
func (h *HUD) Close() error {
	return h.face.Close()
}

// Measure returns the shaped advance of s in whole pixels, rounded up.
func (h *HUD) Measure(s string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.measure(s)
}

func (h *HUD) measure(s string) int {
	if s == "" {
		return 0
	}
	return h.widths.GetOrCreate(s, func() int { return h.shapeWidth(s) })
}

func (h *HUD) shapeWidth(s string) int {
	runes := []rune(s)
	out := h.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      h.shape,
		Size:      fixed.Int26_6(h.opts.size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	return out.Advance.Ceil()
}

// Bounds returns the box Draw would paint for lines on an unbounded image
// whose top-left corner is origin.
func (h *HUD) Bounds(origin image.Point, lines []string) image.Rectangle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bounds(origin, lines)
}

func (h *HUD) bounds(origin image.Point, lines []string) image.Rectangle {
	if len(lines) == 0 {
		return image.Rectangle{}
	}
	w := 0
	for _, l := range lines {
		w = max(w, h.measure(l))
	}
	pad := h.opts.padding
	lineH := h.height.Ceil()
	x0 := origin.X + h.opts.margin
	y0 := origin.Y + h.opts.margin
	return image.Rect(x0, y0, x0+w+2*pad, y0+len(lines)*lineH+2*pad)
}

// Draw paints lines onto dst and returns the painted rectangle, clipped to
// dst. It returns the empty rectangle when there is nothing to draw.
func (h *HUD) Draw(dst *image.RGBA, lines []string) image.Rectangle {
	h.mu.Lock()
	defer h.mu.Unlock()

	box := h.bounds(dst.Bounds().Min, lines).Intersect(dst.Bounds())
	if box.Empty() {
		return image.Rectangle{}
	}
	draw.Draw(dst, box, image.NewUniform(h.opts.background), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst.SubImage(box).(*image.RGBA),
		Src:  image.NewUniform(h.opts.foreground),
		Face: h.face,
	}
	pad := fixed.I(h.opts.padding)
	y := fixed.I(box.Min.Y) + pad + h.ascent
	for _, l := range lines {
		d.Dot = fixed.Point26_6{X: fixed.I(box.Min.X) + pad, Y: y}
		d.DrawString(l)
		y += h.height
	}
	return box
}
