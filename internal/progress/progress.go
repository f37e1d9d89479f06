// Package progress renders console progress and human-readable run summaries.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCells is the width of the bar in characters.
const DefaultCells = 50

// Bar is a single-line console progress bar, redrawn in place with a
// carriage return. It is safe for concurrent use.
type Bar struct {
	mu       sync.Mutex
	w        io.Writer
	cells    int
	p        *message.Printer
	fraction float64
	err      error
}

// NewBar returns a bar of cells characters writing to w. Numbers are
// formatted for tag. cells below 1 selects DefaultCells.
func NewBar(w io.Writer, cells int, tag language.Tag) *Bar {
	if cells < 1 {
		cells = DefaultCells
	}
	return &Bar{w: w, cells: cells, p: message.NewPrinter(tag)}
}

// Update redraws the bar at fraction, clamped to [0, 1].
func (b *Bar) Update(fraction float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fraction = min(max(fraction, 0), 1)
	b.draw()
}

// Finish draws the bar full and ends the line. It returns the first write
// error seen by the bar.
func (b *Bar) Finish() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fraction = 1
	b.draw()
	if b.err == nil {
		_, b.err = io.WriteString(b.w, "\n")
	}
	return b.err
}

func (b *Bar) draw() {
	if b.err != nil {
		return
	}
	_, b.err = io.WriteString(b.w, "\r"+b.line())
}

// line renders the bar without the leading carriage return.
func (b *Bar) line() string {
	done := int(b.fraction*float64(b.cells) + 0.5)
	var sb strings.Builder
	sb.Grow(b.cells + 12)
	sb.WriteByte('[')
	sb.WriteString(strings.Repeat("=", done))
	sb.WriteString(strings.Repeat(" ", b.cells-done))
	sb.WriteString("] ")
	sb.WriteString(b.p.Sprint(number.Percent(b.fraction, number.MaxFractionDigits(1))))
	return sb.String()
}

// FrameBytes is the memory a W x H run needs: one count buffer and one
// colour-mapped buffer of 2-byte cells each.
func FrameBytes(width, height int) uint64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return 2 * uint64(width) * uint64(height) * 2
}

// FormatBytes renders n as decimal megabytes and binary mebibytes with up to
// three fraction digits, e.g. "5 MB (4.768 MiB)".
func FormatBytes(tag language.Tag, n uint64) string {
	p := message.NewPrinter(tag)
	mb := float64(n) / 1_000_000
	mib := float64(n) / 1_048_576
	return fmt.Sprintf("%s MB (%s MiB)",
		p.Sprint(number.Decimal(mb, number.MaxFractionDigits(3))),
		p.Sprint(number.Decimal(mib, number.MaxFractionDigits(3))))
}

// FormatDuration renders d as "M min S s MS ms", omitting zero parts.
// Durations under a millisecond render as "0 ms".
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	minutes := ms / 60_000
	seconds := ms / 1000 % 60
	millis := ms % 1000

	var parts []string
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", minutes))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%d s", seconds))
	}
	if millis > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d ms", millis))
	}
	return strings.Join(parts, " ")
}
