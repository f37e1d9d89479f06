package parallel

import (
	"math/bits"
	"sync/atomic"
)

// Span is a half-open run [Start, End) of dirty rows.
type Span struct {
	Start int
	End   int
}

// DirtyRows tracks which pixel rows of a canvas changed since the last
// present, using an atomic bitmap with one bit per row.
//
// All methods are safe for concurrent use without external synchronization.
type DirtyRows struct {
	// words packs 64 rows per word; row r lives at bit r%64 of word r/64.
	words []atomic.Uint64
	rows  int
}

// NewDirtyRows creates a clean tracker for rows rows.
// Returns nil if rows is zero or negative.
func NewDirtyRows(rows int) *DirtyRows {
	if rows <= 0 {
		return nil
	}
	return &DirtyRows{
		words: make([]atomic.Uint64, (rows+63)/64),
		rows:  rows,
	}
}

// MarkRange marks rows [start, end), clipped to the tracker.
func (d *DirtyRows) MarkRange(start, end int) {
	start = max(start, 0)
	end = min(end, d.rows)
	for start < end {
		wordIdx := start / 64
		lo := start & 63
		hi := min(end-wordIdx*64, 64)
		var mask uint64
		if hi-lo == 64 {
			mask = ^uint64(0)
		} else {
			mask = ((uint64(1) << (hi - lo)) - 1) << lo
		}
		d.words[wordIdx].Or(mask)
		start = wordIdx*64 + hi
	}
}

// MarkAll marks every row.
func (d *DirtyRows) MarkAll() {
	d.MarkRange(0, d.rows)
}

// IsEmpty reports whether no row is marked.
func (d *DirtyRows) IsEmpty() bool {
	for i := range d.words {
		if d.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// TakeSpans atomically clears the bitmap and returns the marked rows merged
// into maximal contiguous spans, in ascending order.
func (d *DirtyRows) TakeSpans() []Span {
	var spans []Span
	open := false
	var cur Span

	for wordIdx := range d.words {
		word := d.words[wordIdx].Swap(0)
		base := wordIdx * 64
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			row := base + bit
			if open && row == cur.End {
				cur.End++
			} else {
				if open {
					spans = append(spans, cur)
				}
				cur = Span{Start: row, End: row + 1}
				open = true
			}
			word &^= 1 << bit
		}
	}
	if open {
		spans = append(spans, cur)
	}
	return spans
}
