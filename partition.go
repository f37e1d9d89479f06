package fractal

// RowRange is a half-open range [Start, End) of pixel rows.
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int {
	return r.End - r.Start
}

// Contains reports whether row lies inside the range.
func (r RowRange) Contains(row int) bool {
	return row >= r.Start && row < r.End
}

// Partition splits rows [0, height) into split blocks of height/split rows,
// plus one trailing block holding the remainder when height is not divisible
// by split. The returned ranges are disjoint, ordered, and cover [0, height).
//
// split is clamped to [1, height] so no block is empty. A non-positive height
// yields no tiles.
func Partition(height, split int) []RowRange {
	if height <= 0 {
		return nil
	}
	split = clampSplit(height, split)

	block := height / split
	tiles := make([]RowRange, 0, split+1)
	for i := range split {
		tiles = append(tiles, RowRange{Start: i * block, End: (i + 1) * block})
	}
	if rest := height % split; rest != 0 {
		start := split * block
		tiles = append(tiles, RowRange{Start: start, End: start + rest})
	}
	return tiles
}

// TileCount returns len(Partition(height, split)) without allocating.
// It is the number of results a consumer must await for one generation.
func TileCount(height, split int) int {
	if height <= 0 {
		return 0
	}
	split = clampSplit(height, split)
	if height%split != 0 {
		return split + 1
	}
	return split
}

func clampSplit(height, split int) int {
	if split < 1 {
		return 1
	}
	if split > height {
		return height
	}
	return split
}
