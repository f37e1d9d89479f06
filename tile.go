package fractal

// Tile is one computed row range of the pixel grid.
//
// A tile is created by exactly one worker, moved once through the pool's
// output channel and consumed once. It is never mutated after creation.
type Tile struct {
	// Rows is the range of grid rows covered by Counts.
	Rows RowRange

	// Counts holds Rows.Len()*width escape-time counts in row-major order.
	Counts []uint16

	// Generation identifies the viewport snapshot the tile was computed for.
	Generation uint64
}

// PixelOffset returns the index of the tile's first count in a row-major
// grid of the given width.
func (t Tile) PixelOffset(width int) int {
	return t.Rows.Start * width
}

// TileSpec is an immutable snapshot of everything needed to compute one
// tile. Compute reads nothing but the snapshot, so later viewport changes
// cannot race with an in-flight tile.
type TileSpec struct {
	Params     Params
	Origin     complex128
	Step       Step
	Rows       RowRange
	Generation uint64
}

// Compute evaluates the tile. It is the deferred work item handed to the
// thread pool.
func (s TileSpec) Compute() Tile {
	g := generatorFor(s.Params)
	return Tile{
		Rows:       s.Rows,
		Counts:     GetTile(g, s.Origin, s.Rows, s.Params.Size.Width, s.Step, s.Params.MaxIterations, g.Constant()),
		Generation: s.Generation,
	}
}

// generatorFor builds the generator for already validated params.
func generatorFor(p Params) Generator {
	if p.Kind == KindJulia {
		return NewJulia(p.Size, p.MaxIterations, p.C)
	}
	return NewMandelbrot(p.Size, p.MaxIterations)
}

// PixelOrigin returns the coordinate sampled for pixel (0, 0): the centre of
// the top-left pixel of vp, half a step in from the viewport corner.
func PixelOrigin(vp Viewport, step Step) complex128 {
	return complex(vp.Re.Start+step.Re/2, vp.Im.End-step.Im/2)
}

// tileSpecs returns one spec per partition block of a viewport snapshot.
func tileSpecs(p Params, vp Viewport, split int, generation uint64) ([]TileSpec, error) {
	step, err := stepFor(vp, p.Size)
	if err != nil {
		return nil, err
	}
	origin := PixelOrigin(vp, step)
	rows := Partition(p.Size.Height, split)
	specs := make([]TileSpec, len(rows))
	for i, r := range rows {
		specs[i] = TileSpec{
			Params:     p,
			Origin:     origin,
			Step:       step,
			Rows:       r,
			Generation: generation,
		}
	}
	return specs, nil
}
