package fractal

import "fmt"

// escapeRadiusSq is the squared magnitude at which an orbit is considered
// to have escaped.
const escapeRadiusSq = 4.0

// Kind selects the escape-time variant.
type Kind int

const (
	// KindMandelbrot iterates from z = 0 with c = pixel coordinate.
	KindMandelbrot Kind = iota

	// KindJulia iterates from z = pixel coordinate with a fixed c.
	KindJulia
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMandelbrot:
		return "mandelbrot"
	case KindJulia:
		return "julia"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Size is the pixel grid of a run.
type Size struct {
	Width  int
	Height int
}

// Pixels returns Width * Height.
func (s Size) Pixels() int {
	return s.Width * s.Height
}

// Step is the distance in the complex plane between two neighbouring pixels.
type Step struct {
	Re float64
	Im float64
}

// Params are the generator parameters of a run. They are fixed once a run
// starts and are copied by value into every TileSpec, so workers never share
// them.
type Params struct {
	Kind          Kind
	C             complex128 // Julia constant; ignored for Mandelbrot
	Size          Size
	MaxIterations uint16
}

// Generator evaluates escape-time counts for one fractal variant.
type Generator interface {
	// Constant returns the additive constant (zero for Mandelbrot).
	Constant() complex128

	// FramePixelSize returns the pixel grid the generator was built for.
	FramePixelSize() Size

	// MaxIterations returns the iteration cap.
	MaxIterations() uint16

	// ConvergenceIterations returns the number of z <- z*z + c steps taken
	// before |z|^2 >= 4, capped at maxIter. A result equal to maxIter means
	// the orbit did not escape.
	ConvergenceIterations(maxIter uint16, coordinate, constant complex128) uint16
}

// NewGenerator builds the generator described by p.
func NewGenerator(p Params) (Generator, error) {
	if p.Size.Width <= 0 || p.Size.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, p.Size.Width, p.Size.Height)
	}
	switch p.Kind {
	case KindMandelbrot:
		return Mandelbrot{size: p.Size, maxIter: p.MaxIterations}, nil
	case KindJulia:
		return Julia{size: p.Size, maxIter: p.MaxIterations, c: p.C}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, p.Kind)
	}
}

// Mandelbrot is the generator for the Mandelbrot set.
type Mandelbrot struct {
	size    Size
	maxIter uint16
}

// NewMandelbrot returns a Mandelbrot generator for the given grid.
func NewMandelbrot(size Size, maxIter uint16) Mandelbrot {
	return Mandelbrot{size: size, maxIter: maxIter}
}

func (Mandelbrot) Constant() complex128    { return 0 }
func (m Mandelbrot) FramePixelSize() Size  { return m.size }
func (m Mandelbrot) MaxIterations() uint16 { return m.maxIter }

// ConvergenceIterations starts from z = 0 and adds the evaluated coordinate.
func (Mandelbrot) ConvergenceIterations(maxIter uint16, coordinate, _ complex128) uint16 {
	return escape(maxIter, 0, coordinate)
}

// Julia is the generator for the Julia set of a fixed constant.
type Julia struct {
	size    Size
	maxIter uint16
	c       complex128
}

// NewJulia returns a Julia generator for constant c.
func NewJulia(size Size, maxIter uint16, c complex128) Julia {
	return Julia{size: size, maxIter: maxIter, c: c}
}

func (j Julia) Constant() complex128  { return j.c }
func (j Julia) FramePixelSize() Size  { return j.size }
func (j Julia) MaxIterations() uint16 { return j.maxIter }

// ConvergenceIterations starts from the evaluated coordinate and adds constant.
func (Julia) ConvergenceIterations(maxIter uint16, coordinate, constant complex128) uint16 {
	return escape(maxIter, coordinate, constant)
}

// escape runs z <- z*z + c from z0 on separate real/imaginary parts, which
// avoids complex128 multiplication overhead in the hot loop.
func escape(maxIter uint16, z0, c complex128) uint16 {
	zr, zi := real(z0), imag(z0)
	cr, ci := real(c), imag(c)
	var i uint16
	for zr*zr+zi*zi < escapeRadiusSq && i < maxIter {
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
		i++
	}
	return i
}

// BetweenPixels returns the per-pixel step of vp on g's pixel grid.
func BetweenPixels(g Generator, vp Viewport) (Step, error) {
	return stepFor(vp, g.FramePixelSize())
}

func stepFor(vp Viewport, size Size) (Step, error) {
	if _, err := vp.validate(); err != nil {
		return Step{}, err
	}
	if size.Width <= 0 || size.Height <= 0 {
		return Step{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.Width, size.Height)
	}
	return Step{
		Re: vp.Re.Size() / float64(size.Width),
		Im: vp.Im.Size() / float64(size.Height),
	}, nil
}

// GetTile evaluates the rows of a tile. origin is the coordinate of the
// grid's top-left pixel; the walk starts rows.Start rows below it, runs
// row-major, resets the real part after each row and steps the imaginary
// part down by step.Im.
func GetTile(g Generator, origin complex128, rows RowRange, width int, step Step, maxIter uint16, constant complex128) []uint16 {
	if rows.Len() <= 0 || width <= 0 {
		return nil
	}
	counts := make([]uint16, 0, rows.Len()*width)
	re0 := real(origin)
	im := imag(origin) - float64(rows.Start)*step.Im
	for range rows.Len() {
		re := re0
		for range width {
			counts = append(counts, g.ConvergenceIterations(maxIter, complex(re, im), constant))
			re += step.Re
		}
		im -= step.Im
	}
	return counts
}
