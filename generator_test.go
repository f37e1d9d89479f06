package fractal

import (
	"errors"
	"math"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{"mandelbrot", Params{Kind: KindMandelbrot, Size: Size{4, 4}, MaxIterations: 50}, nil},
		{"julia", Params{Kind: KindJulia, C: complex(-0.8, 0.156), Size: Size{4, 4}, MaxIterations: 50}, nil},
		{"zero width", Params{Kind: KindMandelbrot, Size: Size{0, 4}}, ErrInvalidSize},
		{"negative height", Params{Kind: KindMandelbrot, Size: Size{4, -1}}, ErrInvalidSize},
		{"unknown kind", Params{Kind: Kind(9), Size: Size{4, 4}}, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewGenerator() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if g.FramePixelSize() != tt.params.Size {
				t.Errorf("FramePixelSize() = %v, want %v", g.FramePixelSize(), tt.params.Size)
			}
			if g.MaxIterations() != tt.params.MaxIterations {
				t.Errorf("MaxIterations() = %d, want %d", g.MaxIterations(), tt.params.MaxIterations)
			}
			if g.Constant() != tt.params.C {
				t.Errorf("Constant() = %v, want %v", g.Constant(), tt.params.C)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if got := KindMandelbrot.String(); got != "mandelbrot" {
		t.Errorf("String() = %q, want %q", got, "mandelbrot")
	}
	if got := KindJulia.String(); got != "julia" {
		t.Errorf("String() = %q, want %q", got, "julia")
	}
	if got := Kind(7).String(); got != "Kind(7)" {
		t.Errorf("String() = %q, want %q", got, "Kind(7)")
	}
}

// =============================================================================
// Escape-time Tests
// =============================================================================

func TestMandelbrot_ConvergenceIterations(t *testing.T) {
	m := NewMandelbrot(Size{1, 1}, 1000)

	tests := []struct {
		name  string
		coord complex128
		check func(uint16) bool
		want  string
	}{
		{"origin never escapes", 0, func(n uint16) bool { return n == 1000 }, "1000"},
		{"-1 cycles", complex(-1, 0), func(n uint16) bool { return n == 1000 }, "1000"},
		{"3 escapes fast", complex(3, 0), func(n uint16) bool { return n <= 2 }, "<= 2"},
		{"2+2i escapes at once", complex(2, 2), func(n uint16) bool { return n == 1 }, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ConvergenceIterations(1000, tt.coord, m.Constant())
			if !tt.check(got) {
				t.Errorf("ConvergenceIterations(%v) = %d, want %s", tt.coord, got, tt.want)
			}
		})
	}
}

func TestMandelbrot_ZeroMaxIterations(t *testing.T) {
	m := NewMandelbrot(Size{1, 1}, 0)
	if got := m.ConvergenceIterations(0, 0, 0); got != 0 {
		t.Errorf("ConvergenceIterations(maxIter=0) = %d, want 0", got)
	}
}

func TestJulia_ConvergenceIterations(t *testing.T) {
	j := NewJulia(Size{1, 1}, 200, 0)

	// With c = 0 the Julia set is the unit disc.
	if got := j.ConvergenceIterations(200, complex(0.5, 0), j.Constant()); got != 200 {
		t.Errorf("inside unit disc = %d, want 200", got)
	}
	if got := j.ConvergenceIterations(200, complex(1.5, 0), j.Constant()); got >= 200 {
		t.Errorf("outside unit disc = %d, want < 200", got)
	}
	// z0 already outside the radius takes zero steps.
	if got := j.ConvergenceIterations(200, complex(3, 0), j.Constant()); got != 0 {
		t.Errorf("outside radius = %d, want 0", got)
	}
}

// =============================================================================
// Step and Tile Tests
// =============================================================================

func TestBetweenPixels(t *testing.T) {
	g := NewMandelbrot(Size{Width: 1250, Height: 1000}, 100)
	vp, _ := NewViewport(-2, 0.5, -1, 1)

	step, err := BetweenPixels(g, vp)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(step.Re, 0.002) || !approx(step.Im, 0.002) {
		t.Errorf("BetweenPixels() = %+v, want {0.002 0.002}", step)
	}
}

func TestBetweenPixels_InvalidViewport(t *testing.T) {
	g := NewMandelbrot(Size{Width: 10, Height: 10}, 100)

	for _, vp := range []Viewport{
		{Re: Range{1, 1}, Im: Range{-1, 1}},
		{Re: Range{math.Inf(-1), math.Inf(1)}, Im: Range{-1, 1}},
		{Re: Range{-2, 0.5}, Im: Range{-math.MaxFloat64, math.MaxFloat64}},
	} {
		if _, err := BetweenPixels(g, vp); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("BetweenPixels(%+v) error = %v, want %v", vp, err, ErrInvalidRange)
		}
	}
}

func TestGetTile_Walk(t *testing.T) {
	// A generator that records coordinates instead of iterating.
	var seen []complex128
	rec := recordingGenerator{seen: &seen}
	step := Step{Re: 0.5, Im: 0.25}

	counts := GetTile(rec, complex(-1, 1), RowRange{Start: 2, End: 4}, 3, step, 10, 0)
	if len(counts) != 6 {
		t.Fatalf("len(GetTile()) = %d, want 6", len(counts))
	}

	want := []complex128{
		complex(-1, 0.5), complex(-0.5, 0.5), complex(0, 0.5),
		complex(-1, 0.25), complex(-0.5, 0.25), complex(0, 0.25),
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("coordinate %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestGetTile_Empty(t *testing.T) {
	g := NewMandelbrot(Size{4, 4}, 10)
	if got := GetTile(g, 0, RowRange{Start: 3, End: 3}, 4, Step{1, 1}, 10, 0); got != nil {
		t.Errorf("GetTile(empty rows) = %v, want nil", got)
	}
}

type recordingGenerator struct {
	seen *[]complex128
}

func (recordingGenerator) Constant() complex128  { return 0 }
func (recordingGenerator) FramePixelSize() Size  { return Size{} }
func (recordingGenerator) MaxIterations() uint16 { return 0 }

func (r recordingGenerator) ConvergenceIterations(_ uint16, coordinate, _ complex128) uint16 {
	*r.seen = append(*r.seen, coordinate)
	return 0
}

func BenchmarkGetTile(b *testing.B) {
	g := NewMandelbrot(Size{Width: 512, Height: 512}, 500)
	vp, _ := NewViewport(-2, 0.5, -1, 1)
	step, _ := BetweenPixels(g, vp)
	rows := RowRange{Start: 0, End: 32}

	b.ReportAllocs()
	for b.Loop() {
		_ = GetTile(g, vp.Origin(), rows, 512, step, 500, 0)
	}
}
