package fractal

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

// manualPool holds pushed work until complete is called.
type manualPool struct {
	pending  []func() Tile
	out      chan PoolResult
	pushes   int
	shutdown bool
}

func newManualPool() *manualPool {
	return &manualPool{out: make(chan PoolResult, 1024)}
}

func (m *manualPool) Push(work func() Tile) error {
	if m.shutdown {
		return ErrPoolClosed
	}
	m.pushes++
	m.pending = append(m.pending, work)
	return nil
}

func (m *manualPool) Output() <-chan PoolResult { return m.out }
func (m *manualPool) IsBusy() bool              { return len(m.pending) > 0 }

func (m *manualPool) Shutdown() {
	if !m.shutdown {
		m.shutdown = true
		close(m.out)
	}
}

// complete runs every pending task and delivers the results.
func (m *manualPool) complete() {
	for _, w := range m.pending {
		m.out <- PoolResult{Value: w()}
	}
	m.pending = nil
}

type fakeSurface struct {
	rows     map[int]bool
	writes   int
	presents int
	err      error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{rows: make(map[int]bool)}
}

func (s *fakeSurface) WriteRows(rows RowRange, pix []byte) error {
	if s.err != nil {
		return s.err
	}
	s.writes++
	for r := rows.Start; r < rows.End; r++ {
		s.rows[r] = true
	}
	return nil
}

func (s *fakeSurface) Present() error {
	s.presents++
	return nil
}

type fakeInput struct {
	queue [][]Event
	err   error
}

func (f *fakeInput) send(events ...Event) {
	f.queue = append(f.queue, events)
}

func (f *fakeInput) PollEvents() ([]Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.queue) == 0 {
		return nil, nil
	}
	ev := f.queue[0]
	f.queue = f.queue[1:]
	return ev, nil
}

var controllerParams = Params{Kind: KindMandelbrot, Size: Size{Width: 20, Height: 16}, MaxIterations: 40}

func newTestController(t *testing.T, opts ...ControllerOption) (*Controller, *manualPool, *fakeSurface, *fakeInput) {
	t.Helper()
	pool := newManualPool()
	surface := newFakeSurface()
	input := &fakeInput{}
	opts = append([]ControllerOption{WithSplit(4)}, opts...)

	c, err := NewController(pool, controllerParams, fullViewport(t), surface, input, opts...)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return c, pool, surface, input
}

func tick(t *testing.T, c *Controller) bool {
	t.Helper()
	quit, err := c.Tick()
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	return quit
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestNewController_SubmitsFirstGeneration(t *testing.T) {
	c, pool, _, _ := newTestController(t)

	if c.State() != StateGenerating {
		t.Errorf("State() = %v, want %v", c.State(), StateGenerating)
	}
	if c.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", c.Generation())
	}
	if pool.pushes != 4 {
		t.Errorf("pushes = %d, want 4", pool.pushes)
	}
}

func TestNewController_InvalidInput(t *testing.T) {
	pool := newManualPool()
	bad := Viewport{Re: Range{0, 0}, Im: Range{-1, 1}}

	if _, err := NewController(pool, controllerParams, bad, newFakeSurface(), &fakeInput{}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("NewController(bad viewport) error = %v, want %v", err, ErrInvalidRange)
	}
	p := controllerParams
	p.Kind = Kind(5)
	if _, err := NewController(pool, p, fullViewport(t), newFakeSurface(), &fakeInput{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("NewController(bad kind) error = %v, want %v", err, ErrUnknownKind)
	}
}

func TestController_GenerationCompletes(t *testing.T) {
	c, pool, surface, _ := newTestController(t)

	pool.complete()
	tick(t, c)

	if c.State() != StateIdle {
		t.Errorf("State() = %v, want %v", c.State(), StateIdle)
	}
	for r := range controllerParams.Size.Height {
		if !surface.rows[r] {
			t.Errorf("row %d never written", r)
		}
	}
	if surface.presents != 1 {
		t.Errorf("presents = %d, want 1", surface.presents)
	}

	// Nothing changed: the next tick presents nothing.
	tick(t, c)
	if surface.presents != 1 {
		t.Errorf("presents after idle tick = %d, want 1", surface.presents)
	}
}

func TestController_Quit(t *testing.T) {
	c, _, _, input := newTestController(t)

	input.send(Quit{})
	if !tick(t, c) {
		t.Error("Tick() = false after Quit, want true")
	}
	if !tick(t, c) {
		t.Error("Tick() = false on the tick after Quit, want true")
	}
}

// =============================================================================
// Input Tests
// =============================================================================

func TestController_PanAppliedWhenIdle(t *testing.T) {
	c, pool, _, input := newTestController(t)
	pool.complete()
	tick(t, c)

	before := c.Viewport()
	step, _ := stepFor(before, controllerParams.Size)

	input.send(PointerMove{DX: 4, DY: 2, Primary: true}, PointerMove{DX: 100, DY: 100})
	tick(t, c)

	if c.Generation() != 2 {
		t.Fatalf("Generation() = %d, want 2", c.Generation())
	}
	want, _ := before.Pan(4, 2, step)
	if c.Viewport() != want {
		t.Errorf("Viewport() = %+v, want %+v", c.Viewport(), want)
	}
}

func TestController_InputCoalescedWhileBusy(t *testing.T) {
	c, pool, _, input := newTestController(t)
	before := c.Viewport()
	step, _ := stepFor(before, controllerParams.Size)

	input.send(PointerMove{DX: 1, Primary: true})
	tick(t, c)
	input.send(PointerMove{DX: 2, Primary: true}, Wheel{DY: 1})
	tick(t, c)

	if c.Generation() != 1 {
		t.Fatalf("submitted while busy: Generation() = %d, want 1", c.Generation())
	}
	if pool.pushes != 4 {
		t.Fatalf("pushes = %d, want 4", pool.pushes)
	}

	pool.complete()
	tick(t, c)

	if c.Generation() != 2 {
		t.Fatalf("Generation() = %d, want 2", c.Generation())
	}
	want, _ := before.Pan(3, 0, step)
	want, _ = want.Zoom(1, DefaultShrinkRate, step, controllerParams.Size)
	if c.Viewport() != want {
		t.Errorf("Viewport() = %+v, want %+v", c.Viewport(), want)
	}
	if pool.pushes != 8 {
		t.Errorf("pushes = %d, want 8", pool.pushes)
	}
}

func TestController_DegenerateZoomRejected(t *testing.T) {
	pool := newManualPool()
	vp, _ := NewViewport(0, 1e-300, 0, 1e-300)
	c, err := NewController(pool, controllerParams, vp, newFakeSurface(), &fakeInput{}, WithSplit(1))
	if err != nil {
		t.Fatal(err)
	}
	pool.complete()
	tick(t, c)

	// Repeated extreme zooms eventually underflow the span.
	input := c.input.(*fakeInput)
	for range 200 {
		input.send(Wheel{DY: 1e9})
		tick(t, c)
		pool.complete()
		tick(t, c)
		if _, err := c.Viewport().validate(); err != nil {
			t.Fatalf("controller accepted invalid viewport %+v", c.Viewport())
		}
	}
}

func TestController_OverflowingZoomOutRejected(t *testing.T) {
	c, pool, _, input := newTestController(t, WithSplit(1))
	pool.complete()
	tick(t, c)

	// Widen until the span would overflow, then check the controller still
	// responds to a zoom back in from the last finite viewport.
	for range 200 {
		input.send(Wheel{DY: -1e6})
		tick(t, c)
		pool.complete()
		tick(t, c)
		if _, err := c.Viewport().validate(); err != nil {
			t.Fatalf("controller accepted invalid viewport %+v", c.Viewport())
		}
	}

	widest := c.Viewport()
	input.send(Wheel{DY: 1})
	tick(t, c)
	if got := c.Viewport(); got.Im.Size() >= widest.Im.Size() {
		t.Errorf("zoom in after overflow: Im span = %v, want < %v", got.Im.Size(), widest.Im.Size())
	}
}

// =============================================================================
// Stale Tile Tests
// =============================================================================

func staleSetup(t *testing.T, opts ...ControllerOption) (*Controller, *manualPool, []func() Tile) {
	t.Helper()
	c, pool, _, input := newTestController(t, opts...)

	// Keep generation 1 work aside, finish it later as stale.
	old := pool.pending
	pool.pending = nil

	input.send(Wheel{DY: 1})
	tick(t, c)
	if c.Generation() != 2 {
		t.Fatalf("Generation() = %d, want 2", c.Generation())
	}
	return c, pool, old
}

func TestController_StaleTilesDiscarded(t *testing.T) {
	m := &recordingMetrics{}
	c, pool, old := staleSetup(t, WithControllerMetrics(m))

	canvasBefore := append([]byte(nil), c.Canvas().Data()...)
	for _, w := range old {
		pool.out <- PoolResult{Value: w()}
	}
	tick(t, c)

	if string(c.Canvas().Data()) != string(canvasBefore) {
		t.Error("stale tiles were drawn")
	}
	if m.discarded != 4 {
		t.Errorf("discarded = %d, want 4", m.discarded)
	}
}

func TestController_StaleTilesDrawn(t *testing.T) {
	c, pool, old := staleSetup(t, WithStaleTiles(true))

	canvasBefore := append([]byte(nil), c.Canvas().Data()...)
	for _, w := range old {
		pool.out <- PoolResult{Value: w()}
	}
	tick(t, c)

	if string(c.Canvas().Data()) == string(canvasBefore) {
		t.Error("stale tiles were not drawn")
	}
}

// =============================================================================
// Error and Run Tests
// =============================================================================

func TestController_SurfaceError(t *testing.T) {
	c, pool, surface, _ := newTestController(t)
	surface.err = errors.New("lost device")

	pool.complete()
	_, err := c.Tick()

	var serr *SurfaceError
	if !errors.As(err, &serr) {
		t.Fatalf("Tick() error = %v, want *SurfaceError", err)
	}
	if serr.Op != "write rows" {
		t.Errorf("Op = %q, want %q", serr.Op, "write rows")
	}
}

func TestController_InputError(t *testing.T) {
	c, _, _, input := newTestController(t)
	input.err = errors.New("closed")

	var serr *SurfaceError
	if _, err := c.Tick(); !errors.As(err, &serr) {
		t.Errorf("Tick() error = %v, want *SurfaceError", err)
	}
}

func TestController_RunUntilQuit(t *testing.T) {
	pool := NewPool(2)
	surface := newFakeSurface()
	input := &fakeInput{}

	c, err := NewController(pool, controllerParams, fullViewport(t), surface, input,
		WithTickInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	// Let a few ticks pass, then quit.
	for range 20 {
		input.send()
	}
	input.send(Quit{})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Quit")
	}

	if err := pool.Push(func() Tile { return Tile{} }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Push() after Run returned error = %v, want ErrPoolClosed", err)
	}
}

func TestController_RunCancelled(t *testing.T) {
	pool := NewPool(1)
	c, err := NewController(pool, controllerParams, fullViewport(t), newFakeSurface(), &fakeInput{},
		WithTickInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if err := pool.Push(func() Tile { return Tile{} }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Push() after Run returned error = %v, want ErrPoolClosed", err)
	}
}

// =============================================================================
// Overlay Tests
// =============================================================================

type boxOverlay struct {
	calls int
	lines []string
}

func (b *boxOverlay) Draw(dst *image.RGBA, lines []string) image.Rectangle {
	b.calls++
	b.lines = lines
	r := image.Rect(0, 0, 3, 2)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetRGBA(x, y, Black)
		}
	}
	return r
}

func TestController_OverlayDoesNotTouchCanvas(t *testing.T) {
	ov := &boxOverlay{}
	c, pool, surface, _ := newTestController(t, WithOverlay(ov), WithPalette(GrayPalette{}))

	pool.complete()
	tick(t, c)

	if ov.calls != 1 {
		t.Fatalf("overlay calls = %d, want 1", ov.calls)
	}
	if len(ov.lines) == 0 {
		t.Error("overlay received no status lines")
	}
	if !surface.rows[0] || !surface.rows[1] {
		t.Error("overlay rows were not presented")
	}
	// The top-left pixel escapes quickly, so the grey palette paints it light.
	if got := c.Canvas().Pixel(0, 0); got == Black {
		t.Error("overlay was drawn onto the tile canvas")
	}
}

// =============================================================================
// Metrics Tests
// =============================================================================

type recordingMetrics struct {
	started, done, discarded, rows int
}

func (r *recordingMetrics) GenerationStarted(int)        { r.started++ }
func (r *recordingMetrics) GenerationDone(time.Duration) { r.done++ }
func (r *recordingMetrics) TileDiscarded()               { r.discarded++ }
func (r *recordingMetrics) RowsPresented(n int)          { r.rows += n }

func TestController_Metrics(t *testing.T) {
	m := &recordingMetrics{}
	c, pool, _, _ := newTestController(t, WithControllerMetrics(m))

	pool.complete()
	tick(t, c)

	if m.started != 1 || m.done != 1 {
		t.Errorf("started, done = %d, %d, want 1, 1", m.started, m.done)
	}
	if m.rows != controllerParams.Size.Height {
		t.Errorf("rows presented = %d, want %d", m.rows, controllerParams.Size.Height)
	}
}

func TestState_String(t *testing.T) {
	if StateIdle.String() != "idle" || StateGenerating.String() != "generating" {
		t.Errorf("State strings = %q, %q", StateIdle, StateGenerating)
	}
}
