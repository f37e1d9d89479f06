package fractal

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/fractal/internal/parallel"
)

// State is the controller's generation state.
type State int

const (
	// StateIdle means no generation is in flight.
	StateIdle State = iota

	// StateGenerating means tiles of the current generation are outstanding.
	StateGenerating
)

// String returns "idle" or "generating".
func (s State) String() string {
	if s == StateGenerating {
		return "generating"
	}
	return "idle"
}

// Event is an input event polled from an InputSource.
type Event interface {
	isEvent()
}

// Quit requests the controller to stop.
type Quit struct{}

// PointerMove is a relative pointer motion in pixels. It pans the view only
// while the primary button is held.
type PointerMove struct {
	DX, DY  float64
	Primary bool
}

// Wheel is a scroll delta. Positive values zoom in.
type Wheel struct {
	DY float64
}

func (Quit) isEvent()        {}
func (PointerMove) isEvent() {}
func (Wheel) isEvent()       {}

// InputSource delivers pending input events without blocking.
type InputSource interface {
	PollEvents() ([]Event, error)
}

// Surface is the presentation backend. WriteRows receives RGBA bytes for the
// given rows; Present makes everything written so far visible.
type Surface interface {
	WriteRows(rows RowRange, pix []byte) error
	Present() error
}

// Status is a snapshot of the controller, used for the overlay.
type Status struct {
	State      State
	Viewport   Viewport
	Generation uint64
	Tiles      int
	Received   int
	LastRender time.Duration
	Zoom       float64
}

// Lines formats the status for display.
func (s Status) Lines() []string {
	c := s.Viewport.Center()
	lines := []string{
		fmt.Sprintf("center %.6g %+.6gi", real(c), imag(c)),
		fmt.Sprintf("zoom x%.4g", s.Zoom),
	}
	if s.State == StateGenerating {
		lines = append(lines, fmt.Sprintf("rendering %d/%d", s.Received, s.Tiles))
	} else {
		lines = append(lines, fmt.Sprintf("rendered in %s", s.LastRender.Round(time.Millisecond)))
	}
	return lines
}

// Controller drives interactive exploration. It turns input into viewport
// changes, submits one generation of tiles at a time and streams finished
// tiles to a Surface.
//
// A Controller is not safe for concurrent use; Tick and Run must be called
// from one goroutine.
type Controller struct {
	pool    TilePool
	surface Surface
	input   InputSource
	opts    controllerOptions
	log     *slog.Logger

	params  Params
	vp      Viewport
	step    Step
	initial float64 // real span of the first viewport, for Status.Zoom

	state      State
	generation uint64
	tiles      int
	received   int
	started    time.Time
	lastRender time.Duration

	// Accumulated input, applied when the next generation is submitted.
	dx, dy float64
	wheel  float64
	quit   bool

	canvas *Canvas // composited tiles
	screen *Canvas // canvas plus overlay; aliases canvas without an overlay
	dirty  *parallel.DirtyRows
	hud    image.Rectangle
}

// NewController validates its inputs and submits the first generation.
func NewController(pool TilePool, p Params, vp Viewport, surface Surface, input InputSource, opts ...ControllerOption) (*Controller, error) {
	if _, err := NewGenerator(p); err != nil {
		return nil, err
	}
	vp, err := vp.validate()
	if err != nil {
		return nil, err
	}
	step, err := stepFor(vp, p.Size)
	if err != nil {
		return nil, err
	}

	o := defaultControllerOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller{
		pool:    pool,
		surface: surface,
		input:   input,
		opts:    o,
		log:     o.logger,
		params:  p,
		vp:      vp,
		step:    step,
		initial: vp.Re.Size(),
		canvas:  NewCanvas(p.Size),
		dirty:   parallel.NewDirtyRows(p.Size.Height),
	}
	if c.log == nil {
		c.log = Logger()
	}
	c.screen = c.canvas
	if o.overlay != nil {
		c.screen = NewCanvas(p.Size)
	}
	c.dirty.MarkAll()

	if err := c.submit(); err != nil {
		return nil, err
	}
	return c, nil
}

// State returns the current generation state.
func (c *Controller) State() State {
	return c.state
}

// Viewport returns the viewport of the current generation.
func (c *Controller) Viewport() Viewport {
	return c.vp
}

// Generation returns the number of the current generation, starting at 1.
func (c *Controller) Generation() uint64 {
	return c.generation
}

// Status returns a snapshot for display.
func (c *Controller) Status() Status {
	zoom := 1.0
	if span := c.vp.Re.Size(); span > 0 {
		zoom = c.initial / span
	}
	return Status{
		State:      c.state,
		Viewport:   c.vp,
		Generation: c.generation,
		Tiles:      c.tiles,
		Received:   c.received,
		LastRender: c.lastRender,
		Zoom:       zoom,
	}
}

// Canvas returns the composited image. It is updated in place by Tick.
func (c *Controller) Canvas() *Canvas {
	return c.canvas
}

// Tick runs one iteration of the control loop. It reports true once a Quit
// event has been seen.
func (c *Controller) Tick() (bool, error) {
	if c.quit {
		return true, nil
	}

	events, err := c.input.PollEvents()
	if err != nil {
		return false, &SurfaceError{Op: "poll events", Err: err}
	}
	for _, ev := range events {
		switch e := ev.(type) {
		case Quit:
			c.quit = true
		case PointerMove:
			if e.Primary {
				c.dx += e.DX
				c.dy += e.DY
			}
		case Wheel:
			c.wheel += e.DY
		}
	}
	if c.quit {
		return true, nil
	}

	// Sampled before draining: once the pool is idle every result of the
	// generation is already buffered, so the drain below sees all of them.
	busy := c.pool.IsBusy()
	if err := c.drain(); err != nil {
		return false, err
	}

	if c.state == StateGenerating && !busy {
		c.finish()
	}

	if c.state == StateIdle && !busy && c.pending() {
		if err := c.apply(); err != nil {
			return false, err
		}
	}

	if err := c.present(); err != nil {
		return false, err
	}
	return false, nil
}

// Run calls Tick on every tick interval until a Quit event arrives, ctx is
// done, or the surface fails. The pool is shut down before Run returns.
// Cancellation of ctx is treated like Quit.
func (c *Controller) Run(ctx context.Context) error {
	defer c.shutdown()

	ticker := time.NewTicker(c.opts.tick)
	defer ticker.Stop()

	for {
		quit, err := c.Tick()
		if err != nil {
			c.log.Error("fractal: controller stopped", "error", err)
			return err
		}
		if quit {
			c.log.Info("fractal: controller stopped", "generation", c.generation)
			return nil
		}

		select {
		case <-ctx.Done():
			c.log.Info("fractal: controller cancelled", "generation", c.generation)
			return nil
		case <-ticker.C:
		}
	}
}

// shutdown stops the pool, discarding whatever it still delivers.
func (c *Controller) shutdown() {
	out := c.pool.Output()
	go func() {
		for range out {
		}
	}()
	c.pool.Shutdown()
}

// drain takes every result already delivered by the pool, without blocking.
func (c *Controller) drain() error {
	for {
		select {
		case res, ok := <-c.pool.Output():
			if !ok {
				return fmt.Errorf("fractal: pool output closed: %w", ErrPoolClosed)
			}
			c.accept(res)
		default:
			return nil
		}
	}
}

func (c *Controller) accept(res PoolResult) {
	if res.Err != nil {
		c.log.Warn("fractal: tile failed", "worker", res.Worker, "error", res.Err)
		if c.state == StateGenerating {
			c.received++
		}
		return
	}

	t := res.Value
	current := t.Generation == c.generation
	if !current && !c.opts.staleTiles {
		c.log.Debug("fractal: stale tile discarded",
			"generation", t.Generation, "current", c.generation, "rows", t.Rows.Start)
		if c.opts.metrics != nil {
			c.opts.metrics.TileDiscarded()
		}
		return
	}

	c.canvas.PaintCounts(t.Rows, t.Counts, c.params.MaxIterations, c.opts.palette)
	c.dirty.MarkRange(t.Rows.Start, t.Rows.End)
	if current {
		c.received++
	}
}

func (c *Controller) finish() {
	c.state = StateIdle
	c.lastRender = time.Since(c.started)
	c.log.Debug("fractal: generation done",
		"generation", c.generation,
		"tiles", c.tiles,
		"received", c.received,
		"elapsed", c.lastRender)
	if c.opts.metrics != nil {
		c.opts.metrics.GenerationDone(c.lastRender)
	}
	// Refresh the overlay's render time.
	if c.opts.overlay != nil {
		c.dirty.MarkRange(c.hud.Min.Y, c.hud.Max.Y)
	}
}

func (c *Controller) pending() bool {
	return c.dx != 0 || c.dy != 0 || c.wheel != 0
}

// apply folds the accumulated input into the viewport and submits a new
// generation. A change that would leave a degenerate viewport is dropped.
func (c *Controller) apply() error {
	vp := c.vp
	var err error
	if c.dx != 0 || c.dy != 0 {
		vp, err = vp.Pan(c.dx, c.dy, c.step)
	}
	if err == nil && c.wheel != 0 {
		vp, err = vp.Zoom(c.wheel, c.opts.shrinkRate, c.step, c.params.Size)
	}
	var step Step
	if err == nil {
		step, err = stepFor(vp, c.params.Size)
	}
	dx, dy, wheel := c.dx, c.dy, c.wheel
	c.dx, c.dy, c.wheel = 0, 0, 0
	if err != nil {
		c.log.Warn("fractal: viewport change rejected",
			"dx", dx, "dy", dy, "wheel", wheel, "error", err)
		return nil
	}

	c.vp, c.step = vp, step
	return c.submit()
}

// submit partitions the current viewport and pushes one tile per block.
func (c *Controller) submit() error {
	specs, err := tileSpecs(c.params, c.vp, c.opts.split, c.generation+1)
	if err != nil {
		return err
	}
	c.generation++
	c.tiles = len(specs)
	c.received = 0
	c.started = time.Now()
	c.state = StateGenerating

	for _, spec := range specs {
		if err := c.pool.Push(spec.Compute); err != nil {
			return fmt.Errorf("fractal: submit generation %d: %w", c.generation, err)
		}
	}

	c.log.Debug("fractal: generation submitted",
		"generation", c.generation,
		"tiles", c.tiles,
		"re", []float64{c.vp.Re.Start, c.vp.Re.End},
		"im", []float64{c.vp.Im.Start, c.vp.Im.End})
	if c.opts.metrics != nil {
		c.opts.metrics.GenerationStarted(c.tiles)
	}
	return nil
}

// present writes every dirty row, plus the overlay, to the surface.
func (c *Controller) present() error {
	if c.dirty.IsEmpty() {
		return nil
	}

	if c.opts.overlay != nil {
		// Restore the rows under the previous overlay, then draw it again.
		c.dirty.MarkRange(c.hud.Min.Y, c.hud.Max.Y)
		spans := c.dirty.TakeSpans()
		for _, s := range spans {
			r := RowRange{Start: s.Start, End: s.End}
			copy(c.screen.Rows(r), c.canvas.Rows(r))
			c.dirty.MarkRange(s.Start, s.End)
		}
		c.hud = c.opts.overlay.Draw(c.screen.View(), c.Status().Lines())
		c.dirty.MarkRange(c.hud.Min.Y, c.hud.Max.Y)
	}

	rows := 0
	for _, s := range c.dirty.TakeSpans() {
		r := RowRange{Start: s.Start, End: s.End}
		if err := c.surface.WriteRows(r, c.screen.Rows(r)); err != nil {
			return &SurfaceError{Op: "write rows", Err: err}
		}
		rows += r.Len()
	}
	if err := c.surface.Present(); err != nil {
		return &SurfaceError{Op: "present", Err: err}
	}
	if c.opts.metrics != nil {
		c.opts.metrics.RowsPresented(rows)
	}
	return nil
}
