// Package fractal renders escape-time fractals in parallel.
//
// # Overview
//
// A run maps a Viewport of the complex plane onto a pixel grid and counts,
// for every pixel, how many z <- z*z + c steps its orbit takes to leave the
// radius-2 disk. The Mandelbrot variant starts from z = 0 with c at the
// pixel; the Julia variant starts at the pixel with a fixed c.
//
// The grid is split into horizontal bands (Partition). Each band is a
// TileSpec that carries everything a worker needs by value, so tiles can be
// computed on any goroutine without shared state.
//
// # Quick Start
//
//	pool := fractal.NewPool(runtime.NumCPU())
//	defer pool.Shutdown()
//
//	vp, _ := fractal.NewViewport(-2, 0.5, -1, 1)
//	params := fractal.Params{
//		Kind:          fractal.KindMandelbrot,
//		Size:          fractal.Size{Width: 1250, Height: 1000},
//		MaxIterations: 1000,
//	}
//	frame, err := fractal.Assemble(ctx, pool, params, vp, 16, nil)
//	if err != nil {
//		return err
//	}
//	return fractal.SaveImage("mandelbrot.png", frame.Image(fractal.HSVPalette{}))
//
// # Interactive Exploration
//
// A Controller owns a pool, a Surface and an InputSource. Every Tick it
// drains finished tiles onto its canvas, turns drag and wheel input into a
// new viewport once the previous generation is complete, and writes only
// the rows that changed. Tiles are tagged with the generation they belong
// to; tiles from a superseded generation are dropped unless WithStaleTiles
// is set.
//
// # Logging
//
// The package is silent by default. Use SetLogger to route its diagnostics
// to a slog.Logger.
package fractal
