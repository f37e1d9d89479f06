package fractal

import (
	"context"
	"fmt"
	"time"
)

// Progress receives the completed fraction of a batch render, in (0, 1].
type Progress interface {
	Update(fraction float64)
}

// ProgressFunc adapts a function to the Progress interface.
type ProgressFunc func(fraction float64)

// Update calls f(fraction).
func (f ProgressFunc) Update(fraction float64) {
	f(fraction)
}

// Assemble renders one complete frame of vp. It partitions the grid into
// row tiles, pushes one task per tile and waits for exactly that many results,
// copying each tile into place as it arrives. progress may be nil.
//
// The pool must carry no other outstanding work: every result received is
// taken to belong to this frame.
//
// A faulted tile does not stop the wait. The remaining results are drained so
// the pool is left idle, then the first fault is returned. Cancelling ctx
// abandons the wait; tiles already running still complete in the pool.
func Assemble(ctx context.Context, pool TilePool, p Params, vp Viewport, split int, progress Progress) (*Frame, error) {
	if _, err := NewGenerator(p); err != nil {
		return nil, err
	}
	specs, err := tileSpecs(p, vp, split, 0)
	if err != nil {
		return nil, err
	}
	frame, err := NewFrame(p.Size, p.MaxIterations)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pushed := 0
	var firstErr error
	for _, spec := range specs {
		if err := pool.Push(spec.Compute); err != nil {
			firstErr = fmt.Errorf("fractal: submit tile %d-%d: %w", spec.Rows.Start, spec.Rows.End, err)
			break
		}
		pushed++
	}

	total := float64(len(specs))
	for received := 0; received < pushed; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-pool.Output():
			if !ok {
				return nil, fmt.Errorf("fractal: %d of %d tiles missing: %w", pushed-received, pushed, ErrPoolClosed)
			}
			received++
			switch {
			case res.Err != nil:
				if firstErr == nil {
					firstErr = res.Err
				}
			case firstErr == nil:
				if err := frame.WriteTile(res.Value); err != nil {
					firstErr = err
				}
			}
			if progress != nil {
				progress.Update(float64(received) / total)
			}
		}
	}
	if firstErr != nil {
		Logger().Warn("fractal: frame incomplete", "error", firstErr)
		return nil, firstErr
	}

	Logger().Info("fractal: frame assembled",
		"width", p.Size.Width,
		"height", p.Size.Height,
		"tiles", len(specs),
		"elapsed", time.Since(start))
	return frame, nil
}
