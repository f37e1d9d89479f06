package fractal

import (
	"log/slog"

	"github.com/gogpu/fractal/internal/parallel"
)

// Pool is the worker pool that computes tiles.
type Pool = parallel.ThreadPool[Tile]

// PoolResult is one completed tile, or the fault that replaced it.
type PoolResult = parallel.Result[Tile]

// PoolOption configures a Pool.
type PoolOption = parallel.PoolOption

// PoolMetrics receives pool events.
type PoolMetrics = parallel.Metrics

// WorkerFaultError reports a tile computation that panicked.
type WorkerFaultError = parallel.WorkerFaultError

// ErrPoolClosed is returned when work is pushed to a pool after Shutdown.
var ErrPoolClosed = parallel.ErrPoolClosed

// TilePool is the subset of Pool used by Assemble and Controller.
type TilePool interface {
	Push(work func() Tile) error
	Output() <-chan PoolResult
	IsBusy() bool
	Shutdown()
}

// NewPool starts a pool of workers goroutines. If workers is 0 or negative,
// GOMAXPROCS is used.
func NewPool(workers int, opts ...PoolOption) *Pool {
	return parallel.NewThreadPool[Tile](workers, opts...)
}

// WithPoolMetrics installs a metrics sink on the pool.
func WithPoolMetrics(m PoolMetrics) PoolOption {
	return parallel.WithPoolMetrics(m)
}

// WithPoolLogger sets the pool's logger. Without it the pool logs nothing.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return parallel.WithPoolLogger(l)
}

// WithOutputBuffer sets the capacity of the pool's output channel.
func WithOutputBuffer(n int) PoolOption {
	return parallel.WithOutputBuffer(n)
}
