package parallel

import (
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// defaultOutputBuffer is the capacity of the output channel.
const defaultOutputBuffer = 256

// Result is the outcome of one task, delivered on the pool's output channel.
type Result[T any] struct {
	// Value is the task's return value. It is the zero value when Err is set.
	Value T

	// Err is a *WorkerFaultError when the task panicked.
	Err error

	// Worker is the index of the worker that ran the task.
	Worker int
}

// Metrics receives pool events. Implementations must be safe for concurrent
// use; every method is called from worker or producer goroutines.
type Metrics interface {
	TaskQueued(worker int)
	TaskDone(worker int, elapsed time.Duration)
	TaskFault(worker int)
	Occupancy(worker, n int)
}

// PoolOption configures a ThreadPool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	metrics      Metrics
	logger       *slog.Logger
	outputBuffer int
}

// WithPoolMetrics installs a metrics sink.
func WithPoolMetrics(m Metrics) PoolOption {
	return func(o *poolOptions) {
		o.metrics = m
	}
}

// WithPoolLogger sets the logger used for worker lifecycle and task faults.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(o *poolOptions) {
		o.logger = l
	}
}

// WithOutputBuffer sets the capacity of the output channel.
// Values below 1 are ignored.
func WithOutputBuffer(n int) PoolOption {
	return func(o *poolOptions) {
		if n > 0 {
			o.outputBuffer = n
		}
	}
}

// job is a queue entry. A nil work function is the stop marker.
type job[T any] struct {
	work func() T
}

type worker[T any] struct {
	id    int
	queue *taskQueue[job[T]]

	mu        sync.Mutex
	occupancy int
}

func (w *worker[T]) load() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.occupancy
}

func (w *worker[T]) add(delta int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.occupancy += delta
	return w.occupancy
}

// ThreadPool runs deferred computations on a fixed set of worker goroutines.
//
// Every worker owns an unbounded FIFO queue and an occupancy counter that
// counts tasks submitted to it but not yet delivered. Push hands each task to
// the least occupied worker, and all results arrive on a single output channel
// in completion order.
//
// A worker decrements its counter only after the result has been sent, so
// IsBusy returning false means every submitted result is already in the
// output channel.
//
// Thread safety: Push, IsBusy, Occupancy and Shutdown are safe for concurrent
// use. Output has a single intended consumer.
type ThreadPool[T any] struct {
	workers []*worker[T]
	output  chan Result[T]

	// state guards closed against concurrent Push so no task can be queued
	// behind a stop marker.
	state  sync.RWMutex
	closed bool

	wg           sync.WaitGroup
	shutdownOnce sync.Once

	metrics Metrics
	logger  *slog.Logger
}

// NewThreadPool starts a pool of n workers. If n is 0 or negative,
// GOMAXPROCS is used.
func NewThreadPool[T any](n int, opts ...PoolOption) *ThreadPool[T] {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	o := poolOptions{outputBuffer: defaultOutputBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &ThreadPool[T]{
		workers: make([]*worker[T], n),
		output:  make(chan Result[T], o.outputBuffer),
		metrics: o.metrics,
		logger:  o.logger,
	}
	for i := range n {
		p.workers[i] = &worker[T]{id: i, queue: newTaskQueue[job[T]]()}
	}

	p.wg.Add(n)
	for _, w := range p.workers {
		go p.serve(w)
	}
	p.logger.Debug("parallel: pool started", "workers", n)
	return p
}

// serve is the main loop of one worker.
func (p *ThreadPool[T]) serve(w *worker[T]) {
	defer p.wg.Done()

	for {
		j, ok := w.queue.pop()
		if !ok || j.work == nil {
			p.logger.Debug("parallel: worker stopped", "worker", w.id)
			return
		}

		start := time.Now()
		res := p.run(w.id, j.work)
		p.output <- res

		n := w.add(-1)
		if p.metrics != nil {
			if res.Err != nil {
				p.metrics.TaskFault(w.id)
			}
			p.metrics.TaskDone(w.id, time.Since(start))
			p.metrics.Occupancy(w.id, n)
		}
	}
}

// run executes work, converting a panic into a *WorkerFaultError result.
func (p *ThreadPool[T]) run(id int, work func() T) (res Result[T]) {
	res.Worker = id
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res.Value = zero
			res.Err = &WorkerFaultError{Worker: id, Value: r, Stack: debug.Stack()}
			p.logger.Error("parallel: task panicked", "worker", id, "panic", r)
		}
	}()
	res.Value = work()
	return res
}

// Push submits work to the worker with the lowest occupancy; ties go to the
// lowest index. It returns ErrPoolClosed after Shutdown.
func (p *ThreadPool[T]) Push(work func() T) error {
	if work == nil {
		return nil
	}

	p.state.RLock()
	defer p.state.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	w := p.leastOccupied()
	n := w.add(1)
	if p.metrics != nil {
		p.metrics.TaskQueued(w.id)
		p.metrics.Occupancy(w.id, n)
	}
	w.queue.push(job[T]{work: work})
	return nil
}

func (p *ThreadPool[T]) leastOccupied() *worker[T] {
	best := p.workers[0]
	lowest := best.load()
	for _, w := range p.workers[1:] {
		if n := w.load(); n < lowest {
			best, lowest = w, n
		}
	}
	return best
}

// Output returns the channel on which results arrive. It is closed once
// Shutdown has joined every worker.
func (p *ThreadPool[T]) Output() <-chan Result[T] {
	return p.output
}

// IsBusy reports whether any submitted task has not yet delivered its result.
func (p *ThreadPool[T]) IsBusy() bool {
	for _, w := range p.workers {
		if w.load() > 0 {
			return true
		}
	}
	return false
}

// Occupancy returns a snapshot of every worker's counter.
func (p *ThreadPool[T]) Occupancy() []int {
	occ := make([]int, len(p.workers))
	for i, w := range p.workers {
		occ[i] = w.load()
	}
	return occ
}

// Workers returns the number of worker goroutines.
func (p *ThreadPool[T]) Workers() int {
	return len(p.workers)
}

// Shutdown sends a stop marker to every worker and waits for them to exit.
// Tasks queued before the call still run first. The output channel is closed
// afterwards, so a consumer must keep draining it while Shutdown is blocked
// on a full channel. Calling Shutdown more than once is safe.
func (p *ThreadPool[T]) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.state.Lock()
		p.closed = true
		for _, w := range p.workers {
			w.queue.push(job[T]{})
		}
		p.state.Unlock()

		p.wg.Wait()
		for _, w := range p.workers {
			w.queue.close()
		}
		close(p.output)
		p.logger.Debug("parallel: pool shut down")
	})
}

// Discard shuts the pool down while dropping every result nobody has read,
// so it does not block on a full output channel. Use it when the consumer
// has stopped reading.
func (p *ThreadPool[T]) Discard() {
	go func() {
		for range p.output {
		}
	}()
	p.Shutdown()
}
