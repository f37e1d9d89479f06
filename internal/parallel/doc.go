// Package parallel provides the worker pool and row bookkeeping behind
// progressive rendering.
//
// ThreadPool runs closures on a fixed set of workers, each with its own
// unbounded FIFO queue. New work goes to the worker with the fewest
// outstanding tasks, and results are delivered on a single output channel.
// A worker that panics reports a WorkerFaultError and keeps serving.
//
// DirtyRows tracks which rows of a frame changed since they were last
// presented. It uses atomic operations and may be marked from any
// goroutine.
package parallel
