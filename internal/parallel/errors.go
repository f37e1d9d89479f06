package parallel

import (
	"errors"
	"fmt"
)

// ErrPoolClosed is returned by Push once Shutdown has been called.
var ErrPoolClosed = errors.New("parallel: pool is shut down")

// WorkerFaultError reports a task that panicked. The worker that ran it
// recovers and keeps serving its queue.
type WorkerFaultError struct {
	// Worker is the index of the worker that ran the task.
	Worker int

	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

func (e *WorkerFaultError) Error() string {
	return fmt.Sprintf("parallel: worker %d: task panicked: %v", e.Worker, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *WorkerFaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
