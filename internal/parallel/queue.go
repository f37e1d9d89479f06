package parallel

import "sync"

// taskQueue is an unbounded FIFO guarded by a mutex and condition variable.
//
// push never blocks; pop blocks until an item is available or the queue is
// closed and empty.
type taskQueue[E any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []E
	head   int
	closed bool
}

func newTaskQueue[E any]() *taskQueue[E] {
	q := &taskQueue[E]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends e. It reports false if the queue was closed.
func (q *taskQueue[E]) push(e E) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, e)
	q.cond.Signal()
	return true
}

// pop removes the oldest item. ok is false once the queue is closed and drained.
func (q *taskQueue[E]) pop() (e E, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head == len(q.items) && !q.closed {
		q.cond.Wait()
	}
	if q.head == len(q.items) {
		return e, false
	}

	var zero E
	e = q.items[q.head]
	q.items[q.head] = zero
	q.head++
	q.compact()
	return e, true
}

// compact reclaims the consumed prefix once it dominates the backing array.
func (q *taskQueue[E]) compact() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head >= 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}

// close wakes every waiter. Items already queued can still be popped.
func (q *taskQueue[E]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
