package subscription

import (
	"sync"
)

// Metadata describes why a subscription woke its consumer. A nil Event means
// the initial snapshot is ready; afterwards every notification carries the
// mutation event that changed the output.
type Metadata struct {
	Event *Event
}

// notifyQueue is a thread-safe FIFO of pending notifications.
//
// The queue is unbounded so a slow consumer never blocks the mutation path;
// the writer finishes its broadcast regardless of how far behind readers are.
//
// A buffered signal channel of size 1 coalesces wakeups and enables
// context-aware waiting in Recv.
type notifyQueue struct {
	mu      sync.Mutex
	pending []Metadata
	closed  bool
	signal  chan struct{}
}

func newNotifyQueue() *notifyQueue {
	return &notifyQueue{
		pending: make([]Metadata, 0, 8),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends a notification. Returns false if the queue is closed.
func (q *notifyQueue) Enqueue(m Metadata) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.pending = append(q.pending, m)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue pops the front notification without blocking.
func (q *notifyQueue) TryDequeue() (Metadata, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Metadata{}, false
	}

	m := q.pending[0]

	// Nil out the slot so the event is collectable before the backing array
	// gets reused.
	q.pending[0] = Metadata{}

	if len(q.pending) == 1 {
		q.pending = q.pending[:0]
	} else {
		q.pending = q.pending[1:]
	}

	return m, true
}

// Wait returns a channel that signals when notifications may be available.
// Use with select alongside ctx.Done().
func (q *notifyQueue) Wait() <-chan struct{} {
	return q.signal
}

// Closed reports whether Close has been called.
func (q *notifyQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of pending notifications.
func (q *notifyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close marks the queue closed and wakes all waiters.
func (q *notifyQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
