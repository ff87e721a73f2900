package subscription

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned by Recv once the subscription has been closed and
// its pending notifications are drained.
var ErrClosed = errors.New("subscription is closed")

// MergeFunc applies a relevant mutation event to the cached output in place
// and reports whether the output changed.
type MergeFunc[T any] func(output *T, ev *Event) bool

// CloneFunc returns an independent copy of the output for Snapshot.
type CloneFunc[T any] func(output T) T

// Subscription is a consumer's handle on a live query: the incrementally
// maintained output plus a notification stream that wakes the consumer when
// the output changes.
//
// The output lock is always acquired after the registry lock, never the
// other way around. See the package documentation.
type Subscription[T any] struct {
	id    uuid.UUID
	reg   *Registry
	desc  Descriptor
	queue *notifyQueue

	merge MergeFunc[T]
	clone CloneFunc[T]

	mu     sync.Mutex
	output T

	closeOnce sync.Once
}

// New seeds a subscription with its initial output and registers it for
// mutation events. The first notification (a Metadata with a nil Event) is
// already queued when New returns, so a consumer loop that fetches on every
// wakeup renders the initial snapshot without a special case.
func New[T any](reg *Registry, d Descriptor, initial T, merge MergeFunc[T], clone CloneFunc[T]) *Subscription[T] {
	s := &Subscription[T]{
		reg:    reg,
		desc:   d,
		queue:  newNotifyQueue(),
		merge:  merge,
		clone:  clone,
		output: initial,
	}
	s.queue.Enqueue(Metadata{})
	s.id = reg.Register(s.notify)
	return s
}

// notify runs on the broadcaster's goroutine under the registry lock.
func (s *Subscription[T]) notify(ev *Event) bool {
	if s.queue.Closed() {
		return false
	}
	if !Relevant(ev, s.desc) {
		return true
	}

	s.mu.Lock()
	changed := s.merge(&s.output, ev)
	s.mu.Unlock()

	if !changed {
		return true
	}
	return s.queue.Enqueue(Metadata{Event: ev})
}

// ID returns the registry id of this subscription.
func (s *Subscription[T]) ID() uuid.UUID {
	return s.id
}

// Descriptor returns the query shape this subscription maintains.
func (s *Subscription[T]) Descriptor() Descriptor {
	return s.desc
}

// Recv blocks until the next notification, the context ends, or the
// subscription is closed. Pending notifications are still delivered after
// Close; ErrClosed follows once the queue drains.
func (s *Subscription[T]) Recv(ctx context.Context) (Metadata, error) {
	for {
		if m, ok := s.queue.TryDequeue(); ok {
			return m, nil
		}
		if s.queue.Closed() {
			return Metadata{}, ErrClosed
		}
		select {
		case <-ctx.Done():
			return Metadata{}, ctx.Err()
		case <-s.queue.Wait():
		}
	}
}

// Pending returns the number of undelivered notifications.
func (s *Subscription[T]) Pending() int {
	return s.queue.Len()
}

// View calls fn with the current output under the output lock. fn must not
// retain the value past the call; use Snapshot for that.
func (s *Subscription[T]) View(fn func(output T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.output)
}

// Snapshot returns an independent copy of the current output.
func (s *Subscription[T]) Snapshot() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clone == nil {
		return s.output
	}
	return s.clone(s.output)
}

// Close detaches the subscription from the registry and wakes any blocked
// Recv. Safe to call more than once, and safe concurrently with Broadcast.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		s.queue.Close()
		s.reg.Unregister(s.id)
	})
}
