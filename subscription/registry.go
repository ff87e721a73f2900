package subscription

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// NotifyFunc receives a broadcast mutation event. Returning false means the
// subscriber is gone and should be dropped from the registry.
type NotifyFunc func(ev *Event) bool

// Registry fans mutation events out to live subscriptions.
//
// Broadcast holds the registry lock for the duration of the fan-out. That
// serializes broadcasts with each other and guarantees every subscriber sees
// events in the same order the writer produced them. Notify callbacks must
// therefore never call back into the registry; they only take the
// subscription's own output lock, which is always acquired after this one.
type Registry struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]NotifyFunc
	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger falls back to
// slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		subs:   make(map[uuid.UUID]NotifyFunc),
		logger: logger,
	}
}

// Register adds a subscriber and returns its id.
func (r *Registry) Register(notify NotifyFunc) uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than refusing the subscription.
		id = uuid.New()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs[id] = notify
	r.logger.Debug("subscription registered", "subscription_id", id, "total", len(r.subs))
	return id
}

// Unregister removes a subscriber. Removing an unknown id is a no-op.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[id]; !ok {
		return
	}
	delete(r.subs, id)
	r.logger.Debug("subscription unregistered", "subscription_id", id, "total", len(r.subs))
}

// Broadcast delivers an event to every live subscriber, dropping the ones
// whose notify reports they are gone.
func (r *Registry) Broadcast(ev *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dead []uuid.UUID
	for id, notify := range r.subs {
		if !notify(ev) {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		delete(r.subs, id)
		r.logger.Debug("subscription dropped", "subscription_id", id, "event_kind", ev.Kind.String(), "table", ev.Table)
	}
}

// Len returns the number of live subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
