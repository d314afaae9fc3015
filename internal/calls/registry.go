package calls

import (
	"sync"

	"github.com/google/uuid"
)

// Sink is a writable handle to one subscriber's transport stream. Send must
// not block; a non-nil error is treated by the broadcaster as a disconnect
// signal for that subscriber.
type Sink interface {
	Send(event CallEvent) error
}

// Subscriber is one live monitor connection. It is owned by the registry
// entry and destroyed when the connection closes or a write fails.
type Subscriber struct {
	ConnectionID string
	MonitorID    string
	sink         Sink
}

// Send writes an event to the subscriber's sink.
func (s *Subscriber) Send(event CallEvent) error {
	return s.sink.Send(event)
}

// Registry is the process-wide set of active monitor connections. It is
// constructed once at startup and injected into both the transport handler
// and the broadcaster. All mutations are mutex-guarded; iteration works on a
// snapshot so a disconnect firing mid-broadcast cannot skip or double-visit
// unrelated live entries.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*Subscriber)}
}

// Add registers a new subscriber for monitorID (GeneralMonitor when empty)
// with a freshly generated connection id.
func (r *Registry) Add(monitorID string, sink Sink) *Subscriber {
	if monitorID == "" {
		monitorID = GeneralMonitor
	}
	sub := &Subscriber{
		ConnectionID: uuid.New().String(),
		MonitorID:    monitorID,
		sink:         sink,
	}

	r.mu.Lock()
	r.subs[sub.ConnectionID] = sub
	r.mu.Unlock()
	return sub
}

// Remove drops the subscriber with the given connection id. Removing an
// already-absent id is a no-op.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	delete(r.subs, connectionID)
	r.mu.Unlock()
}

// Snapshot returns the current subscribers as a copy safe to iterate while
// the registry keeps mutating underneath.
func (r *Registry) Snapshot() []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, sub)
	}
	return out
}

// Count returns the number of active subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// CountForMonitor returns the number of subscribers registered under exactly
// the given monitor id.
func (r *Registry) CountForMonitor(monitorID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, sub := range r.subs {
		if sub.MonitorID == monitorID {
			n++
		}
	}
	return n
}
