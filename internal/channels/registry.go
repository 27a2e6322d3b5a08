package channels

import (
	"context"
	"sync"
)

// Kind names one of the three channel categories.
type Kind string

const (
	KindMessages Kind = "messages"
	KindContacts Kind = "contacts"
	KindRequests Kind = "requests"
)

// namespace is the routing-key prefix per kind. The message channel is
// addressed by the bare chat key.
var namespace = map[Kind]string{
	KindMessages: "",
	KindContacts: "contacts",
	KindRequests: "requests",
}

// Registry tracks at most one open channel per kind. Opening a kind whose
// routing key changed replaces the previous connection; there is no manual
// reference counting.
type Registry struct {
	baseURL string

	mu    sync.Mutex
	conns map[Kind]*Channel
	keys  map[Kind]string
}

// NewRegistry constructs a Registry dialing under baseURL
// (e.g. ws://host/ws).
func NewRegistry(baseURL string) *Registry {
	return &Registry{
		baseURL: baseURL,
		conns:   make(map[Kind]*Channel),
		keys:    make(map[Kind]string),
	}
}

// Open connects the channel of the given kind for key, sanitizing key into
// the routing key first. A live channel for the same key is kept, with its
// handler rebound to the given one so the newest caller receives subsequent
// events. A dead connection or a different key closes the old connection
// before dialing the new one. Open failures are not retried.
func (r *Registry) Open(ctx context.Context, kind Kind, key string, handler Handler) error {
	routing := SanitizeKey(key)

	r.mu.Lock()
	if current, ok := r.conns[kind]; ok {
		if r.keys[kind] == routing && !current.closed() {
			current.setHandler(handler)
			r.mu.Unlock()
			return nil
		}
		current.Close()
		delete(r.conns, kind)
		delete(r.keys, kind)
	}
	r.mu.Unlock()

	url := r.baseURL + "/" + namespace[kind] + routing + "/"
	ch, err := dial(ctx, kind, url, handler)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A concurrent Open for the same kind may have won; keep the newest.
	if previous, ok := r.conns[kind]; ok {
		previous.Close()
	}
	r.conns[kind] = ch
	r.keys[kind] = routing
	return nil
}

// Send publishes v on the open channel of the given kind.
func (r *Registry) Send(kind Kind, v any) error {
	r.mu.Lock()
	ch, ok := r.conns[kind]
	r.mu.Unlock()
	if !ok {
		return ErrChannelClosed
	}
	return ch.Send(v)
}

// Close shuts the channel of one kind down.
func (r *Registry) Close(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.conns[kind]; ok {
		ch.Close()
		delete(r.conns, kind)
		delete(r.keys, kind)
	}
}

// CloseAll shuts every open channel down.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for kind, ch := range r.conns {
		ch.Close()
		delete(r.conns, kind)
		delete(r.keys, kind)
	}
}

// Active returns the routing key of every open channel, keyed by kind.
func (r *Registry) Active() map[Kind]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := make(map[Kind]string, len(r.conns))
	for kind := range r.conns {
		active[kind] = r.keys[kind]
	}
	return active
}
