package channel

import (
	"fmt"
	"sync"
)

// Registry maps channels to the sender responsible for them.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	senders map[Channel]Sender
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[Channel]Sender)}
}

// Register binds s to c. Registering the same channel twice is an error.
func (r *Registry) Register(c Channel, s Sender) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, c)
	}
	if s == nil {
		return fmt.Errorf("%w: nil sender for %q", ErrNotConfigured, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.senders[c]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSender, c)
	}
	r.senders[c] = s
	return nil
}

// MustRegister is like Register but panics on error.
// Intended for wiring at startup.
func (r *Registry) MustRegister(c Channel, s Sender) *Registry {
	if err := r.Register(c, s); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the sender for c.
func (r *Registry) Lookup(c Channel) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[c]
	return s, ok
}

// Channels returns the registered channels in All() order.
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, 0, len(r.senders))
	for _, c := range All() {
		if _, ok := r.senders[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
