package client

import (
	"slices"
	"sync"

	"github.com/jander99/overture-sub000/internal/errors"
)

// Sentinel errors for registry operations.
var (
	// ErrAlreadyRegistered is returned when registering a client name twice.
	ErrAlreadyRegistered = errors.New("client already registered")

	// ErrUnknownClient is returned when looking up an unregistered client.
	ErrUnknownClient = errors.New("unknown client")
)

// Registry manages client adapter registration and lookup.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client adapter.
// Returns ErrAlreadyRegistered if the name is taken.
func (r *Registry) Register(c Client) error {
	if c == nil || c.Name() == "" {
		return errors.New("client must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.Name()]; exists {
		return errors.Wrap(ErrAlreadyRegistered, c.Name())
	}
	r.clients[c.Name()] = c
	return nil
}

// Get returns the adapter for name.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownClient, name)
	}
	return c, nil
}

// Names returns all registered client names in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns all registered adapters ordered by name.
func (r *Registry) All() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Client, 0, len(names))
	for _, name := range names {
		out = append(out, r.clients[name])
	}
	return out
}

// Installed returns registered adapters whose tool appears present,
// ordered by name.
func (r *Registry) Installed() []Client {
	var out []Client
	for _, c := range r.All() {
		if c.Installed() {
			out = append(out, c)
		}
	}
	return out
}
