// ABOUTME: In-process agent registry with stable listing order
// ABOUTME: Maps agent IDs to Agent implementations for the gateway

package agent

import (
	"fmt"
	"sync"
)

// Registry holds the agents available to the gateway. List returns agents
// in registration order so the catalog is stable across calls.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent. Registering a duplicate ID is an error.
func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("agent %q already registered", id)
	}
	r.agents[id] = a
	r.order = append(r.order, id)
	return nil
}

// Get returns the agent with the given ID
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	return a, ok
}

// List returns all agents in registration order
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}
