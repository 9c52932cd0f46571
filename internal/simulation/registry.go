package simulation

import (
	"errors"
	"sort"
	"sync"
)

var ErrMatchExists = errors.New("match is already registered")

// Registry maps match ids to their engines. It is the only table shared
// between matches and holds no match state of its own.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

func (r *Registry) Add(e *Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[e.ID()]; exists {
		return ErrMatchExists
	}
	r.engines[e.ID()] = e
	return nil
}

func (r *Registry) Get(matchID string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[matchID]
	return e, ok
}

func (r *Registry) Remove(matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.engines[matchID]; !ok {
		return false
	}
	delete(r.engines, matchID)
	return true
}

// List returns the registered engines ordered by match id.
func (r *Registry) List() []*Engine {
	r.mu.RLock()
	out := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}
