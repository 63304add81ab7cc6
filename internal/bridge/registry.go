package bridge

import (
	"fmt"
	"sync"

	"token-bridge-go/internal/models"
)

// Registry holds one adapter per network type. Adapters are registered at
// construction time; no chain-specific logic leaks past this lookup.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.NetworkType]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[models.NetworkType]Adapter)}
}

func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.NetworkType()] = adapter
}

func (r *Registry) Resolve(netType models.NetworkType) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[netType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, netType)
	}
	return adapter, nil
}

// Types returns the registered network types, for startup logging.
func (r *Registry) Types() []models.NetworkType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]models.NetworkType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	return types
}
