// internal/generation/registry.go
package generation

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mwiater/storyqa/internal/logging"
)

// Registry owns the loaded backends. A backend moves from unloaded to
// loaded once, on first use, and stays resident for the registry's lifetime.
type Registry struct {
	loader Loader
	group  singleflight.Group

	mu     sync.RWMutex
	loaded map[string]*slot
}

// slot pairs a backend with the lock that serializes calls into it.
type slot struct {
	mu      sync.Mutex
	backend Backend
}

// NewRegistry constructs an empty registry that loads backends with loader.
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader: loader,
		loaded: make(map[string]*slot),
	}
}

// Backend returns the backend for a registered model name, loading it on
// first use. Concurrent first calls share one load. Failed loads are not
// cached.
func (r *Registry) Backend(ctx context.Context, name string) (Backend, error) {
	s, err := r.acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.backend, nil
}

// Loaded lists the names of loaded backends in registration order.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, name := range ListAvailableModels() {
		if _, ok := r.loaded[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) acquire(ctx context.Context, name string) (*slot, error) {
	profile, err := Profile(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	s, ok := r.loaded[profile.Name]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := r.group.Do(profile.Name, func() (any, error) {
		r.mu.RLock()
		existing, ok := r.loaded[profile.Name]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		if r.loader == nil {
			return nil, errors.New("no backend loader configured")
		}
		logging.LogEvent("registry: loading backend %s", profile.Name)
		backend, err := r.loader(ctx, profile)
		if err != nil {
			logging.LogEvent("registry: load %s failed: %v", profile.Name, err)
			return nil, err
		}
		if backend == nil {
			return nil, errors.New("loader returned no backend")
		}

		created := &slot{backend: backend}
		r.mu.Lock()
		r.loaded[profile.Name] = created
		r.mu.Unlock()
		logging.LogEvent("registry: backend %s loaded", profile.Name)
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*slot), nil
}
