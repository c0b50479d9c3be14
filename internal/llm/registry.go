package llm

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Factory builds an executor for a resolved route.
type Factory interface {
	NewExecutor(route Route) (Executor, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(route Route) (Executor, error)

// NewExecutor calls f.
func (f FactoryFunc) NewExecutor(route Route) (Executor, error) {
	return f(route)
}

type executorKey struct {
	provider ProviderID
	model    string
	mode     Mode
}

func (k executorKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.provider, k.model, k.mode)
}

// Registry caches executors by (provider, model, mode). Entries are built lazily on
// first use and live for the process lifetime; failed constructions are not cached.
type Registry struct {
	factory   Factory
	mu        sync.RWMutex
	executors map[executorKey]Executor
	group     singleflight.Group
}

// NewRegistry creates an empty registry backed by factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory:   factory,
		executors: make(map[executorKey]Executor),
	}
}

// Executor returns the cached executor for route, building it on first use.
// Concurrent first uses of the same key share one construction.
func (r *Registry) Executor(route Route) (Executor, error) {
	key := executorKey{provider: route.Provider, model: route.Model, mode: route.Mode}

	r.mu.RLock()
	exec, ok := r.executors[key]
	r.mu.RUnlock()
	if ok {
		return exec, nil
	}

	v, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.executors[key]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		built, err := r.factory.NewExecutor(route)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.executors[key] = built
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Executor), nil
}

// Len returns the number of cached executors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}
